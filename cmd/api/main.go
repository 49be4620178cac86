// @title peptide-tracker API
// @version 1.0
// @description Protocolos de dosificación, dosis programadas, registro de inyecciones y rotación de sitios.
// @BasePath /
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"peptide-tracker/internal/adapters/auth/jwt"
	"peptide-tracker/internal/config"
	"peptide-tracker/internal/jobs"
	"peptide-tracker/internal/middleware"
	"peptide-tracker/internal/platform/logger"
	"peptide-tracker/internal/ports/auth"
	"peptide-tracker/internal/preview"
	"peptide-tracker/internal/router"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "peptide-tracker",
		Short:        "Peptide protocol tracker API",
		SilenceUsage: true,
		// Sin subcomando arranca el servidor.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(refreshCmd())
	rootCmd.AddCommand(previewCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and background jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the schema to the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			// OpenStore aplica el schema.
			_, db, err := router.OpenStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			closeDB(db, log)
			log.Info("schema applied", map[string]any{"store": cfg.Store})
			return nil
		},
	}
}

func sweepCmd() *cobra.Command {
	var (
		owner string
		hours int
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Mark overdue DUE doses as MISSED",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			app, db, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeDB(db, log)

			n, err := app.Doses.DetectAndMarkMissed(cmd.Context(), owner, hours)
			if err != nil {
				return err
			}
			log.Info("sweep done", map[string]any{"owner": owner, "missed": n})
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "limit the sweep to one user (default: all)")
	cmd.Flags().IntVar(&hours, "hours", 0, "threshold in hours (default: MISSED_THRESHOLD_HOURS)")
	return cmd
}

func refreshCmd() *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Extend the rolling dose window of active protocols",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			app, db, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeDB(db, log)

			n, err := app.Protocols.RefreshSchedules(cmd.Context(), owner)
			if err != nil {
				return err
			}
			log.Info("refresh done", map[string]any{"owner": owner, "generated": n})
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "limit the refresh to one user (default: all)")
	return cmd
}

func previewCmd() *cobra.Command {
	var (
		file string
		from string
		tz   string
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the doses a YAML protocol file would generate",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			p, err := preview.Parse(f)
			if err != nil {
				return err
			}

			var fromDate *time.Time
			if from != "" {
				d, err := time.Parse("2006-01-02", from)
				if err != nil {
					return fmt.Errorf("--from must be YYYY-MM-DD: %w", err)
				}
				fromDate = &d
			}

			rows, err := p.Generate(tz, fromDate)
			if err != nil {
				return err
			}
			return preview.Render(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "protocol YAML file")
	cmd.Flags().StringVar(&from, "from", "", "first day to generate (YYYY-MM-DD, default start_date)")
	cmd.Flags().StringVar(&tz, "tz", "Asia/Kuala_Lumpur", "timezone used when the file omits one")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		user  string
		email string
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed JWT for local testing (needs JWT_SECRET)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			tok, err := jwt.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer).Issue(user, email, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id (sub claim)")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func runServer() error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, db, err := router.OpenStore(ctx, cfg)
	if err != nil {
		log.Error("failed to open store", map[string]any{"store": cfg.Store, "error": err})
		return err
	}
	defer closeDB(db, log)

	var verifier auth.AuthVerifier
	if cfg.JWTSecret != "" {
		verifier = jwt.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	} else {
		log.Warn("JWT_SECRET not set, running in dev auth mode (X-Debug-User-ID)", nil)
	}

	app := router.New(router.Options{
		AuthVerifier:         verifier,
		Logger:               log,
		Store:                store,
		DefaultTimezone:      cfg.DefaultTimezone,
		MissedThresholdHours: cfg.MissedThresholdHours,
		RateLimit: middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
			IdleTTL:           10 * time.Minute,
		},
	})

	sched, err := jobs.New(jobs.Config{
		SweepSchedule:   cfg.SweepSchedule,
		RefreshSchedule: cfg.RefreshSchedule,
	}, app.Doses, app.Protocols, log)
	if err != nil {
		return err
	}
	sched.Start()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      app.Handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr, "store": cfg.Store, "env": cfg.Env})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", map[string]any{"error": err})
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sched.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", map[string]any{"error": err})
		return err
	}
	log.Info("server stopped", nil)
	return nil
}

func setup() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})
	return cfg, log, nil
}

func openApp(ctx context.Context, cfg *config.Config) (*router.App, *sql.DB, error) {
	store, db, err := router.OpenStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return router.NewServices(store, cfg.DefaultTimezone, cfg.MissedThresholdHours), db, nil
}

func closeDB(db *sql.DB, log logger.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		log.Warn("close db", map[string]any{"error": err})
	}
}
