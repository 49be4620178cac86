package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

type Config struct {
	Port    string `mapstructure:"PORT"`
	Env     string `mapstructure:"ENV"`
	AppName string `mapstructure:"APP_NAME"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	Store       string `mapstructure:"STORE"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	SQLitePath  string `mapstructure:"SQLITE_PATH"`

	DefaultTimezone      string `mapstructure:"DEFAULT_TIMEZONE"`
	MissedThresholdHours int    `mapstructure:"MISSED_THRESHOLD_HOURS"`
	SweepSchedule        string `mapstructure:"SWEEP_SCHEDULE"`
	RefreshSchedule      string `mapstructure:"REFRESH_SCHEDULE"`

	JWTSecret string `mapstructure:"JWT_SECRET"`
	JWTIssuer string `mapstructure:"JWT_ISSUER"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`
}

var keys = []string{
	"PORT", "ENV", "APP_NAME",
	"LOG_LEVEL", "LOG_FORMAT",
	"STORE", "DATABASE_URL", "SQLITE_PATH",
	"DEFAULT_TIMEZONE", "MISSED_THRESHOLD_HOURS", "SWEEP_SCHEDULE", "REFRESH_SCHEDULE",
	"JWT_SECRET", "JWT_ISSUER",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
}

// Load lee .env (opcional) y el entorno. No valida: ver Validate.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("APP_NAME", "peptide-tracker")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("STORE", StoreMemory)
	v.SetDefault("SQLITE_PATH", "data/peptide-tracker.db")
	v.SetDefault("DEFAULT_TIMEZONE", "Asia/Kuala_Lumpur")
	v.SetDefault("MISSED_THRESHOLD_HOURS", 12)
	v.SetDefault("SWEEP_SCHEDULE", "*/15 * * * *")
	v.SetDefault("REFRESH_SCHEDULE", "@daily")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// .env es opcional
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate revisa que el store tenga lo que necesita, la zona por defecto y las
// expresiones cron.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE=%s", StorePostgres)
		}
	case StoreSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORE=%s", StoreSQLite)
		}
	default:
		return fmt.Errorf("STORE must be %q, %q or %q, got %q", StoreMemory, StorePostgres, StoreSQLite, c.Store)
	}

	if tz := strings.TrimSpace(c.DefaultTimezone); tz == "" || tz == "Local" {
		return fmt.Errorf("DEFAULT_TIMEZONE must be an IANA zone name")
	} else if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("DEFAULT_TIMEZONE: %w", err)
	}

	if c.MissedThresholdHours < 1 {
		return fmt.Errorf("MISSED_THRESHOLD_HOURS must be positive, got %d", c.MissedThresholdHours)
	}

	for name, spec := range map[string]string{
		"SWEEP_SCHEDULE":   c.SweepSchedule,
		"REFRESH_SCHEDULE": c.RefreshSchedule,
	} {
		if strings.TrimSpace(spec) == "" {
			continue
		}
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if !c.IsDev() && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required outside development (ENV=%q)", c.Env)
	}

	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit values must not be negative")
	}
	return nil
}
