package router

import (
	"net/http"

	_ "peptide-tracker/docs"
	"peptide-tracker/internal/domain/doses"
	"peptide-tracker/internal/domain/injections"
	"peptide-tracker/internal/domain/protocols"
	"peptide-tracker/internal/domain/substances"
	"peptide-tracker/internal/middleware"
	"peptide-tracker/internal/platform/logger"
	"peptide-tracker/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)
	Logger       logger.Logger     // nil = Nop

	// Store vacío = in-memory.
	Store Store

	DefaultTimezone      string
	MissedThresholdHours int

	RateLimit middleware.RateLimitConfig
}

// App expone el handler y los services (los jobs y el CLI los usan).
type App struct {
	Handler http.Handler

	Substances *substances.Service
	Protocols  *protocols.Service
	Doses      *doses.Service
	Injections *injections.Service

	defaultTimezone string
}

func NewRouter(opts Options) http.Handler {
	return New(opts).Handler
}

func New(opts Options) *App {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	store := opts.Store
	if store.Substances == nil || store.Protocols == nil || store.Doses == nil || store.Injections == nil {
		store = MemoryStore()
	}
	app := NewServices(store, opts.DefaultTimezone, opts.MissedThresholdHours)
	tz := app.defaultTimezone

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(log))
	r.Use(middleware.RequestLog(log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.RateLimit))
		r.Use(middleware.AuthContext(opts.AuthVerifier, log))

		// Rutas por módulo
		substances.RegisterRoutes(r, app.Substances)
		protocols.RegisterRoutes(r, app.Protocols)
		doses.RegisterRoutes(r, app.Doses, app.Protocols, tz)
		injections.RegisterRoutes(r, app.Injections)
	})

	app.Handler = r
	return app
}

// NewServices arma los services sin HTTP (lo usan los comandos del CLI).
func NewServices(store Store, defaultTimezone string, missedThresholdHours int) *App {
	if defaultTimezone == "" {
		defaultTimezone = protocols.DefaultTimezone
	}
	return newServices(store, defaultTimezone, missedThresholdHours)
}

func newServices(store Store, tz string, missedThresholdHours int) *App {
	substancesSvc := substances.NewService(store.Substances)

	// doses necesita resolver items de protocols y protocols agenda dosis:
	// el resolver se completa después de construir ambos.
	resolver := &itemResolver{substances: substancesSvc}
	dosesSvc := doses.NewService(store.Doses, resolver)
	if missedThresholdHours > 0 {
		dosesSvc.SetMissedThreshold(missedThresholdHours)
	}

	protocolsSvc := protocols.NewService(store.Protocols, dosesSvc, substanceChecker{svc: substancesSvc}, tz)
	resolver.protocols = protocolsSvc
	substancesSvc.SetUsageChecker(protocolsSvc)

	injectionsSvc := injections.NewService(store.Injections, doseCompleter{svc: dosesSvc})

	return &App{
		defaultTimezone: tz,

		Substances: substancesSvc,
		Protocols:  protocolsSvc,
		Doses:      dosesSvc,
		Injections: injectionsSvc,
	}
}
