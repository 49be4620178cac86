// Package jobs corre en segundo plano el barrido de dosis vencidas y la
// extensión de la ventana móvil de los protocolos activos.
package jobs

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"peptide-tracker/internal/platform/logger"

	"github.com/robfig/cron/v3"
)

type Sweeper interface {
	// ownerID vacío = todos; hours <= 0 usa el umbral configurado.
	DetectAndMarkMissed(ctx context.Context, ownerID string, hours int) (int, error)
}

type Refresher interface {
	RefreshSchedules(ctx context.Context, ownerID string) (int, error)
}

type Config struct {
	// Expresiones cron estándar (o descriptores como "@daily"). Vacío = job desactivado.
	SweepSchedule   string
	RefreshSchedule string
	// Timeout por ejecución. Default 1 minuto.
	Timeout time.Duration
}

type Scheduler struct {
	mu        sync.Mutex
	c         *cron.Cron
	sweeper   Sweeper
	refresher Refresher
	log       logger.Logger
	timeout   time.Duration
	jobs      int
}

func New(cfg Config, sweeper Sweeper, refresher Refresher, log logger.Logger) (*Scheduler, error) {
	if log == nil {
		log = logger.Nop()
	}
	s := &Scheduler{
		c:         cron.New(cron.WithLocation(time.UTC)),
		sweeper:   sweeper,
		refresher: refresher,
		log:       log.With(map[string]any{"component": "jobs"}),
		timeout:   cfg.Timeout,
	}
	if s.timeout <= 0 {
		s.timeout = time.Minute
	}

	if err := s.add("missed_sweep", cfg.SweepSchedule, func(ctx context.Context) (int, error) {
		return s.RunSweep(ctx)
	}); err != nil {
		return nil, err
	}
	if err := s.add("schedule_refresh", cfg.RefreshSchedule, func(ctx context.Context) (int, error) {
		return s.RunRefresh(ctx)
	}); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) add(name, spec string, run func(context.Context) (int, error)) error {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		s.log.Info("job disabled", map[string]any{"job": name})
		return nil
	}

	_, err := s.c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		start := time.Now()
		n, err := run(ctx)
		fields := map[string]any{"job": name, "affected": n, "took_ms": time.Since(start).Milliseconds()}
		if err != nil {
			fields["error"] = err
			s.log.Error("job failed", fields)
			return
		}
		s.log.Info("job done", fields)
	})
	if err != nil {
		return fmt.Errorf("%s schedule %q: %w", name, spec, err)
	}
	s.jobs++
	return nil
}

// Jobs devuelve cuántos jobs quedaron registrados.
func (s *Scheduler) Jobs() int {
	return s.jobs
}

// RunSweep marca MISSED las dosis vencidas de todos los usuarios.
func (s *Scheduler) RunSweep(ctx context.Context) (int, error) {
	return s.sweeper.DetectAndMarkMissed(ctx, "", 0)
}

// RunRefresh extiende la ventana móvil de todos los protocolos activos.
func (s *Scheduler) RunRefresh(ctx context.Context) (int, error) {
	return s.refresher.RefreshSchedules(ctx, "")
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.Start()
	s.log.Info("scheduler started", map[string]any{"jobs": s.jobs})
}

// Stop espera a que terminen los jobs en curso o a que venza ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.c.Stop().Done():
	case <-ctx.Done():
	}
	s.log.Info("scheduler stopped", nil)
}
