package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"peptide-tracker/internal/domain/injections"
	"peptide-tracker/internal/domain/sites"
)

type injectionRepo struct {
	mu     sync.RWMutex
	byID   map[string]injections.Log
	byDose map[string]string
}

func NewInjectionRepo() injections.Repository {
	return &injectionRepo{
		byID:   make(map[string]injections.Log),
		byDose: make(map[string]string),
	}
}

func (r *injectionRepo) Create(ctx context.Context, l injections.Log) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(l.ID) == "" {
		return errors.New("injection log id required")
	}
	if _, exists := r.byDose[l.ScheduledDoseID]; exists {
		return injections.ErrAlreadyLogged
	}
	r.byID[l.ID] = l
	r.byDose[l.ScheduledDoseID] = l.ID
	return nil
}

func (r *injectionRepo) Update(ctx context.Context, l injections.Log) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[l.ID]; !exists {
		return injections.ErrNotFound
	}
	r.byID[l.ID] = l
	return nil
}

func (r *injectionRepo) GetByID(ctx context.Context, id string) (injections.Log, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.byID[id]
	if !ok {
		return injections.Log{}, injections.ErrNotFound
	}
	return l, nil
}

func (r *injectionRepo) GetByDose(ctx context.Context, doseID string) (injections.Log, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byDose[doseID]
	if !ok {
		return injections.Log{}, injections.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *injectionRepo) List(ctx context.Context, ownerID string, limit int) ([]injections.Log, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := r.newestFirst(ownerID)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *injectionRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.byID[id]
	if !ok {
		return injections.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byDose, l.ScheduledDoseID)
	return nil
}

func (r *injectionRepo) RecentSiteUsage(ctx context.Context, ownerID string, limit int) ([]sites.UsageLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]sites.UsageLog, 0)
	for _, l := range r.newestFirst(ownerID) {
		if l.Site == "" {
			continue
		}
		out = append(out, sites.UsageLog{Site: l.Site, ActualTime: l.ActualTime})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// newestFirst asume el lock tomado.
func (r *injectionRepo) newestFirst(ownerID string) []injections.Log {
	out := make([]injections.Log, 0)
	for _, l := range r.byID {
		if l.OwnerID == ownerID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ActualTime.Equal(out[j].ActualTime) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ActualTime.After(out[j].ActualTime)
	})
	return out
}
