package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"peptide-tracker/internal/domain/substances"
)

type substanceRepo struct {
	mu   sync.RWMutex
	byID map[string]substances.Substance
}

func NewSubstanceRepo() substances.Repository {
	return &substanceRepo{
		byID: make(map[string]substances.Substance),
	}
}

func (r *substanceRepo) Create(ctx context.Context, s substances.Substance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(s.ID) == "" {
		return errors.New("substance id required")
	}
	if _, exists := r.byID[s.ID]; exists {
		return errors.New("substance already exists")
	}
	r.byID[s.ID] = s
	return nil
}

func (r *substanceRepo) Update(ctx context.Context, s substances.Substance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[s.ID]; !exists {
		return substances.ErrNotFound
	}
	r.byID[s.ID] = s
	return nil
}

func (r *substanceRepo) GetByID(ctx context.Context, id string) (substances.Substance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return substances.Substance{}, substances.ErrNotFound
	}
	return s, nil
}

func (r *substanceRepo) ListByOwner(ctx context.Context, ownerID string) ([]substances.Substance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]substances.Substance, 0)
	for _, s := range r.byID {
		if s.OwnerID == ownerID {
			out = append(out, s)
		}
	}

	// Mismo orden que postgres: por nombre
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *substanceRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return substances.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}
