package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"peptide-tracker/internal/domain/doses"
	"peptide-tracker/internal/domain/schedule"
)

type doseKey struct {
	itemID string
	at     int64
}

type doseRepo struct {
	mu    sync.RWMutex
	byID  map[string]doses.Dose
	byKey map[doseKey]string
}

func NewDoseRepo() doses.Repository {
	return &doseRepo{
		byID:  make(map[string]doses.Dose),
		byKey: make(map[doseKey]string),
	}
}

func keyOf(d doses.Dose) doseKey {
	return doseKey{itemID: d.ProtocolItemID, at: d.ScheduledAt.UTC().UnixNano()}
}

func (r *doseRepo) InsertIgnoringConflicts(ctx context.Context, ds []doses.Dose) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, d := range ds {
		k := keyOf(d)
		if _, exists := r.byKey[k]; exists {
			continue
		}
		if _, exists := r.byID[d.ID]; exists {
			continue
		}
		d.ScheduledAt = d.ScheduledAt.UTC()
		r.byID[d.ID] = d
		r.byKey[k] = d.ID
		n++
	}
	return n, nil
}

func (r *doseRepo) GetByID(ctx context.Context, id string) (doses.Dose, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byID[id]
	if !ok {
		return doses.Dose{}, doses.ErrNotFound
	}
	return d, nil
}

func (r *doseRepo) UpdateStatusIfDue(ctx context.Context, id string, status schedule.Status, doneAt *time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.byID[id]
	if !ok {
		return false, doses.ErrNotFound
	}
	if d.Status != schedule.StatusDue {
		return false, nil
	}
	d.Status = status
	d.DoneAt = doneAt
	r.byID[id] = d
	return true, nil
}

func (r *doseRepo) MarkMissedBefore(ctx context.Context, ownerID string, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, d := range r.byID {
		if ownerID != "" && d.OwnerID != ownerID {
			continue
		}
		if d.Status == schedule.StatusDue && d.ScheduledAt.Before(cutoff) {
			d.Status = schedule.StatusMissed
			r.byID[id] = d
			n++
		}
	}
	return n, nil
}

func (r *doseRepo) List(ctx context.Context, f doses.ListFilter) ([]doses.Dose, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]doses.Dose, 0)
	for _, d := range r.byID {
		if d.OwnerID != f.OwnerID {
			continue
		}
		if d.ScheduledAt.Before(f.From) || !d.ScheduledAt.Before(f.To) {
			continue
		}
		if f.Status != "" && d.Status != f.Status {
			continue
		}
		out = append(out, d)
	}
	sortDoses(out, false)
	return out, nil
}

func (r *doseRepo) ListBefore(ctx context.Context, ownerID string, before time.Time, limit int) ([]doses.Dose, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]doses.Dose, 0)
	for _, d := range r.byID {
		if d.OwnerID == ownerID && d.ScheduledAt.Before(before) {
			out = append(out, d)
		}
	}
	sortDoses(out, true)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *doseRepo) DeleteByItem(ctx context.Context, itemID string, onlyDue bool) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, d := range r.byID {
		if d.ProtocolItemID != itemID {
			continue
		}
		if onlyDue && d.Status != schedule.StatusDue {
			continue
		}
		delete(r.byID, id)
		delete(r.byKey, keyOf(d))
		n++
	}
	return n, nil
}

// sortDoses ordena por scheduled_at y desempata por item para que el orden sea estable.
func sortDoses(ds []doses.Dose, desc bool) {
	sort.Slice(ds, func(i, j int) bool {
		a, b := ds[i], ds[j]
		if !a.ScheduledAt.Equal(b.ScheduledAt) {
			if desc {
				return a.ScheduledAt.After(b.ScheduledAt)
			}
			return a.ScheduledAt.Before(b.ScheduledAt)
		}
		return a.ProtocolItemID < b.ProtocolItemID
	})
}
