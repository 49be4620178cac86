package memory

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
	"sync"

	"peptide-tracker/internal/domain/protocols"
)

type protocolRepo struct {
	mu        sync.RWMutex
	byID      map[string]protocols.Protocol
	itemsByID map[string]protocols.Item
}

func NewProtocolRepo() protocols.Repository {
	return &protocolRepo{
		byID:      make(map[string]protocols.Protocol),
		itemsByID: make(map[string]protocols.Item),
	}
}

func (r *protocolRepo) Create(ctx context.Context, p protocols.Protocol) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("protocol id required")
	}
	if _, exists := r.byID[p.ID]; exists {
		return errors.New("protocol already exists")
	}
	r.byID[p.ID] = p
	return nil
}

func (r *protocolRepo) Update(ctx context.Context, p protocols.Protocol) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[p.ID]; !exists {
		return protocols.ErrNotFound
	}
	r.byID[p.ID] = p
	return nil
}

func (r *protocolRepo) GetByID(ctx context.Context, id string) (protocols.Protocol, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return protocols.Protocol{}, protocols.ErrNotFound
	}
	return p, nil
}

func (r *protocolRepo) ListByOwner(ctx context.Context, ownerID string) ([]protocols.Protocol, error) {
	return r.list(func(p protocols.Protocol) bool { return p.OwnerID == ownerID }), nil
}

func (r *protocolRepo) ListActive(ctx context.Context, ownerID string) ([]protocols.Protocol, error) {
	return r.list(func(p protocols.Protocol) bool {
		return p.IsActive && (ownerID == "" || p.OwnerID == ownerID)
	}), nil
}

func (r *protocolRepo) list(keep func(protocols.Protocol) bool) []protocols.Protocol {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]protocols.Protocol, 0)
	for _, p := range r.byID {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Delete borra el protocolo y sus items; las dosis las limpia el servicio.
func (r *protocolRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return protocols.ErrNotFound
	}
	delete(r.byID, id)
	for itemID, it := range r.itemsByID {
		if it.ProtocolID == id {
			delete(r.itemsByID, itemID)
		}
	}
	return nil
}

func (r *protocolRepo) CreateItem(ctx context.Context, it protocols.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(it.ID) == "" {
		return errors.New("item id required")
	}
	if _, ok := r.byID[it.ProtocolID]; !ok {
		return protocols.ErrNotFound
	}
	if _, exists := r.itemsByID[it.ID]; exists {
		return errors.New("item already exists")
	}
	r.itemsByID[it.ID] = cloneItem(it)
	return nil
}

func (r *protocolRepo) UpdateItem(ctx context.Context, it protocols.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.itemsByID[it.ID]; !exists {
		return protocols.ErrItemNotFound
	}
	r.itemsByID[it.ID] = cloneItem(it)
	return nil
}

func (r *protocolRepo) GetItem(ctx context.Context, id string) (protocols.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	it, ok := r.itemsByID[id]
	if !ok {
		return protocols.Item{}, protocols.ErrItemNotFound
	}
	return cloneItem(it), nil
}

func (r *protocolRepo) ListItems(ctx context.Context, protocolID string) ([]protocols.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]protocols.Item, 0)
	for _, it := range r.itemsByID {
		if it.ProtocolID == protocolID {
			out = append(out, cloneItem(it))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *protocolRepo) DeleteItem(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.itemsByID[id]; !exists {
		return protocols.ErrItemNotFound
	}
	delete(r.itemsByID, id)
	return nil
}

func (r *protocolRepo) CountItemsBySubstance(ctx context.Context, substanceID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, it := range r.itemsByID {
		if it.SubstanceID == substanceID {
			n++
		}
	}
	return n, nil
}

// cloneItem evita compartir los slices/punteros con el llamador.
func cloneItem(it protocols.Item) protocols.Item {
	it.DaysOfWeek = slices.Clone(it.DaysOfWeek)
	if it.IntervalDays != nil {
		n := *it.IntervalDays
		it.IntervalDays = &n
	}
	return it
}
