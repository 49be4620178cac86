package substances

import "context"

type Repository interface {
	Create(ctx context.Context, s Substance) error
	Update(ctx context.Context, s Substance) error
	GetByID(ctx context.Context, id string) (Substance, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Substance, error)
	Delete(ctx context.Context, id string) error
}
