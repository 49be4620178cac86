package protocols

import "context"

type Repository interface {
	Create(ctx context.Context, p Protocol) error
	Update(ctx context.Context, p Protocol) error
	GetByID(ctx context.Context, id string) (Protocol, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Protocol, error)
	// ListActive con ownerID vacío devuelve los protocolos activos de todos.
	ListActive(ctx context.Context, ownerID string) ([]Protocol, error)
	Delete(ctx context.Context, id string) error

	CreateItem(ctx context.Context, it Item) error
	UpdateItem(ctx context.Context, it Item) error
	GetItem(ctx context.Context, id string) (Item, error)
	// ListItems ordena por created_at ascendente.
	ListItems(ctx context.Context, protocolID string) ([]Item, error)
	DeleteItem(ctx context.Context, id string) error
	CountItemsBySubstance(ctx context.Context, substanceID string) (int, error)
}
