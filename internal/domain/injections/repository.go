package injections

import (
	"context"

	"peptide-tracker/internal/domain/sites"
)

type Repository interface {
	Create(ctx context.Context, l Log) error
	Update(ctx context.Context, l Log) error
	GetByID(ctx context.Context, id string) (Log, error)
	GetByDose(ctx context.Context, doseID string) (Log, error)
	// List ordena por actual_time descendente.
	List(ctx context.Context, ownerID string, limit int) ([]Log, error)
	Delete(ctx context.Context, id string) error

	// RecentSiteUsage devuelve los logs con sitio, más recientes primero.
	RecentSiteUsage(ctx context.Context, ownerID string, limit int) ([]sites.UsageLog, error)
}
