package doses

import (
	"context"
	"time"

	"peptide-tracker/internal/domain/schedule"
)

type Repository interface {
	// InsertIgnoringConflicts ignora las dosis cuyo (item, scheduled_at) ya existe
	// y devuelve cuántas se insertaron.
	InsertIgnoringConflicts(ctx context.Context, ds []Dose) (int, error)
	GetByID(ctx context.Context, id string) (Dose, error)

	// UpdateStatusIfDue sólo modifica filas en DUE. changed=false si la fila ya no estaba en DUE.
	UpdateStatusIfDue(ctx context.Context, id string, status schedule.Status, doneAt *time.Time) (changed bool, err error)
	// MarkMissedBefore pasa a MISSED las DUE con scheduled_at < cutoff. ownerID vacío = todos.
	MarkMissedBefore(ctx context.Context, ownerID string, cutoff time.Time) (int, error)

	// List ordena por scheduled_at ascendente.
	List(ctx context.Context, f ListFilter) ([]Dose, error)
	// ListBefore ordena por scheduled_at descendente.
	ListBefore(ctx context.Context, ownerID string, before time.Time, limit int) ([]Dose, error)

	DeleteByItem(ctx context.Context, itemID string, onlyDue bool) (int, error)
}
