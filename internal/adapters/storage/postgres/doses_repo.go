package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"peptide-tracker/internal/domain/doses"
	"peptide-tracker/internal/domain/schedule"
)

type DosesRepo struct {
	db *sql.DB
}

func NewDosesRepo(db *sql.DB) *DosesRepo {
	return &DosesRepo{db: db}
}

const doseColumns = `id, protocol_item_id, owner_id, scheduled_at, status, done_at, created_at`

// InsertIgnoringConflicts inserta en una sola transacción; el UNIQUE
// (protocol_item_id, scheduled_at) descarta los duplicados.
func (r *DosesRepo) InsertIgnoringConflicts(ctx context.Context, ds []doses.Dose) (int, error) {
	if len(ds) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO scheduled_doses (`+doseColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, d := range ds {
		res, err := stmt.ExecContext(ctx,
			d.ID,
			d.ProtocolItemID,
			d.OwnerID,
			d.ScheduledAt.UTC(),
			string(d.Status),
			nullTime(d.DoneAt),
			d.CreatedAt,
		)
		if err != nil {
			return 0, err
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (r *DosesRepo) GetByID(ctx context.Context, id string) (doses.Dose, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+doseColumns+` FROM scheduled_doses WHERE id = $1`, id)
	d, err := scanDose(row)
	if errors.Is(err, sql.ErrNoRows) {
		return doses.Dose{}, doses.ErrNotFound
	}
	return d, err
}

func (r *DosesRepo) UpdateStatusIfDue(ctx context.Context, id string, status schedule.Status, doneAt *time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE scheduled_doses
		SET status = $2, done_at = $3
		WHERE id = $1 AND status = 'DUE'
	`, id, string(status), nullTime(doneAt))
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		return true, nil
	}

	// Distingue "no existe" de "ya no estaba en DUE"
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM scheduled_doses WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, doses.ErrNotFound
	}
	return false, nil
}

func (r *DosesRepo) MarkMissedBefore(ctx context.Context, ownerID string, cutoff time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE scheduled_doses
		SET status = 'MISSED'
		WHERE status = 'DUE'
		  AND scheduled_at < $1
		  AND ($2 = '' OR owner_id = $2)
	`, cutoff.UTC(), ownerID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (r *DosesRepo) List(ctx context.Context, f doses.ListFilter) ([]doses.Dose, error) {
	return r.queryDoses(ctx, `
		SELECT `+doseColumns+`
		FROM scheduled_doses
		WHERE owner_id = $1
		  AND scheduled_at >= $2
		  AND scheduled_at < $3
		  AND ($4 = '' OR status = $4)
		ORDER BY scheduled_at ASC, protocol_item_id ASC
	`, f.OwnerID, f.From.UTC(), f.To.UTC(), string(f.Status))
}

func (r *DosesRepo) ListBefore(ctx context.Context, ownerID string, before time.Time, limit int) ([]doses.Dose, error) {
	return r.queryDoses(ctx, `
		SELECT `+doseColumns+`
		FROM scheduled_doses
		WHERE owner_id = $1
		  AND scheduled_at < $2
		ORDER BY scheduled_at DESC, protocol_item_id ASC
		LIMIT $3
	`, ownerID, before.UTC(), limit)
}

func (r *DosesRepo) DeleteByItem(ctx context.Context, itemID string, onlyDue bool) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM scheduled_doses
		WHERE protocol_item_id = $1
		  AND (NOT $2 OR status = 'DUE')
	`, itemID, onlyDue)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (r *DosesRepo) queryDoses(ctx context.Context, query string, args ...any) ([]doses.Dose, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]doses.Dose, 0)
	for rows.Next() {
		d, err := scanDose(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanDose(row rowScanner) (doses.Dose, error) {
	var (
		d      doses.Dose
		status string
		doneAt sql.NullTime
	)
	if err := row.Scan(
		&d.ID,
		&d.ProtocolItemID,
		&d.OwnerID,
		&d.ScheduledAt,
		&status,
		&doneAt,
		&d.CreatedAt,
	); err != nil {
		return doses.Dose{}, err
	}
	d.ScheduledAt = d.ScheduledAt.UTC()
	d.CreatedAt = d.CreatedAt.UTC()
	d.Status = schedule.Status(status)
	d.DoneAt = timePtr(doneAt)
	return d, nil
}
