package sqlite

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

func (r *DosesRepo) InsertIgnoringConflicts(ctx context.Context, ds []doses.Dose) (int, error) {
	if len(ds) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO scheduled_doses(`+doseColumns+`) VALUES(?,?,?,?,?,?,?)
		 ON CONFLICT DO NOTHING`,
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, d := range ds {
		res, err := stmt.ExecContext(ctx,
			d.ID, d.ProtocolItemID, d.OwnerID, toMillis(d.ScheduledAt), string(d.Status),
			nullMillis(d.DoneAt), toMillis(d.CreatedAt),
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
	d, err := scanDose(r.db.QueryRowContext(ctx, `SELECT `+doseColumns+` FROM scheduled_doses WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return doses.Dose{}, doses.ErrNotFound
	}
	return d, err
}

func (r *DosesRepo) UpdateStatusIfDue(ctx context.Context, id string, status schedule.Status, doneAt *time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE scheduled_doses SET status = ?, done_at = ? WHERE id = ? AND status = 'DUE'`,
		string(status), nullMillis(doneAt), id,
	)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return true, nil
	}

	var exists int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scheduled_doses WHERE id = ?`, id).Scan(&exists); err != nil {
		return false, err
	}
	if exists == 0 {
		return false, doses.ErrNotFound
	}
	return false, nil
}

func (r *DosesRepo) MarkMissedBefore(ctx context.Context, ownerID string, cutoff time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE scheduled_doses SET status = 'MISSED'
		 WHERE status = 'DUE' AND scheduled_at < ?1 AND (?2 = '' OR owner_id = ?2)`,
		toMillis(cutoff), ownerID,
	)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (r *DosesRepo) List(ctx context.Context, f doses.ListFilter) ([]doses.Dose, error) {
	return r.queryDoses(ctx,
		`SELECT `+doseColumns+` FROM scheduled_doses
		 WHERE owner_id = ?1 AND scheduled_at >= ?2 AND scheduled_at < ?3 AND (?4 = '' OR status = ?4)
		 ORDER BY scheduled_at ASC, protocol_item_id ASC`,
		f.OwnerID, toMillis(f.From), toMillis(f.To), string(f.Status),
	)
}

func (r *DosesRepo) ListBefore(ctx context.Context, ownerID string, before time.Time, limit int) ([]doses.Dose, error) {
	return r.queryDoses(ctx,
		`SELECT `+doseColumns+` FROM scheduled_doses
		 WHERE owner_id = ? AND scheduled_at < ?
		 ORDER BY scheduled_at DESC, protocol_item_id ASC
		 LIMIT ?`,
		ownerID, toMillis(before), limit,
	)
}

func (r *DosesRepo) DeleteByItem(ctx context.Context, itemID string, onlyDue bool) (int, error) {
	query := `DELETE FROM scheduled_doses WHERE protocol_item_id = ?`
	if onlyDue {
		query += ` AND status = 'DUE'`
	}
	res, err := r.db.ExecContext(ctx, query, itemID)
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
		d                 doses.Dose
		status            string
		scheduled, create int64
		doneAt            sql.NullInt64
	)
	if err := row.Scan(&d.ID, &d.ProtocolItemID, &d.OwnerID, &scheduled, &status, &doneAt, &create); err != nil {
		return doses.Dose{}, err
	}
	d.ScheduledAt = fromMillis(scheduled)
	d.Status = schedule.Status(status)
	d.DoneAt = timePtr(doneAt)
	d.CreatedAt = fromMillis(create)
	return d, nil
}
