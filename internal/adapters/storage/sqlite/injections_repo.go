package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"peptide-tracker/internal/domain/injections"
	"peptide-tracker/internal/domain/sites"
)

type InjectionsRepo struct {
	db *sql.DB
}

func NewInjectionsRepo(db *sql.DB) *InjectionsRepo {
	return &InjectionsRepo{db: db}
}

const logColumns = `id, owner_id, scheduled_dose_id, actual_time, site, pain_score, notes, created_at`

func (r *InjectionsRepo) Create(ctx context.Context, l injections.Log) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO injection_logs(`+logColumns+`) VALUES(?,?,?,?,?,?,?,?)`,
		l.ID, l.OwnerID, l.ScheduledDoseID, toMillis(l.ActualTime), l.Site,
		nullInt(l.PainScore), l.Notes, toMillis(l.CreatedAt),
	)
	if isUniqueViolation(err) {
		return injections.ErrAlreadyLogged
	}
	return err
}

func (r *InjectionsRepo) Update(ctx context.Context, l injections.Log) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE injection_logs SET actual_time=?, site=?, pain_score=?, notes=? WHERE id=?`,
		toMillis(l.ActualTime), l.Site, nullInt(l.PainScore), l.Notes, l.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return injections.ErrNotFound
	}
	return nil
}

func (r *InjectionsRepo) GetByID(ctx context.Context, id string) (injections.Log, error) {
	return r.getOne(ctx, `SELECT `+logColumns+` FROM injection_logs WHERE id = ?`, id)
}

func (r *InjectionsRepo) GetByDose(ctx context.Context, doseID string) (injections.Log, error) {
	return r.getOne(ctx, `SELECT `+logColumns+` FROM injection_logs WHERE scheduled_dose_id = ?`, doseID)
}

func (r *InjectionsRepo) getOne(ctx context.Context, query, arg string) (injections.Log, error) {
	l, err := scanLog(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return injections.Log{}, injections.ErrNotFound
	}
	return l, err
}

func (r *InjectionsRepo) List(ctx context.Context, ownerID string, limit int) ([]injections.Log, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+logColumns+` FROM injection_logs
		 WHERE owner_id = ?
		 ORDER BY actual_time DESC, created_at DESC
		 LIMIT ?`,
		ownerID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]injections.Log, 0)
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *InjectionsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM injection_logs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return injections.ErrNotFound
	}
	return nil
}

func (r *InjectionsRepo) RecentSiteUsage(ctx context.Context, ownerID string, limit int) ([]sites.UsageLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT site, actual_time FROM injection_logs
		 WHERE owner_id = ? AND site <> ''
		 ORDER BY actual_time DESC, created_at DESC
		 LIMIT ?`,
		ownerID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]sites.UsageLog, 0)
	for rows.Next() {
		var (
			u  sites.UsageLog
			ms int64
		)
		if err := rows.Scan(&u.Site, &ms); err != nil {
			return nil, err
		}
		u.ActualTime = fromMillis(ms)
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanLog(row rowScanner) (injections.Log, error) {
	var (
		l               injections.Log
		actual, created int64
		pain            sql.NullInt64
	)
	if err := row.Scan(&l.ID, &l.OwnerID, &l.ScheduledDoseID, &actual, &l.Site, &pain, &l.Notes, &created); err != nil {
		return injections.Log{}, err
	}
	l.ActualTime = fromMillis(actual)
	l.PainScore = intPtr(pain)
	l.CreatedAt = fromMillis(created)
	return l, nil
}
