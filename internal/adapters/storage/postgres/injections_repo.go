package postgres

import (
	"context"
	"database/sql"
	"errors"

	"peptide-tracker/internal/domain/injections"
	"peptide-tracker/internal/domain/sites"

	"github.com/jackc/pgx/v5/pgconn"
)

type InjectionsRepo struct {
	db *sql.DB
}

func NewInjectionsRepo(db *sql.DB) *InjectionsRepo {
	return &InjectionsRepo{db: db}
}

const logColumns = `id, owner_id, scheduled_dose_id, actual_time, site, pain_score, notes, created_at`

// código de postgres para unique_violation
const uniqueViolation = "23505"

func (r *InjectionsRepo) Create(ctx context.Context, l injections.Log) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO injection_logs (`+logColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		l.ID,
		l.OwnerID,
		l.ScheduledDoseID,
		l.ActualTime.UTC(),
		l.Site,
		nullInt(l.PainScore),
		l.Notes,
		l.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return injections.ErrAlreadyLogged
	}
	return err
}

func (r *InjectionsRepo) Update(ctx context.Context, l injections.Log) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE injection_logs
		SET
			actual_time = $2,
			site = $3,
			pain_score = $4,
			notes = $5
		WHERE id = $1
	`,
		l.ID,
		l.ActualTime.UTC(),
		l.Site,
		nullInt(l.PainScore),
		l.Notes,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return injections.ErrNotFound
	}
	return nil
}

func (r *InjectionsRepo) GetByID(ctx context.Context, id string) (injections.Log, error) {
	return r.getOne(ctx, `SELECT `+logColumns+` FROM injection_logs WHERE id = $1`, id)
}

func (r *InjectionsRepo) GetByDose(ctx context.Context, doseID string) (injections.Log, error) {
	return r.getOne(ctx, `SELECT `+logColumns+` FROM injection_logs WHERE scheduled_dose_id = $1`, doseID)
}

func (r *InjectionsRepo) getOne(ctx context.Context, query, arg string) (injections.Log, error) {
	l, err := scanLog(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return injections.Log{}, injections.ErrNotFound
	}
	return l, err
}

func (r *InjectionsRepo) List(ctx context.Context, ownerID string, limit int) ([]injections.Log, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+logColumns+`
		FROM injection_logs
		WHERE owner_id = $1
		ORDER BY actual_time DESC, created_at DESC
		LIMIT $2
	`, ownerID, limit)
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
	res, err := r.db.ExecContext(ctx, `DELETE FROM injection_logs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return injections.ErrNotFound
	}
	return nil
}

func (r *InjectionsRepo) RecentSiteUsage(ctx context.Context, ownerID string, limit int) ([]sites.UsageLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT site, actual_time
		FROM injection_logs
		WHERE owner_id = $1 AND site <> ''
		ORDER BY actual_time DESC, created_at DESC
		LIMIT $2
	`, ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]sites.UsageLog, 0)
	for rows.Next() {
		var u sites.UsageLog
		if err := rows.Scan(&u.Site, &u.ActualTime); err != nil {
			return nil, err
		}
		u.ActualTime = u.ActualTime.UTC()
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanLog(row rowScanner) (injections.Log, error) {
	var (
		l    injections.Log
		pain sql.NullInt64
	)
	if err := row.Scan(
		&l.ID,
		&l.OwnerID,
		&l.ScheduledDoseID,
		&l.ActualTime,
		&l.Site,
		&pain,
		&l.Notes,
		&l.CreatedAt,
	); err != nil {
		return injections.Log{}, err
	}
	if pain.Valid {
		n := int(pain.Int64)
		l.PainScore = &n
	}
	l.ActualTime = l.ActualTime.UTC()
	l.CreatedAt = l.CreatedAt.UTC()
	return l, nil
}
