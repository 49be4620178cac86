package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"peptide-tracker/internal/domain/protocols"
	"peptide-tracker/internal/domain/schedule"
)

type ProtocolsRepo struct {
	db *sql.DB
}

func NewProtocolsRepo(db *sql.DB) *ProtocolsRepo {
	return &ProtocolsRepo{db: db}
}

const protocolColumns = `id, owner_id, name, start_date, end_date, timezone, is_active, created_at, updated_at`

const itemColumns = `id, protocol_id, substance_id, dose_value, frequency, interval_days,
	days_of_week, time_of_day, site_plan_enabled, created_at, updated_at`

func (r *ProtocolsRepo) Create(ctx context.Context, p protocols.Protocol) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO protocols (`+protocolColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		p.ID,
		p.OwnerID,
		p.Name,
		p.StartDate,
		nullString(p.EndDate),
		p.Timezone,
		p.IsActive,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func (r *ProtocolsRepo) Update(ctx context.Context, p protocols.Protocol) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE protocols
		SET
			name = $2,
			start_date = $3,
			end_date = $4,
			timezone = $5,
			is_active = $6,
			updated_at = $7
		WHERE id = $1
	`,
		p.ID,
		p.Name,
		p.StartDate,
		nullString(p.EndDate),
		p.Timezone,
		p.IsActive,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return protocols.ErrNotFound
	}
	return nil
}

func (r *ProtocolsRepo) GetByID(ctx context.Context, id string) (protocols.Protocol, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return protocols.Protocol{}, protocols.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+protocolColumns+` FROM protocols WHERE id = $1`, id)
	p, err := scanProtocol(row)
	if errors.Is(err, sql.ErrNoRows) {
		return protocols.Protocol{}, protocols.ErrNotFound
	}
	return p, err
}

func (r *ProtocolsRepo) ListByOwner(ctx context.Context, ownerID string) ([]protocols.Protocol, error) {
	return r.queryProtocols(ctx, `
		SELECT `+protocolColumns+`
		FROM protocols
		WHERE owner_id = $1
		ORDER BY created_at ASC
	`, ownerID)
}

func (r *ProtocolsRepo) ListActive(ctx context.Context, ownerID string) ([]protocols.Protocol, error) {
	return r.queryProtocols(ctx, `
		SELECT `+protocolColumns+`
		FROM protocols
		WHERE is_active AND ($1 = '' OR owner_id = $1)
		ORDER BY created_at ASC
	`, ownerID)
}

func (r *ProtocolsRepo) queryProtocols(ctx context.Context, query string, args ...any) ([]protocols.Protocol, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]protocols.Protocol, 0)
	for rows.Next() {
		p, err := scanProtocol(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Delete borra el protocolo; items y dosis caen por ON DELETE CASCADE.
func (r *ProtocolsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM protocols WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return protocols.ErrNotFound
	}
	return nil
}

func (r *ProtocolsRepo) CreateItem(ctx context.Context, it protocols.Item) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO protocol_items (`+itemColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		it.ID,
		it.ProtocolID,
		it.SubstanceID,
		it.DoseValue,
		string(it.Frequency),
		nullInt(it.IntervalDays),
		encodeDays(it.DaysOfWeek),
		it.TimeOfDay,
		it.SitePlanEnabled,
		it.CreatedAt,
		it.UpdatedAt,
	)
	return err
}

func (r *ProtocolsRepo) UpdateItem(ctx context.Context, it protocols.Item) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE protocol_items
		SET
			substance_id = $2,
			dose_value = $3,
			frequency = $4,
			interval_days = $5,
			days_of_week = $6,
			time_of_day = $7,
			site_plan_enabled = $8,
			updated_at = $9
		WHERE id = $1
	`,
		it.ID,
		it.SubstanceID,
		it.DoseValue,
		string(it.Frequency),
		nullInt(it.IntervalDays),
		encodeDays(it.DaysOfWeek),
		it.TimeOfDay,
		it.SitePlanEnabled,
		it.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return protocols.ErrItemNotFound
	}
	return nil
}

func (r *ProtocolsRepo) GetItem(ctx context.Context, id string) (protocols.Item, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM protocol_items WHERE id = $1`, id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return protocols.Item{}, protocols.ErrItemNotFound
	}
	return it, err
}

func (r *ProtocolsRepo) ListItems(ctx context.Context, protocolID string) ([]protocols.Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM protocol_items
		WHERE protocol_id = $1
		ORDER BY created_at ASC
	`, protocolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]protocols.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *ProtocolsRepo) DeleteItem(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM protocol_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return protocols.ErrItemNotFound
	}
	return nil
}

func (r *ProtocolsRepo) CountItemsBySubstance(ctx context.Context, substanceID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM protocol_items WHERE substance_id = $1`, substanceID,
	).Scan(&n)
	return n, err
}

func scanProtocol(row rowScanner) (protocols.Protocol, error) {
	var (
		p     protocols.Protocol
		start time.Time
		end   sql.NullTime
	)
	if err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Name,
		&start,
		&end,
		&p.Timezone,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return protocols.Protocol{}, err
	}

	// start_date/end_date son DATE: pgx los entrega como medianoche UTC
	p.StartDate = schedule.FormatDate(start)
	if end.Valid {
		e := schedule.FormatDate(end.Time)
		p.EndDate = &e
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

func scanItem(row rowScanner) (protocols.Item, error) {
	var (
		it       protocols.Item
		freq     string
		interval sql.NullInt64
		days     string
	)
	if err := row.Scan(
		&it.ID,
		&it.ProtocolID,
		&it.SubstanceID,
		&it.DoseValue,
		&freq,
		&interval,
		&days,
		&it.TimeOfDay,
		&it.SitePlanEnabled,
		&it.CreatedAt,
		&it.UpdatedAt,
	); err != nil {
		return protocols.Item{}, err
	}

	it.Frequency = schedule.Frequency(freq)
	if interval.Valid {
		n := int(interval.Int64)
		it.IntervalDays = &n
	}
	it.DaysOfWeek = decodeDays(days)
	it.CreatedAt = it.CreatedAt.UTC()
	it.UpdatedAt = it.UpdatedAt.UTC()
	return it, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}
