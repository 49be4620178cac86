package sqlite

import (
	"context"
	"database/sql"
	"errors"

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
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO protocols(`+protocolColumns+`) VALUES(?,?,?,?,?,?,?,?,?)`,
		p.ID, p.OwnerID, p.Name, p.StartDate, nullString(p.EndDate), p.Timezone, p.IsActive,
		toMillis(p.CreatedAt), toMillis(p.UpdatedAt),
	)
	return err
}

func (r *ProtocolsRepo) Update(ctx context.Context, p protocols.Protocol) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE protocols
		 SET name=?, start_date=?, end_date=?, timezone=?, is_active=?, updated_at=?
		 WHERE id=?`,
		p.Name, p.StartDate, nullString(p.EndDate), p.Timezone, p.IsActive, toMillis(p.UpdatedAt), p.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return protocols.ErrNotFound
	}
	return nil
}

func (r *ProtocolsRepo) GetByID(ctx context.Context, id string) (protocols.Protocol, error) {
	p, err := scanProtocol(r.db.QueryRowContext(ctx, `SELECT `+protocolColumns+` FROM protocols WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return protocols.Protocol{}, protocols.ErrNotFound
	}
	return p, err
}

func (r *ProtocolsRepo) ListByOwner(ctx context.Context, ownerID string) ([]protocols.Protocol, error) {
	return r.queryProtocols(ctx,
		`SELECT `+protocolColumns+` FROM protocols WHERE owner_id = ? ORDER BY created_at ASC`,
		ownerID,
	)
}

func (r *ProtocolsRepo) ListActive(ctx context.Context, ownerID string) ([]protocols.Protocol, error) {
	return r.queryProtocols(ctx,
		`SELECT `+protocolColumns+` FROM protocols
		 WHERE is_active = 1 AND (?1 = '' OR owner_id = ?1)
		 ORDER BY created_at ASC`,
		ownerID,
	)
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
	res, err := r.db.ExecContext(ctx, `DELETE FROM protocols WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return protocols.ErrNotFound
	}
	return nil
}

func (r *ProtocolsRepo) CreateItem(ctx context.Context, it protocols.Item) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO protocol_items(`+itemColumns+`) VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		it.ID, it.ProtocolID, it.SubstanceID, it.DoseValue, string(it.Frequency),
		nullInt(it.IntervalDays), encodeDays(it.DaysOfWeek), it.TimeOfDay, it.SitePlanEnabled,
		toMillis(it.CreatedAt), toMillis(it.UpdatedAt),
	)
	return err
}

func (r *ProtocolsRepo) UpdateItem(ctx context.Context, it protocols.Item) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE protocol_items
		 SET substance_id=?, dose_value=?, frequency=?, interval_days=?, days_of_week=?,
		     time_of_day=?, site_plan_enabled=?, updated_at=?
		 WHERE id=?`,
		it.SubstanceID, it.DoseValue, string(it.Frequency), nullInt(it.IntervalDays),
		encodeDays(it.DaysOfWeek), it.TimeOfDay, it.SitePlanEnabled, toMillis(it.UpdatedAt), it.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return protocols.ErrItemNotFound
	}
	return nil
}

func (r *ProtocolsRepo) GetItem(ctx context.Context, id string) (protocols.Item, error) {
	it, err := scanItem(r.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM protocol_items WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return protocols.Item{}, protocols.ErrItemNotFound
	}
	return it, err
}

func (r *ProtocolsRepo) ListItems(ctx context.Context, protocolID string) ([]protocols.Item, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM protocol_items WHERE protocol_id = ? ORDER BY created_at ASC`,
		protocolID,
	)
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
	res, err := r.db.ExecContext(ctx, `DELETE FROM protocol_items WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return protocols.ErrItemNotFound
	}
	return nil
}

func (r *ProtocolsRepo) CountItemsBySubstance(ctx context.Context, substanceID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM protocol_items WHERE substance_id = ?`, substanceID).Scan(&n)
	return n, err
}

func scanProtocol(row rowScanner) (protocols.Protocol, error) {
	var (
		p                protocols.Protocol
		end              sql.NullString
		created, updated int64
	)
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.StartDate, &end, &p.Timezone, &p.IsActive, &created, &updated); err != nil {
		return protocols.Protocol{}, err
	}
	if end.Valid {
		e := end.String
		p.EndDate = &e
	}
	p.CreatedAt = fromMillis(created)
	p.UpdatedAt = fromMillis(updated)
	return p, nil
}

func scanItem(row rowScanner) (protocols.Item, error) {
	var (
		it               protocols.Item
		freq, days       string
		interval         sql.NullInt64
		created, updated int64
	)
	if err := row.Scan(
		&it.ID, &it.ProtocolID, &it.SubstanceID, &it.DoseValue, &freq, &interval,
		&days, &it.TimeOfDay, &it.SitePlanEnabled, &created, &updated,
	); err != nil {
		return protocols.Item{}, err
	}
	it.Frequency = schedule.Frequency(freq)
	it.IntervalDays = intPtr(interval)
	it.DaysOfWeek = decodeDays(days)
	it.CreatedAt = fromMillis(created)
	it.UpdatedAt = fromMillis(updated)
	return it, nil
}
