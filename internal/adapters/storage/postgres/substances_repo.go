package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"peptide-tracker/internal/domain/substances"
)

type SubstancesRepo struct {
	db *sql.DB
}

func NewSubstancesRepo(db *sql.DB) *SubstancesRepo {
	return &SubstancesRepo{db: db}
}

const substanceColumns = `id, owner_id, name, unit, route, notes, created_at, updated_at`

func (r *SubstancesRepo) Create(ctx context.Context, s substances.Substance) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO substances (`+substanceColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		s.ID,
		s.OwnerID,
		s.Name,
		s.Unit,
		s.Route,
		s.Notes,
		s.CreatedAt,
		s.UpdatedAt,
	)
	return err
}

func (r *SubstancesRepo) Update(ctx context.Context, s substances.Substance) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE substances
		SET
			name = $2,
			unit = $3,
			route = $4,
			notes = $5,
			updated_at = $6
		WHERE id = $1
	`,
		s.ID,
		s.Name,
		s.Unit,
		s.Route,
		s.Notes,
		s.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return substances.ErrNotFound
	}
	return nil
}

func (r *SubstancesRepo) GetByID(ctx context.Context, id string) (substances.Substance, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return substances.Substance{}, substances.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+substanceColumns+` FROM substances WHERE id = $1`, id)
	s, err := scanSubstance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return substances.Substance{}, substances.ErrNotFound
	}
	return s, err
}

func (r *SubstancesRepo) ListByOwner(ctx context.Context, ownerID string) ([]substances.Substance, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+substanceColumns+`
		FROM substances
		WHERE owner_id = $1
		ORDER BY name ASC, created_at ASC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]substances.Substance, 0)
	for rows.Next() {
		s, err := scanSubstance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SubstancesRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM substances WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return substances.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubstance(row rowScanner) (substances.Substance, error) {
	var s substances.Substance
	err := row.Scan(
		&s.ID,
		&s.OwnerID,
		&s.Name,
		&s.Unit,
		&s.Route,
		&s.Notes,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, err
}
