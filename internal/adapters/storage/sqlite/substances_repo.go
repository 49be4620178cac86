package sqlite

import (
	"context"
	"database/sql"
	"errors"

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
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO substances(`+substanceColumns+`) VALUES(?,?,?,?,?,?,?,?)`,
		s.ID, s.OwnerID, s.Name, s.Unit, s.Route, s.Notes,
		toMillis(s.CreatedAt), toMillis(s.UpdatedAt),
	)
	return err
}

func (r *SubstancesRepo) Update(ctx context.Context, s substances.Substance) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE substances SET name=?, unit=?, route=?, notes=?, updated_at=? WHERE id=?`,
		s.Name, s.Unit, s.Route, s.Notes, toMillis(s.UpdatedAt), s.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return substances.ErrNotFound
	}
	return nil
}

func (r *SubstancesRepo) GetByID(ctx context.Context, id string) (substances.Substance, error) {
	s, err := scanSubstance(r.db.QueryRowContext(ctx, `SELECT `+substanceColumns+` FROM substances WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return substances.Substance{}, substances.ErrNotFound
	}
	return s, err
}

func (r *SubstancesRepo) ListByOwner(ctx context.Context, ownerID string) ([]substances.Substance, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+substanceColumns+` FROM substances WHERE owner_id = ? ORDER BY name ASC, created_at ASC`,
		ownerID,
	)
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
	res, err := r.db.ExecContext(ctx, `DELETE FROM substances WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return substances.ErrNotFound
	}
	return nil
}

func scanSubstance(row rowScanner) (substances.Substance, error) {
	var (
		s                substances.Substance
		created, updated int64
	)
	if err := row.Scan(&s.ID, &s.OwnerID, &s.Name, &s.Unit, &s.Route, &s.Notes, &created, &updated); err != nil {
		return substances.Substance{}, err
	}
	s.CreatedAt = fromMillis(created)
	s.UpdatedAt = fromMillis(updated)
	return s, nil
}
