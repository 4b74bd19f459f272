package postgres

import (
	"context"
	"database/sql"
	"strings"

	"finca-manager/internal/domain/lots"
)

type LotsRepo struct {
	db *sql.DB
}

func NewLotsRepo(db *sql.DB) *LotsRepo {
	return &LotsRepo{db: db}
}

func (r *LotsRepo) Create(ctx context.Context, l lots.Lot) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO lots (
			id, farm_id, name, description,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6)
	`,
		l.ID,
		l.FarmID,
		l.Name,
		l.Description,
		l.CreatedAt,
		l.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return lots.ErrAlreadyExists
	}
	return err
}

func (r *LotsRepo) GetByID(ctx context.Context, id string) (lots.Lot, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return lots.Lot{}, lots.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, farm_id, name, description, created_at, updated_at
		FROM lots
		WHERE id = $1
	`, id)

	var l lots.Lot
	if err := row.Scan(&l.ID, &l.FarmID, &l.Name, &l.Description, &l.CreatedAt, &l.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return lots.Lot{}, lots.ErrNotFound
		}
		return lots.Lot{}, err
	}
	return l, nil
}

func (r *LotsRepo) ListByFarm(ctx context.Context, farmID string) ([]lots.Lot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, farm_id, name, description, created_at, updated_at
		FROM lots
		WHERE farm_id = $1
		ORDER BY created_at ASC
	`, farmID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]lots.Lot, 0)
	for rows.Next() {
		var l lots.Lot
		if err := rows.Scan(&l.ID, &l.FarmID, &l.Name, &l.Description, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *LotsRepo) Update(ctx context.Context, l lots.Lot) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE lots
		SET
			name = $2,
			description = $3,
			updated_at = $4
		WHERE id = $1
	`,
		l.ID,
		l.Name,
		l.Description,
		l.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return lots.ErrAlreadyExists
		}
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return lots.ErrNotFound
	}
	return nil
}

func (r *LotsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM lots WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return lots.ErrNotFound
	}
	return nil
}

func (r *LotsRepo) DeleteByFarm(ctx context.Context, farmID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM lots WHERE farm_id = $1`, farmID)
	return err
}
