package postgres

import (
	"context"
	"database/sql"
	"strings"

	"finca-manager/internal/domain/masterdata"
)

type MasterDataRepo struct {
	db *sql.DB
}

func NewMasterDataRepo(db *sql.DB) *MasterDataRepo {
	return &MasterDataRepo{db: db}
}

const itemCols = `
	id, category, name, description,
	parent_id, is_active, created_by_user_id,
	created_at, updated_at`

func (r *MasterDataRepo) Create(ctx context.Context, it masterdata.Item) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO master_data (
			id, category, name, description,
			parent_id, is_active, created_by_user_id,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		it.ID,
		it.Category,
		it.Name,
		it.Description,
		toNullString(it.ParentID),
		it.IsActive,
		toNullString(it.CreatedByUserID),
		it.CreatedAt,
		it.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return masterdata.ErrAlreadyExists
	}
	return err
}

func (r *MasterDataRepo) GetByID(ctx context.Context, id string) (masterdata.Item, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return masterdata.Item{}, masterdata.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT`+itemCols+` FROM master_data WHERE id = $1`, id)
	it, err := scanItem(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return masterdata.Item{}, masterdata.ErrNotFound
		}
		return masterdata.Item{}, err
	}
	return it, nil
}

func (r *MasterDataRepo) List(ctx context.Context, category string) ([]masterdata.Item, error) {
	query := `SELECT` + itemCols + ` FROM master_data`
	args := []any{}
	if category != "" {
		query += ` WHERE category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY category ASC, name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]masterdata.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *MasterDataRepo) Update(ctx context.Context, it masterdata.Item) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE master_data
		SET
			name = $2,
			description = $3,
			parent_id = $4,
			is_active = $5,
			updated_at = $6
		WHERE id = $1
	`,
		it.ID,
		it.Name,
		it.Description,
		toNullString(it.ParentID),
		it.IsActive,
		it.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return masterdata.ErrAlreadyExists
		}
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return masterdata.ErrNotFound
	}
	return nil
}

func (r *MasterDataRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM master_data WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return masterdata.ErrNotFound
	}
	return nil
}

func scanItem(row rowScanner) (masterdata.Item, error) {
	var it masterdata.Item
	var parent, creator sql.NullString
	if err := row.Scan(
		&it.ID,
		&it.Category,
		&it.Name,
		&it.Description,
		&parent,
		&it.IsActive,
		&creator,
		&it.CreatedAt,
		&it.UpdatedAt,
	); err != nil {
		return masterdata.Item{}, err
	}
	it.ParentID = fromNullString(parent)
	it.CreatedByUserID = fromNullString(creator)
	return it, nil
}
