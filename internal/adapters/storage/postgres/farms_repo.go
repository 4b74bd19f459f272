package postgres

import (
	"context"
	"database/sql"
	"strings"

	"finca-manager/internal/domain/farms"
)

type FarmsRepo struct {
	db *sql.DB
}

func NewFarmsRepo(db *sql.DB) *FarmsRepo {
	return &FarmsRepo{db: db}
}

const farmCols = `
	id, name, location,
	latitude, longitude, area_ha,
	owner_user_id, contact_info,
	created_at, updated_at`

func (r *FarmsRepo) Create(ctx context.Context, f farms.Farm) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO farms (
			id, name, location,
			latitude, longitude, area_ha,
			owner_user_id, contact_info,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		f.ID,
		f.Name,
		f.Location,
		toNullFloat(f.Latitude),
		toNullFloat(f.Longitude),
		toNullFloat(f.AreaHa),
		f.OwnerUserID,
		f.ContactInfo,
		f.CreatedAt,
		f.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return farms.ErrAlreadyExists
	}
	return err
}

func (r *FarmsRepo) GetByID(ctx context.Context, id string) (farms.Farm, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return farms.Farm{}, farms.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT`+farmCols+` FROM farms WHERE id = $1`, id)
	f, err := scanFarm(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return farms.Farm{}, farms.ErrNotFound
		}
		return farms.Farm{}, err
	}
	return f, nil
}

func (r *FarmsRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]farms.Farm, error) {
	return r.list(ctx, `SELECT`+farmCols+` FROM farms WHERE owner_user_id = $1 ORDER BY created_at ASC`, ownerUserID)
}

func (r *FarmsRepo) ListByIDs(ctx context.Context, ids []string) ([]farms.Farm, error) {
	if len(ids) == 0 {
		return []farms.Farm{}, nil
	}
	return r.list(ctx, `SELECT`+farmCols+` FROM farms WHERE id = ANY($1) ORDER BY created_at ASC`, ids)
}

func (r *FarmsRepo) IDsByOwner(ctx context.Context, ownerUserID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM farms WHERE owner_user_id = $1 ORDER BY id ASC
	`, ownerUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *FarmsRepo) Update(ctx context.Context, f farms.Farm) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE farms
		SET
			name = $2,
			location = $3,
			latitude = $4,
			longitude = $5,
			area_ha = $6,
			contact_info = $7,
			updated_at = $8
		WHERE id = $1
	`,
		f.ID,
		f.Name,
		f.Location,
		toNullFloat(f.Latitude),
		toNullFloat(f.Longitude),
		toNullFloat(f.AreaHa),
		f.ContactInfo,
		f.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return farms.ErrNotFound
	}
	return nil
}

func (r *FarmsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM farms WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return farms.ErrNotFound
	}
	return nil
}

func (r *FarmsRepo) list(ctx context.Context, query string, arg any) ([]farms.Farm, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]farms.Farm, 0)
	for rows.Next() {
		f, err := scanFarm(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFarm(row rowScanner) (farms.Farm, error) {
	var f farms.Farm
	var lat, lng, area sql.NullFloat64
	if err := row.Scan(
		&f.ID,
		&f.Name,
		&f.Location,
		&lat,
		&lng,
		&area,
		&f.OwnerUserID,
		&f.ContactInfo,
		&f.CreatedAt,
		&f.UpdatedAt,
	); err != nil {
		return farms.Farm{}, err
	}
	f.Latitude = fromNullFloat(lat)
	f.Longitude = fromNullFloat(lng)
	f.AreaHa = fromNullFloat(area)
	return f, nil
}
