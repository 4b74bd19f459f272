package postgres

import (
	"context"
	"database/sql"
	"strings"

	"finca-manager/internal/domain/farmaccess"
)

type FarmAccessRepo struct {
	db *sql.DB
}

func NewFarmAccessRepo(db *sql.DB) *FarmAccessRepo {
	return &FarmAccessRepo{db: db}
}

const grantCols = `
	user_id, farm_id, level, assigned_by_user_id,
	assigned_at, expires_at, revoked_at`

func (r *FarmAccessRepo) Create(ctx context.Context, g farmaccess.Grant) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_farm_access (
			user_id, farm_id, level, assigned_by_user_id,
			assigned_at, expires_at, revoked_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		g.UserID,
		g.FarmID,
		string(g.Level),
		g.AssignedByUserID,
		g.AssignedAt,
		toNullTime(g.ExpiresAt),
		toNullTime(g.RevokedAt),
	)
	if isUniqueViolation(err) {
		return farmaccess.ErrAlreadyExists
	}
	return err
}

func (r *FarmAccessRepo) Get(ctx context.Context, userID, farmID string) (farmaccess.Grant, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(farmID) == "" {
		return farmaccess.Grant{}, farmaccess.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT`+grantCols+`
		FROM user_farm_access
		WHERE user_id = $1 AND farm_id = $2
	`, userID, farmID)

	g, err := scanGrant(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return farmaccess.Grant{}, farmaccess.ErrNotFound
		}
		return farmaccess.Grant{}, err
	}
	return g, nil
}

func (r *FarmAccessRepo) Update(ctx context.Context, g farmaccess.Grant) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE user_farm_access
		SET
			level = $3,
			assigned_by_user_id = $4,
			assigned_at = $5,
			expires_at = $6,
			revoked_at = $7
		WHERE user_id = $1 AND farm_id = $2
	`,
		g.UserID,
		g.FarmID,
		string(g.Level),
		g.AssignedByUserID,
		g.AssignedAt,
		toNullTime(g.ExpiresAt),
		toNullTime(g.RevokedAt),
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return farmaccess.ErrNotFound
	}
	return nil
}

func (r *FarmAccessRepo) Delete(ctx context.Context, userID, farmID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM user_farm_access WHERE user_id = $1 AND farm_id = $2
	`, userID, farmID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return farmaccess.ErrNotFound
	}
	return nil
}

func (r *FarmAccessRepo) DeleteByFarm(ctx context.Context, farmID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM user_farm_access WHERE farm_id = $1`, farmID)
	return err
}

func (r *FarmAccessRepo) ListByUser(ctx context.Context, userID string) ([]farmaccess.Grant, error) {
	return r.list(ctx, `SELECT`+grantCols+` FROM user_farm_access WHERE user_id = $1 ORDER BY assigned_at ASC`, userID)
}

func (r *FarmAccessRepo) ListByFarm(ctx context.Context, farmID string) ([]farmaccess.Grant, error) {
	return r.list(ctx, `SELECT`+grantCols+` FROM user_farm_access WHERE farm_id = $1 ORDER BY assigned_at ASC`, farmID)
}

func (r *FarmAccessRepo) list(ctx context.Context, query string, arg any) ([]farmaccess.Grant, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]farmaccess.Grant, 0)
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func scanGrant(row rowScanner) (farmaccess.Grant, error) {
	var g farmaccess.Grant
	var level string
	var expires, revoked sql.NullTime
	if err := row.Scan(
		&g.UserID,
		&g.FarmID,
		&level,
		&g.AssignedByUserID,
		&g.AssignedAt,
		&expires,
		&revoked,
	); err != nil {
		return farmaccess.Grant{}, err
	}
	g.Level = farmaccess.Level(level)
	g.ExpiresAt = fromNullTime(expires)
	g.RevokedAt = fromNullTime(revoked)
	return g, nil
}
