package postgres

import (
	"context"
	"database/sql"
	"time"

	"finca-manager/internal/domain/animals"
)

type AnimalLocationsRepo struct {
	db *sql.DB
}

func NewAnimalLocationsRepo(db *sql.DB) *AnimalLocationsRepo {
	return &AnimalLocationsRepo{db: db}
}

func (r *AnimalLocationsRepo) AppendLocation(ctx context.Context, e animals.LocationEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO animal_locations_history (
			id, animal_id, farm_id, lot_id,
			entry_at, exit_at, reason, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		e.ID,
		e.AnimalID,
		e.FarmID,
		e.LotID,
		e.EntryAt,
		toNullTime(e.ExitAt),
		e.Reason,
		e.CreatedAt,
	)
	return err
}

func (r *AnimalLocationsRepo) CloseOpenLocation(ctx context.Context, animalID string, exitAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE animal_locations_history
		SET exit_at = $2
		WHERE animal_id = $1 AND exit_at IS NULL
	`, animalID, exitAt)
	return err
}

func (r *AnimalLocationsRepo) CloseLocationsByLot(ctx context.Context, lotID string, exitAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE animal_locations_history
		SET exit_at = $2
		WHERE lot_id = $1 AND exit_at IS NULL
	`, lotID, exitAt)
	return err
}

func (r *AnimalLocationsRepo) ListLocations(ctx context.Context, animalID string) ([]animals.LocationEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, animal_id, farm_id, lot_id, entry_at, exit_at, reason, created_at
		FROM animal_locations_history
		WHERE animal_id = $1
		ORDER BY entry_at DESC
	`, animalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]animals.LocationEntry, 0)
	for rows.Next() {
		var e animals.LocationEntry
		var exit sql.NullTime
		if err := rows.Scan(
			&e.ID,
			&e.AnimalID,
			&e.FarmID,
			&e.LotID,
			&e.EntryAt,
			&exit,
			&e.Reason,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		e.ExitAt = fromNullTime(exit)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *AnimalLocationsRepo) DeleteLocationsByAnimal(ctx context.Context, animalID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM animal_locations_history WHERE animal_id = $1`, animalID)
	return err
}
