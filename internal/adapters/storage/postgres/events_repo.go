package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"

	"finca-manager/internal/domain/events"
	"finca-manager/internal/domain/events/details"
)

type EventsRepo struct {
	db *sql.DB
}

func NewEventsRepo(db *sql.DB) *EventsRepo {
	return &EventsRepo{db: db}
}

// El detalle va en una columna jsonb; el kind dice qué struct
// deserializar. Los animales van en tabla pivote.

func (r *EventsRepo) Create(ctx context.Context, e events.FarmEvent) error {
	detail, err := marshalDetail(e)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO farm_events (
			id, kind, event_date, recorded_by_user_id,
			notes, detail,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		e.ID,
		string(e.Kind),
		e.EventDate,
		e.RecordedByUserID,
		e.Notes,
		detail,
		e.CreatedAt,
		e.UpdatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return events.ErrAlreadyExists
		}
		return err
	}

	if err := insertPivots(ctx, tx, e.ID, e.AnimalIDs); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *EventsRepo) GetByID(ctx context.Context, id string) (events.FarmEvent, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return events.FarmEvent{}, events.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, kind, event_date, recorded_by_user_id, notes, detail, created_at, updated_at
		FROM farm_events
		WHERE id = $1
	`, id)

	e, err := scanEvent(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return events.FarmEvent{}, events.ErrNotFound
		}
		return events.FarmEvent{}, err
	}

	e.AnimalIDs, err = r.animalIDs(ctx, e.ID)
	if err != nil {
		return events.FarmEvent{}, err
	}
	return e, nil
}

func (r *EventsRepo) ListByRecorderOrAnimals(ctx context.Context, userID string, animalIDs []string, f events.ListFilter) ([]events.FarmEvent, error) {
	if animalIDs == nil {
		animalIDs = []string{}
	}

	query := `
		SELECT DISTINCT e.id, e.kind, e.event_date, e.recorded_by_user_id, e.notes, e.detail, e.created_at, e.updated_at
		FROM farm_events e
		LEFT JOIN farm_event_animals p ON p.event_id = e.id
		WHERE (e.recorded_by_user_id = $1 OR p.animal_id = ANY($2))`
	args := []any{userID, animalIDs}

	if f.Kind != "" {
		args = append(args, string(f.Kind))
		query += ` AND e.kind = $3`
	}
	if f.AnimalID != "" {
		args = append(args, f.AnimalID)
		query += ` AND e.id IN (SELECT event_id FROM farm_event_animals WHERE animal_id = $` + strconv.Itoa(len(args)) + `)`
	}
	query += ` ORDER BY e.event_date DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]events.FarmEvent, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		ids, err := r.animalIDs(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].AnimalIDs = ids
	}
	return out, nil
}

func (r *EventsRepo) Update(ctx context.Context, e events.FarmEvent) error {
	detail, err := marshalDetail(e)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE farm_events
		SET
			event_date = $2,
			notes = $3,
			detail = $4,
			updated_at = $5
		WHERE id = $1
	`,
		e.ID,
		e.EventDate,
		e.Notes,
		detail,
		e.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return events.ErrNotFound
	}

	// reemplazo completo de la pivote
	if _, err := tx.ExecContext(ctx, `DELETE FROM farm_event_animals WHERE event_id = $1`, e.ID); err != nil {
		return err
	}
	if err := insertPivots(ctx, tx, e.ID, e.AnimalIDs); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *EventsRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM farm_event_animals WHERE event_id = $1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM farm_events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return events.ErrNotFound
	}
	return tx.Commit()
}

func (r *EventsRepo) DeletePivotsByAnimal(ctx context.Context, animalID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM farm_event_animals WHERE animal_id = $1`, animalID)
	return err
}

func (r *EventsRepo) animalIDs(ctx context.Context, eventID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT animal_id FROM farm_event_animals WHERE event_id = $1 ORDER BY animal_id ASC
	`, eventID)
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

func insertPivots(ctx context.Context, tx *sql.Tx, eventID string, animalIDs []string) error {
	for _, aid := range animalIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO farm_event_animals (event_id, animal_id) VALUES ($1,$2)
		`, eventID, aid); err != nil {
			return err
		}
	}
	return nil
}

func marshalDetail(e events.FarmEvent) ([]byte, error) {
	switch e.Kind {
	case events.KindHealth:
		return json.Marshal(e.Health)
	case events.KindReproductive:
		return json.Marshal(e.Reproductive)
	case events.KindWeighing:
		return json.Marshal(e.Weighing)
	case events.KindFeeding:
		return json.Marshal(e.Feeding)
	case events.KindBatch:
		return json.Marshal(e.Batch)
	}
	return nil, events.ErrInvalidInput
}

func scanEvent(row rowScanner) (events.FarmEvent, error) {
	var e events.FarmEvent
	var kind string
	var detail []byte
	if err := row.Scan(
		&e.ID,
		&kind,
		&e.EventDate,
		&e.RecordedByUserID,
		&e.Notes,
		&detail,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return events.FarmEvent{}, err
	}
	e.Kind = events.Kind(kind)

	switch e.Kind {
	case events.KindHealth:
		e.Health = new(details.Health)
		return e, json.Unmarshal(detail, e.Health)
	case events.KindReproductive:
		e.Reproductive = new(details.Reproductive)
		return e, json.Unmarshal(detail, e.Reproductive)
	case events.KindWeighing:
		e.Weighing = new(details.Weighing)
		return e, json.Unmarshal(detail, e.Weighing)
	case events.KindFeeding:
		e.Feeding = new(details.Feeding)
		return e, json.Unmarshal(detail, e.Feeding)
	case events.KindBatch:
		e.Batch = new(details.Batch)
		return e, json.Unmarshal(detail, e.Batch)
	}
	return e, nil
}
