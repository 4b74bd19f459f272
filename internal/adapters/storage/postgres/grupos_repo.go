package postgres

import (
	"context"
	"database/sql"
	"strings"

	"finca-manager/internal/domain/grupos"
)

type GruposRepo struct {
	db *sql.DB
}

func NewGruposRepo(db *sql.DB) *GruposRepo {
	return &GruposRepo{db: db}
}

func (r *GruposRepo) Create(ctx context.Context, g grupos.Grupo) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO animal_groups (
			id, name, description, purpose_id,
			created_by_user_id,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		g.ID,
		g.Name,
		g.Description,
		toNullString(g.PurposeID),
		g.CreatedByUserID,
		g.CreatedAt,
		g.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return grupos.ErrAlreadyExists
	}
	return err
}

func (r *GruposRepo) GetByID(ctx context.Context, id string) (grupos.Grupo, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return grupos.Grupo{}, grupos.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, purpose_id, created_by_user_id, created_at, updated_at
		FROM animal_groups
		WHERE id = $1
	`, id)

	g, err := scanGrupo(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return grupos.Grupo{}, grupos.ErrNotFound
		}
		return grupos.Grupo{}, err
	}
	return g, nil
}

func (r *GruposRepo) ListByCreator(ctx context.Context, userID string) ([]grupos.Grupo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, purpose_id, created_by_user_id, created_at, updated_at
		FROM animal_groups
		WHERE created_by_user_id = $1
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]grupos.Grupo, 0)
	for rows.Next() {
		g, err := scanGrupo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *GruposRepo) Update(ctx context.Context, g grupos.Grupo) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE animal_groups
		SET
			name = $2,
			description = $3,
			purpose_id = $4,
			updated_at = $5
		WHERE id = $1
	`,
		g.ID,
		g.Name,
		g.Description,
		toNullString(g.PurposeID),
		g.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return grupos.ErrAlreadyExists
		}
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return grupos.ErrNotFound
	}
	return nil
}

func (r *GruposRepo) Delete(ctx context.Context, id string) error {
	// las filas de membresía caen por FK ON DELETE CASCADE, pero lo
	// hacemos explícito para no depender del esquema
	if _, err := r.db.ExecContext(ctx, `DELETE FROM animal_group_members WHERE group_id = $1`, id); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM animal_groups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return grupos.ErrNotFound
	}
	return nil
}

func (r *GruposRepo) AddMember(ctx context.Context, m grupos.Member) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO animal_group_members (
			animal_id, group_id, assigned_date, removed_date, notes, created_at
		) VALUES ($1,$2,$3,$4,$5,$6)
	`,
		m.AnimalID,
		m.GrupoID,
		m.AssignedDate,
		toNullTime(m.RemovedDate),
		m.Notes,
		m.CreatedAt,
	)
	if isUniqueViolation(err) {
		return grupos.ErrAlreadyExists
	}
	return err
}

func (r *GruposRepo) RemoveMember(ctx context.Context, animalID, grupoID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM animal_group_members WHERE animal_id = $1 AND group_id = $2
	`, animalID, grupoID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return grupos.ErrNotFound
	}
	return nil
}

func (r *GruposRepo) ListMembers(ctx context.Context, grupoID string) ([]grupos.Member, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT animal_id, group_id, assigned_date, removed_date, notes, created_at
		FROM animal_group_members
		WHERE group_id = $1
		ORDER BY assigned_date ASC, animal_id ASC
	`, grupoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]grupos.Member, 0)
	for rows.Next() {
		var m grupos.Member
		var removed sql.NullTime
		if err := rows.Scan(&m.AnimalID, &m.GrupoID, &m.AssignedDate, &removed, &m.Notes, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.RemovedDate = fromNullTime(removed)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *GruposRepo) DeleteMembersByAnimal(ctx context.Context, animalID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM animal_group_members WHERE animal_id = $1`, animalID)
	return err
}

func scanGrupo(row rowScanner) (grupos.Grupo, error) {
	var g grupos.Grupo
	var purpose sql.NullString
	if err := row.Scan(
		&g.ID,
		&g.Name,
		&g.Description,
		&purpose,
		&g.CreatedByUserID,
		&g.CreatedAt,
		&g.UpdatedAt,
	); err != nil {
		return grupos.Grupo{}, err
	}
	g.PurposeID = fromNullString(purpose)
	return g, nil
}
