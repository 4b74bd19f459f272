package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"finca-manager/internal/domain/animals"
)

type AnimalsRepo struct {
	db *sql.DB
}

func NewAnimalsRepo(db *sql.DB) *AnimalsRepo {
	return &AnimalsRepo{db: db}
}

const animalCols = `
	a.id, a.tag_id, a.name,
	a.species_id, a.breed_id,
	a.sex, a.date_of_birth, a.status, a.origin,
	a.owner_user_id,
	a.mother_animal_id, a.father_animal_id,
	a.description, a.photo_url, a.current_lot_id,
	a.created_at, a.updated_at`

func (r *AnimalsRepo) Create(ctx context.Context, a animals.Animal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO animals (
			id, tag_id, name,
			species_id, breed_id,
			sex, date_of_birth, status, origin,
			owner_user_id,
			mother_animal_id, father_animal_id,
			description, photo_url, current_lot_id,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`,
		a.ID,
		a.TagID,
		a.Name,
		toNullString(a.SpeciesID),
		toNullString(a.BreedID),
		string(a.Sex),
		toNullTime(a.DateOfBirth),
		string(a.Status),
		string(a.Origin),
		a.OwnerUserID,
		toNullString(a.MotherAnimalID),
		toNullString(a.FatherAnimalID),
		a.Description,
		a.PhotoURL,
		toNullString(a.CurrentLotID),
		a.CreatedAt,
		a.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return animals.ErrAlreadyExists
	}
	return err
}

func (r *AnimalsRepo) GetByID(ctx context.Context, id string) (animals.Animal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return animals.Animal{}, animals.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT`+animalCols+` FROM animals a WHERE a.id = $1`, id)
	a, err := scanAnimal(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return animals.Animal{}, animals.ErrNotFound
		}
		return animals.Animal{}, err
	}
	return a, nil
}

func (r *AnimalsRepo) Update(ctx context.Context, a animals.Animal) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE animals
		SET
			name = $2,
			species_id = $3,
			breed_id = $4,
			status = $5,
			description = $6,
			photo_url = $7,
			current_lot_id = $8,
			updated_at = $9
		WHERE id = $1
	`,
		a.ID,
		a.Name,
		toNullString(a.SpeciesID),
		toNullString(a.BreedID),
		string(a.Status),
		a.Description,
		a.PhotoURL,
		toNullString(a.CurrentLotID),
		a.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return animals.ErrNotFound
	}
	return nil
}

func (r *AnimalsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM animals WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return animals.ErrNotFound
	}
	return nil
}

// accesibles: propios, o ubicados en lotes de las fincas dadas.
const accessibleWhere = `
	(a.owner_user_id = $1
	 OR a.current_lot_id IN (SELECT l.id FROM lots l WHERE l.farm_id = ANY($2)))`

func (r *AnimalsRepo) ListAccessible(ctx context.Context, ownerUserID string, farmIDs []string, f animals.ListFilter) ([]animals.Animal, error) {
	if farmIDs == nil {
		farmIDs = []string{}
	}

	query := `SELECT` + animalCols + ` FROM animals a WHERE ` + accessibleWhere
	args := []any{ownerUserID, farmIDs}

	if f.Status != "" {
		args = append(args, string(f.Status))
		query += ` AND a.status = $3`
	}
	if f.LotID != "" {
		args = append(args, f.LotID)
		query += ` AND a.current_lot_id = $` + strconv.Itoa(len(args))
	}
	if f.FarmID != "" {
		args = append(args, f.FarmID)
		query += ` AND a.current_lot_id IN (SELECT l.id FROM lots l WHERE l.farm_id = $` + strconv.Itoa(len(args)) + `)`
	}
	query += ` ORDER BY a.created_at ASC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]animals.Animal, 0)
	for rows.Next() {
		a, err := scanAnimal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AnimalsRepo) IDsAccessible(ctx context.Context, ownerUserID string, farmIDs []string) ([]string, error) {
	if farmIDs == nil {
		farmIDs = []string{}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id FROM animals a WHERE `+accessibleWhere+` ORDER BY a.id ASC
	`, ownerUserID, farmIDs)
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

func (r *AnimalsRepo) ClearLot(ctx context.Context, lotID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE animals SET current_lot_id = NULL WHERE current_lot_id = $1
	`, lotID)
	return err
}

func scanAnimal(row rowScanner) (animals.Animal, error) {
	var a animals.Animal
	var species, breed, mother, father, lot sql.NullString
	var dob sql.NullTime
	var sex, status, origin string
	if err := row.Scan(
		&a.ID,
		&a.TagID,
		&a.Name,
		&species,
		&breed,
		&sex,
		&dob,
		&status,
		&origin,
		&a.OwnerUserID,
		&mother,
		&father,
		&a.Description,
		&a.PhotoURL,
		&lot,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return animals.Animal{}, err
	}
	a.SpeciesID = fromNullString(species)
	a.BreedID = fromNullString(breed)
	a.Sex = animals.Sex(sex)
	a.DateOfBirth = fromNullTime(dob)
	a.Status = animals.Status(status)
	a.Origin = animals.Origin(origin)
	a.MotherAnimalID = fromNullString(mother)
	a.FatherAnimalID = fromNullString(father)
	a.CurrentLotID = fromNullString(lot)
	return a, nil
}
