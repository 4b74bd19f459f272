package animals

import (
	"context"
	"errors"
	"strings"
	"time"

	"finca-manager/internal/authz"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// LotSource resuelve el lote destino al ubicar un animal.
type LotSource interface {
	LotView(ctx context.Context, lotID string) (authz.Lot, error)
}

// Dependientes a desenganchar cuando se borra un animal. Igual que en
// farms, la cascada es explícita a nivel de servicio.
type CascadeDeps struct {
	DetachFromEvents func(ctx context.Context, animalID string) error
	DetachFromGroups func(ctx context.Context, animalID string) error
}

type Service struct {
	repo      Repository
	locations LocationRepository
	lots      LotSource
	authzr    *authz.Authorizer
	cascade   CascadeDeps
	now       func() time.Time
}

func NewService(repo Repository, locations LocationRepository, lots LotSource, authzr *authz.Authorizer, cascade CascadeDeps) *Service {
	return &Service{
		repo:      repo,
		locations: locations,
		lots:      lots,
		authzr:    authzr,
		cascade:   cascade,
		now:       time.Now,
	}
}

type CreateInput struct {
	TagID          string
	Name           string
	SpeciesID      *string
	BreedID        *string
	Sex            string
	DateOfBirth    *time.Time
	Origin         string
	MotherAnimalID *string
	FatherAnimalID *string
	Description    string
	PhotoURL       string
	CurrentLotID   *string
}

func (s *Service) Create(ctx context.Context, actor authz.User, in CreateInput) (Animal, error) {
	tag := strings.TrimSpace(in.TagID)
	if tag == "" {
		return Animal{}, ErrInvalidInput
	}

	sex := Sex(strings.TrimSpace(in.Sex))
	switch sex {
	case SexMale, SexFemale, SexUnknown:
	case "":
		sex = SexUnknown
	default:
		return Animal{}, ErrInvalidInput
	}

	origin := Origin(strings.TrimSpace(in.Origin))
	switch origin {
	case OriginBorn, OriginPurchase, OriginDonation:
	case "":
		origin = OriginPurchase
	default:
		return Animal{}, ErrInvalidInput
	}

	// Madre/padre: referencias opcionales, pero si vienen deben existir.
	if err := s.checkParent(ctx, in.MotherAnimalID); err != nil {
		return Animal{}, err
	}
	if err := s.checkParent(ctx, in.FatherAnimalID); err != nil {
		return Animal{}, err
	}

	lot, err := s.checkLot(ctx, actor, in.CurrentLotID)
	if err != nil {
		return Animal{}, err
	}
	var lotID *string
	if lot != nil {
		lotID = &lot.ID
	}

	now := s.now()
	a := Animal{
		ID:             uuid.NewString(),
		TagID:          tag,
		Name:           strings.TrimSpace(in.Name),
		SpeciesID:      in.SpeciesID,
		BreedID:        in.BreedID,
		Sex:            sex,
		DateOfBirth:    in.DateOfBirth,
		Status:         StatusActive,
		Origin:         origin,
		OwnerUserID:    actor.ID,
		MotherAnimalID: in.MotherAnimalID,
		FatherAnimalID: in.FatherAnimalID,
		Description:    strings.TrimSpace(in.Description),
		PhotoURL:       strings.TrimSpace(in.PhotoURL),
		CurrentLotID:   lotID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return Animal{}, ErrAlreadyExists
		}
		return Animal{}, err
	}

	if lot != nil {
		if err := s.recordEntry(ctx, a.ID, *lot, "alta", now); err != nil {
			return Animal{}, err
		}
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, actor authz.User, id string) (Animal, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return Animal{}, err
	}
	if err := s.authzr.Animal(ctx, actor, AuthzView(a), authz.OpRead); err != nil {
		return Animal{}, err
	}
	return a, nil
}

// List: propios más los ubicados en fincas accesibles, en una sola
// consulta filtrada (sin resolver animal por animal).
func (s *Service) List(ctx context.Context, actor authz.User, f ListFilter) ([]Animal, error) {
	farmIDs, err := s.authzr.Resolver().AccessibleFarmIDs(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.repo.ListAccessible(ctx, actor.ID, farmIDs, f)
}

// AccessibleIDs la usan los módulos de eventos para armar sus listados.
func (s *Service) AccessibleIDs(ctx context.Context, actor authz.User) ([]string, error) {
	farmIDs, err := s.authzr.Resolver().AccessibleFarmIDs(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.repo.IDsAccessible(ctx, actor.ID, farmIDs)
}

type UpdateInput struct {
	Name        *string
	SpeciesID   *string
	BreedID     *string
	Status      *string
	Description *string
	PhotoURL    *string
}

func (s *Service) Update(ctx context.Context, actor authz.User, id string, in UpdateInput) (Animal, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return Animal{}, err
	}
	if err := s.authzr.Animal(ctx, actor, AuthzView(a), authz.OpWrite); err != nil {
		return Animal{}, err
	}

	if in.Name != nil {
		a.Name = strings.TrimSpace(*in.Name)
	}
	if in.SpeciesID != nil {
		a.SpeciesID = in.SpeciesID
	}
	if in.BreedID != nil {
		a.BreedID = in.BreedID
	}
	if in.Status != nil {
		st := Status(strings.TrimSpace(*in.Status))
		switch st {
		case StatusActive, StatusSold, StatusDead, StatusCulled:
			a.Status = st
		default:
			return Animal{}, ErrInvalidInput
		}
	}
	if in.Description != nil {
		a.Description = strings.TrimSpace(*in.Description)
	}
	if in.PhotoURL != nil {
		a.PhotoURL = strings.TrimSpace(*in.PhotoURL)
	}
	a.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, a); err != nil {
		return Animal{}, err
	}
	return a, nil
}

// MoveToLot reubica el animal (nil = sacarlo de todo lote).
func (s *Service) MoveToLot(ctx context.Context, actor authz.User, id string, lotID *string) (Animal, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return Animal{}, err
	}
	if err := s.authzr.Animal(ctx, actor, AuthzView(a), authz.OpWrite); err != nil {
		return Animal{}, err
	}

	lot, err := s.checkLot(ctx, actor, lotID)
	if err != nil {
		return Animal{}, err
	}

	now := s.now()
	a.CurrentLotID = nil
	if lot != nil {
		a.CurrentLotID = &lot.ID
	}
	a.UpdatedAt = now

	if err := s.repo.Update(ctx, a); err != nil {
		return Animal{}, err
	}

	// historial: cerrar la estadía anterior y abrir la nueva
	if err := s.locations.CloseOpenLocation(ctx, a.ID, now); err != nil {
		return Animal{}, err
	}
	if lot != nil {
		if err := s.recordEntry(ctx, a.ID, *lot, "traslado", now); err != nil {
			return Animal{}, err
		}
	}
	return a, nil
}

// Delete: owner-only. Las filas pivote de eventos/grupos las limpia
// cada módulo dueño (o el FK en postgres).
func (s *Service) Delete(ctx context.Context, actor authz.User, id string) error {
	a, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authzr.Animal(ctx, actor, AuthzView(a), authz.OpDelete); err != nil {
		return err
	}

	if s.cascade.DetachFromEvents != nil {
		if err := s.cascade.DetachFromEvents(ctx, id); err != nil {
			return err
		}
	}
	if s.cascade.DetachFromGroups != nil {
		if err := s.cascade.DetachFromGroups(ctx, id); err != nil {
			return err
		}
	}
	if err := s.locations.DeleteLocationsByAnimal(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// ClearLot desasigna los animales de un lote (cascada de lots.Delete).
func (s *Service) ClearLot(ctx context.Context, lotID string) error {
	if err := s.locations.CloseLocationsByLot(ctx, lotID, s.now()); err != nil {
		return err
	}
	return s.repo.ClearLot(ctx, lotID)
}

func (s *Service) checkParent(ctx context.Context, parentID *string) error {
	if parentID == nil {
		return nil
	}
	if strings.TrimSpace(*parentID) == "" {
		return ErrInvalidInput
	}
	if _, err := s.repo.GetByID(ctx, *parentID); err != nil {
		return ErrNotFound
	}
	return nil
}

// checkLot valida existencia del lote y que el actor pueda usarlo.
// Devuelve nil cuando no se pide lote.
func (s *Service) checkLot(ctx context.Context, actor authz.User, lotID *string) (*authz.Lot, error) {
	if lotID == nil {
		return nil, nil
	}
	id := strings.TrimSpace(*lotID)
	if id == "" {
		return nil, nil
	}

	lot, err := s.lots.LotView(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if err := s.authzr.Lot(ctx, actor, lot, authz.OpRead); err != nil {
		return nil, err
	}
	return &lot, nil
}

// AnimalView expone la vista mínima del animal para otros módulos
// (grupos, eventos). No autoriza: el llamador decide con el Authorizer.
func (s *Service) AnimalView(ctx context.Context, id string) (authz.Animal, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return authz.Animal{}, err
	}
	return AuthzView(a), nil
}

func (s *Service) load(ctx context.Context, id string) (Animal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Animal{}, ErrNotFound
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Animal{}, ErrNotFound
	}
	return a, nil
}

func AuthzView(a Animal) authz.Animal {
	return authz.Animal{ID: a.ID, OwnerUserID: a.OwnerUserID, CurrentLotID: a.CurrentLotID}
}
