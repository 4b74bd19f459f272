package events

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"finca-manager/internal/authz"
	"finca-manager/internal/domain/events/details"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// AnimalSource resuelve animales para validar el alcance del evento.
type AnimalSource interface {
	AnimalView(ctx context.Context, animalID string) (authz.Animal, error)
	AccessibleIDs(ctx context.Context, actor authz.User) ([]string, error)
}

type Service struct {
	repo    Repository
	animals AnimalSource
	authzr  *authz.Authorizer
	now     func() time.Time
}

func NewService(repo Repository, animals AnimalSource, authzr *authz.Authorizer) *Service {
	return &Service{repo: repo, animals: animals, authzr: authzr, now: time.Now}
}

type CreateInput struct {
	Kind      Kind
	EventDate time.Time
	AnimalIDs []string
	Notes     string

	Health       *details.Health
	Reproductive *details.Reproductive
	Weighing     *details.Weighing
	Feeding      *details.Feeding
	Batch        *details.Batch
}

// Create registra un evento. Todos los animales referenciados deben
// existir y ser accesibles (lectura) para el actor; si uno falla, el
// evento completo se rechaza.
func (s *Service) Create(ctx context.Context, actor authz.User, in CreateInput) (FarmEvent, error) {
	if !in.Kind.Valid() {
		return FarmEvent{}, ErrInvalidInput
	}

	animalIDs := dedupIDs(in.AnimalIDs)
	if len(animalIDs) == 0 {
		return FarmEvent{}, ErrInvalidInput
	}

	now := s.now()
	e := FarmEvent{
		ID:               uuid.NewString(),
		Kind:             in.Kind,
		EventDate:        in.EventDate,
		RecordedByUserID: actor.ID,
		AnimalIDs:        animalIDs,
		Notes:            strings.TrimSpace(in.Notes),
		Health:           in.Health,
		Reproductive:     in.Reproductive,
		Weighing:         in.Weighing,
		Feeding:          in.Feeding,
		Batch:            in.Batch,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if e.EventDate.IsZero() {
		e.EventDate = now
	}
	if err := validateDetail(e); err != nil {
		return FarmEvent{}, err
	}

	if err := s.checkAnimals(ctx, actor, animalIDs); err != nil {
		return FarmEvent{}, err
	}
	if e.Reproductive != nil {
		// Las crías enlazadas también deben existir y ser accesibles.
		if err := s.checkAnimals(ctx, actor, dedupIDs(e.Reproductive.OffspringAnimalID)); err != nil {
			return FarmEvent{}, err
		}
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return FarmEvent{}, err
	}
	return e, nil
}

func (s *Service) Get(ctx context.Context, actor authz.User, id string) (FarmEvent, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return FarmEvent{}, err
	}
	if err := s.authzr.Event(ctx, actor, e.RecordedByUserID, e.AnimalIDs, authz.OpRead); err != nil {
		return FarmEvent{}, err
	}
	return e, nil
}

// List devuelve los eventos registrados por el actor más los que
// toquen animales a los que tiene acceso.
func (s *Service) List(ctx context.Context, actor authz.User, f ListFilter) ([]FarmEvent, error) {
	if f.Kind != "" && !f.Kind.Valid() {
		return nil, ErrInvalidInput
	}
	accessible, err := s.animals.AccessibleIDs(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByRecorderOrAnimals(ctx, actor.ID, accessible, f)
}

type UpdateInput struct {
	EventDate *time.Time
	AnimalIDs []string // nil = sin cambios
	Notes     *string

	Health       *details.Health
	Reproductive *details.Reproductive
	Weighing     *details.Weighing
	Feeding      *details.Feeding
	Batch        *details.Batch
}

// Update: solo quien registró el evento. El Kind es inmutable; el
// detalle se reemplaza completo si viene uno del tipo correcto.
func (s *Service) Update(ctx context.Context, actor authz.User, id string, in UpdateInput) (FarmEvent, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return FarmEvent{}, err
	}
	if err := s.authzr.Event(ctx, actor, e.RecordedByUserID, e.AnimalIDs, authz.OpWrite); err != nil {
		return FarmEvent{}, err
	}

	if in.EventDate != nil {
		e.EventDate = *in.EventDate
	}
	if in.Notes != nil {
		e.Notes = strings.TrimSpace(*in.Notes)
	}
	if in.AnimalIDs != nil {
		ids := dedupIDs(in.AnimalIDs)
		if len(ids) == 0 {
			return FarmEvent{}, ErrInvalidInput
		}
		if err := s.checkAnimals(ctx, actor, ids); err != nil {
			return FarmEvent{}, err
		}
		e.AnimalIDs = ids
	}

	if in.Health != nil {
		e.Health = in.Health
	}
	if in.Reproductive != nil {
		if err := s.checkAnimals(ctx, actor, dedupIDs(in.Reproductive.OffspringAnimalID)); err != nil {
			return FarmEvent{}, err
		}
		e.Reproductive = in.Reproductive
	}
	if in.Weighing != nil {
		e.Weighing = in.Weighing
	}
	if in.Feeding != nil {
		e.Feeding = in.Feeding
	}
	if in.Batch != nil {
		e.Batch = in.Batch
	}
	if err := validateDetail(e); err != nil {
		return FarmEvent{}, err
	}
	e.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, e); err != nil {
		return FarmEvent{}, err
	}
	return e, nil
}

func (s *Service) Delete(ctx context.Context, actor authz.User, id string) error {
	e, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authzr.Event(ctx, actor, e.RecordedByUserID, e.AnimalIDs, authz.OpDelete); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// DetachAnimal quita un animal de todos los eventos (cascada al borrar
// el animal). Lo invoca el módulo de animales, no un handler.
func (s *Service) DetachAnimal(ctx context.Context, animalID string) error {
	return s.repo.DeletePivotsByAnimal(ctx, animalID)
}

func (s *Service) checkAnimals(ctx context.Context, actor authz.User, ids []string) error {
	for _, id := range ids {
		a, err := s.animals.AnimalView(ctx, id)
		if err != nil {
			return ErrInvalidInput
		}
		if err := s.authzr.Animal(ctx, actor, a, authz.OpRead); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) load(ctx context.Context, id string) (FarmEvent, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return FarmEvent{}, ErrNotFound
	}
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return FarmEvent{}, ErrNotFound
	}
	return e, nil
}

// validateDetail exige exactamente un detalle, y del tipo que dicta el
// Kind.
func validateDetail(e FarmEvent) error {
	count := 0
	var match bool
	if e.Health != nil {
		count++
		match = match || e.Kind == KindHealth
	}
	if e.Reproductive != nil {
		count++
		match = match || e.Kind == KindReproductive
	}
	if e.Weighing != nil {
		count++
		match = match || e.Kind == KindWeighing
	}
	if e.Feeding != nil {
		count++
		match = match || e.Kind == KindFeeding
	}
	if e.Batch != nil {
		count++
		match = match || e.Kind == KindBatch
	}
	if count != 1 || !match {
		return ErrInvalidInput
	}
	return nil
}

func dedupIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
