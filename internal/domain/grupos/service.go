package grupos

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

// AnimalSource valida acceso al animal antes de meterlo en un grupo.
type AnimalSource interface {
	AnimalView(ctx context.Context, animalID string) (authz.Animal, error)
}

type Service struct {
	repo    Repository
	animals AnimalSource
	authzr  *authz.Authorizer
	now     func() time.Time
}

func NewService(repo Repository, animals AnimalSource, authzr *authz.Authorizer) *Service {
	return &Service{
		repo:    repo,
		animals: animals,
		authzr:  authzr,
		now:     time.Now,
	}
}

type CreateInput struct {
	Name        string
	Description string
	PurposeID   *string
}

func (s *Service) Create(ctx context.Context, actor authz.User, in CreateInput) (Grupo, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Grupo{}, ErrInvalidInput
	}

	now := s.now()
	g := Grupo{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(in.Name),
		Description:     strings.TrimSpace(in.Description),
		PurposeID:       in.PurposeID,
		CreatedByUserID: actor.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, g); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return Grupo{}, ErrAlreadyExists
		}
		return Grupo{}, err
	}
	return g, nil
}

func (s *Service) Get(ctx context.Context, actor authz.User, id string) (Grupo, error) {
	g, err := s.load(ctx, id)
	if err != nil {
		return Grupo{}, err
	}
	if err := s.authzr.Grupo(actor, AuthzView(g), authz.OpRead); err != nil {
		return Grupo{}, err
	}
	return g, nil
}

func (s *Service) ListMine(ctx context.Context, actor authz.User) ([]Grupo, error) {
	return s.repo.ListByCreator(ctx, actor.ID)
}

type UpdateInput struct {
	Name        *string
	Description *string
	PurposeID   *string
}

func (s *Service) Update(ctx context.Context, actor authz.User, id string, in UpdateInput) (Grupo, error) {
	g, err := s.load(ctx, id)
	if err != nil {
		return Grupo{}, err
	}
	if err := s.authzr.Grupo(actor, AuthzView(g), authz.OpWrite); err != nil {
		return Grupo{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Grupo{}, ErrInvalidInput
		}
		g.Name = name
	}
	if in.Description != nil {
		g.Description = strings.TrimSpace(*in.Description)
	}
	if in.PurposeID != nil {
		g.PurposeID = in.PurposeID
	}
	g.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, g); err != nil {
		return Grupo{}, err
	}
	return g, nil
}

func (s *Service) Delete(ctx context.Context, actor authz.User, id string) error {
	g, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authzr.Grupo(actor, AuthzView(g), authz.OpDelete); err != nil {
		return err
	}
	// El repo borra también la membresía (cascada explícita).
	return s.repo.Delete(ctx, id)
}

type AddMemberInput struct {
	AnimalID string
	Notes    string
}

// AddMember exige ser creador del grupo y tener acceso de lectura al
// animal. Par duplicado: conflicto.
func (s *Service) AddMember(ctx context.Context, actor authz.User, grupoID string, in AddMemberInput) (Member, error) {
	g, err := s.load(ctx, grupoID)
	if err != nil {
		return Member{}, err
	}
	if err := s.authzr.Grupo(actor, AuthzView(g), authz.OpWrite); err != nil {
		return Member{}, err
	}

	animalID := strings.TrimSpace(in.AnimalID)
	if animalID == "" {
		return Member{}, ErrInvalidInput
	}
	animal, err := s.animals.AnimalView(ctx, animalID)
	if err != nil {
		return Member{}, ErrNotFound
	}
	if err := s.authzr.Animal(ctx, actor, animal, authz.OpRead); err != nil {
		return Member{}, err
	}

	now := s.now()
	m := Member{
		AnimalID:     animalID,
		GrupoID:      g.ID,
		AssignedDate: now,
		Notes:        strings.TrimSpace(in.Notes),
		CreatedAt:    now,
	}

	if err := s.repo.AddMember(ctx, m); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return Member{}, ErrAlreadyExists
		}
		return Member{}, err
	}
	return m, nil
}

func (s *Service) RemoveMember(ctx context.Context, actor authz.User, grupoID, animalID string) error {
	g, err := s.load(ctx, grupoID)
	if err != nil {
		return err
	}
	if err := s.authzr.Grupo(actor, AuthzView(g), authz.OpWrite); err != nil {
		return err
	}

	if err := s.repo.RemoveMember(ctx, strings.TrimSpace(animalID), g.ID); err != nil {
		return ErrNotFound
	}
	return nil
}

func (s *Service) ListMembers(ctx context.Context, actor authz.User, grupoID string) ([]Member, error) {
	g, err := s.load(ctx, grupoID)
	if err != nil {
		return nil, err
	}
	if err := s.authzr.Grupo(actor, AuthzView(g), authz.OpRead); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, g.ID)
}

func (s *Service) load(ctx context.Context, id string) (Grupo, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Grupo{}, ErrNotFound
	}
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Grupo{}, ErrNotFound
	}
	return g, nil
}

func AuthzView(g Grupo) authz.Grupo {
	return authz.Grupo{ID: g.ID, CreatedByUserID: g.CreatedByUserID}
}
