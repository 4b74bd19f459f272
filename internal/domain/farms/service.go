package farms

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

// Dependientes que caen junto con la finca. El borrado en cascada es
// explícito a nivel de servicio (en postgres además respalda el FK).
type CascadeDeps struct {
	DeleteLotsByFarm   func(ctx context.Context, farmID string) error
	DeleteGrantsByFarm func(ctx context.Context, farmID string) error
}

type Service struct {
	repo    Repository
	authzr  *authz.Authorizer
	cascade CascadeDeps
	now     func() time.Time
}

func NewService(repo Repository, authzr *authz.Authorizer, cascade CascadeDeps) *Service {
	return &Service{
		repo:    repo,
		authzr:  authzr,
		cascade: cascade,
		now:     time.Now,
	}
}

type CreateInput struct {
	Name        string
	Location    string
	Latitude    *float64
	Longitude   *float64
	AreaHa      *float64
	ContactInfo string
}

func (s *Service) Create(ctx context.Context, actor authz.User, in CreateInput) (Farm, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Farm{}, ErrInvalidInput
	}

	now := s.now()
	f := Farm{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Location:    strings.TrimSpace(in.Location),
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		AreaHa:      in.AreaHa,
		OwnerUserID: actor.ID,
		ContactInfo: strings.TrimSpace(in.ContactInfo),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, f); err != nil {
		return Farm{}, err
	}
	return f, nil
}

// Get: NotFound primero, luego el verdict (owner-only para leer la
// finca como objeto).
func (s *Service) Get(ctx context.Context, actor authz.User, id string) (Farm, error) {
	f, err := s.load(ctx, id)
	if err != nil {
		return Farm{}, err
	}
	if err := s.authzr.Farm(ctx, actor, AuthzView(f), authz.OpRead); err != nil {
		return Farm{}, err
	}
	return f, nil
}

func (s *Service) ListMine(ctx context.Context, actor authz.User) ([]Farm, error) {
	return s.repo.ListByOwner(ctx, actor.ID)
}

// ListAccessible incluye fincas propias y con grant vigente (para que un
// delegado pueda ubicar la finca compartida).
func (s *Service) ListAccessible(ctx context.Context, actor authz.User) ([]Farm, error) {
	ids, err := s.authzr.Resolver().AccessibleFarmIDs(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByIDs(ctx, ids)
}

type UpdateInput struct {
	Name        *string
	Location    *string
	Latitude    *float64
	Longitude   *float64
	AreaHa      *float64
	ContactInfo *string
}

func (s *Service) Update(ctx context.Context, actor authz.User, id string, in UpdateInput) (Farm, error) {
	f, err := s.load(ctx, id)
	if err != nil {
		return Farm{}, err
	}
	if err := s.authzr.Farm(ctx, actor, AuthzView(f), authz.OpWrite); err != nil {
		return Farm{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Farm{}, ErrInvalidInput
		}
		f.Name = name
	}
	if in.Location != nil {
		f.Location = strings.TrimSpace(*in.Location)
	}
	if in.Latitude != nil {
		f.Latitude = in.Latitude
	}
	if in.Longitude != nil {
		f.Longitude = in.Longitude
	}
	if in.AreaHa != nil {
		f.AreaHa = in.AreaHa
	}
	if in.ContactInfo != nil {
		f.ContactInfo = strings.TrimSpace(*in.ContactInfo)
	}
	f.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, f); err != nil {
		return Farm{}, err
	}
	return f, nil
}

// Delete borra la finca y en cascada sus lotes y grants. Los animales
// quedan con lote colgante hasta reasignarse; el resolver los trata
// como sin acceso transitivo (fail closed).
func (s *Service) Delete(ctx context.Context, actor authz.User, id string) error {
	f, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authzr.Farm(ctx, actor, AuthzView(f), authz.OpDelete); err != nil {
		return err
	}

	if s.cascade.DeleteGrantsByFarm != nil {
		if err := s.cascade.DeleteGrantsByFarm(ctx, id); err != nil {
			return err
		}
	}
	if s.cascade.DeleteLotsByFarm != nil {
		if err := s.cascade.DeleteLotsByFarm(ctx, id); err != nil {
			return err
		}
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) load(ctx context.Context, id string) (Farm, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Farm{}, ErrNotFound
	}
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Farm{}, ErrNotFound
	}
	return f, nil
}

// AuthzView convierte al recorte que consume el core de autorización.
func AuthzView(f Farm) authz.Farm {
	return authz.Farm{ID: f.ID, OwnerUserID: f.OwnerUserID}
}
