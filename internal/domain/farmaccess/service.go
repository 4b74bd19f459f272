package farmaccess

import (
	"context"
	"errors"
	"strings"
	"time"

	"finca-manager/internal/authz"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// FarmSource resuelve la finca (vista authz) para conocer a su dueño.
type FarmSource interface {
	FarmView(ctx context.Context, farmID string) (authz.Farm, error)
}

// UserChecker evita grants colgantes: el delegado debe existir.
type UserChecker interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

type Service struct {
	repo   Repository
	farms  FarmSource
	users  UserChecker
	authzr *authz.Authorizer
	now    func() time.Time
}

func NewService(repo Repository, farms FarmSource, users UserChecker, authzr *authz.Authorizer) *Service {
	return &Service{
		repo:   repo,
		farms:  farms,
		users:  users,
		authzr: authzr,
		now:    time.Now,
	}
}

type GrantInput struct {
	UserID    string
	FarmID    string
	Level     Level
	ExpiresAt *time.Time
}

// Grant comparte una finca. Solo el dueño (o superusuario) otorga.
// Par (user, farm) con grant vigente: conflicto. Un grant revocado o
// vencido se reactiva sobre la misma fila (la clave compuesta es única).
func (s *Service) Grant(ctx context.Context, actor authz.User, in GrantInput) (Grant, error) {
	granteeID := strings.TrimSpace(in.UserID)
	farmID := strings.TrimSpace(in.FarmID)
	if granteeID == "" || farmID == "" {
		return Grant{}, ErrInvalidInput
	}

	level := in.Level
	if level == "" {
		level = LevelView
	}
	if level != LevelView && level != LevelManage {
		return Grant{}, ErrInvalidInput
	}

	farm, err := s.farms.FarmView(ctx, farmID)
	if err != nil {
		return Grant{}, ErrNotFound
	}
	if granteeID == farm.OwnerUserID {
		// El dueño no necesita grant sobre lo suyo.
		return Grant{}, ErrInvalidInput
	}

	if err := s.authzr.FarmGrant(actor, authz.FarmGrant{
		UserID:          granteeID,
		FarmID:          farmID,
		FarmOwnerUserID: farm.OwnerUserID,
	}, authz.OpWrite); err != nil {
		return Grant{}, err
	}

	ok, err := s.users.Exists(ctx, granteeID)
	if err != nil {
		return Grant{}, err
	}
	if !ok {
		return Grant{}, ErrNotFound
	}

	now := s.now()
	if in.ExpiresAt != nil && !in.ExpiresAt.After(now) {
		return Grant{}, ErrInvalidInput
	}

	existing, err := s.repo.Get(ctx, granteeID, farmID)
	if err == nil {
		if existing.ActiveAt(now) {
			return Grant{}, ErrAlreadyExists
		}
		// Reactivación: mismo par, grant nuevo en la misma fila.
		existing.Level = level
		existing.AssignedByUserID = actor.ID
		existing.AssignedAt = now
		existing.ExpiresAt = in.ExpiresAt
		existing.RevokedAt = nil
		if err := s.repo.Update(ctx, existing); err != nil {
			return Grant{}, err
		}
		return existing, nil
	}

	g := Grant{
		UserID:           granteeID,
		FarmID:           farmID,
		Level:            level,
		AssignedByUserID: actor.ID,
		AssignedAt:       now,
		ExpiresAt:        in.ExpiresAt,
	}

	if err := s.repo.Create(ctx, g); err != nil {
		// Carrera contra el unique del almacén: conflicto, no overwrite.
		if errors.Is(err, ErrAlreadyExists) {
			return Grant{}, ErrAlreadyExists
		}
		return Grant{}, err
	}
	return g, nil
}

func (s *Service) Get(ctx context.Context, actor authz.User, userID, farmID string) (Grant, error) {
	g, farmOwner, err := s.loadWithOwner(ctx, userID, farmID)
	if err != nil {
		return Grant{}, err
	}
	if err := s.authzr.FarmGrant(actor, grantView(g, farmOwner), authz.OpRead); err != nil {
		return Grant{}, err
	}
	return g, nil
}

type UpdateInput struct {
	Level     *Level
	ExpiresAt *time.Time
}

// Update cambia nivel o expiración. user_id/farm_id son inmutables:
// no existe "mover" un grant, se revoca y se crea otro.
func (s *Service) Update(ctx context.Context, actor authz.User, userID, farmID string, in UpdateInput) (Grant, error) {
	g, farmOwner, err := s.loadWithOwner(ctx, userID, farmID)
	if err != nil {
		return Grant{}, err
	}
	if err := s.authzr.FarmGrant(actor, grantView(g, farmOwner), authz.OpWrite); err != nil {
		return Grant{}, err
	}

	if in.Level != nil {
		if *in.Level != LevelView && *in.Level != LevelManage {
			return Grant{}, ErrInvalidInput
		}
		g.Level = *in.Level
	}
	if in.ExpiresAt != nil {
		g.ExpiresAt = in.ExpiresAt
	}

	if err := s.repo.Update(ctx, g); err != nil {
		return Grant{}, err
	}
	return g, nil
}

// Revoke marca el grant como revocado (idempotente).
func (s *Service) Revoke(ctx context.Context, actor authz.User, userID, farmID string) (Grant, error) {
	g, farmOwner, err := s.loadWithOwner(ctx, userID, farmID)
	if err != nil {
		return Grant{}, err
	}
	if err := s.authzr.FarmGrant(actor, grantView(g, farmOwner), authz.OpWrite); err != nil {
		return Grant{}, err
	}

	if g.RevokedAt != nil {
		return g, nil
	}
	now := s.now()
	g.RevokedAt = &now

	if err := s.repo.Update(ctx, g); err != nil {
		return Grant{}, err
	}
	return g, nil
}

// HardDelete elimina la fila. Solo superusuario.
func (s *Service) HardDelete(ctx context.Context, actor authz.User, userID, farmID string) error {
	g, farmOwner, err := s.loadWithOwner(ctx, userID, farmID)
	if err != nil {
		return err
	}
	if err := s.authzr.FarmGrant(actor, grantView(g, farmOwner), authz.OpDelete); err != nil {
		return err
	}
	return s.repo.Delete(ctx, userID, farmID)
}

// ListMine: grants donde el actor es el delegado.
func (s *Service) ListMine(ctx context.Context, actor authz.User) ([]Grant, error) {
	return s.repo.ListByUser(ctx, actor.ID)
}

// ListByFarm: dueño de la finca o superusuario.
func (s *Service) ListByFarm(ctx context.Context, actor authz.User, farmID string) ([]Grant, error) {
	farm, err := s.farms.FarmView(ctx, strings.TrimSpace(farmID))
	if err != nil {
		return nil, ErrNotFound
	}
	if err := s.authzr.FarmGrant(actor, authz.FarmGrant{
		FarmID:          farm.ID,
		FarmOwnerUserID: farm.OwnerUserID,
	}, authz.OpWrite); err != nil {
		return nil, err
	}
	return s.repo.ListByFarm(ctx, farm.ID)
}

func (s *Service) loadWithOwner(ctx context.Context, userID, farmID string) (Grant, string, error) {
	userID = strings.TrimSpace(userID)
	farmID = strings.TrimSpace(farmID)
	if userID == "" || farmID == "" {
		return Grant{}, "", ErrNotFound
	}

	g, err := s.repo.Get(ctx, userID, farmID)
	if err != nil {
		return Grant{}, "", ErrNotFound
	}

	farmOwner := ""
	if farm, err := s.farms.FarmView(ctx, farmID); err == nil {
		farmOwner = farm.OwnerUserID
	}
	return g, farmOwner, nil
}

func grantView(g Grant, farmOwnerUserID string) authz.FarmGrant {
	return authz.FarmGrant{
		UserID:           g.UserID,
		FarmID:           g.FarmID,
		AssignedByUserID: g.AssignedByUserID,
		FarmOwnerUserID:  farmOwnerUserID,
	}
}
