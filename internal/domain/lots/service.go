package lots

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

// FarmSource resuelve la finca dueña (vista authz). Implementado por el
// servicio de farms.
type FarmSource interface {
	FarmView(ctx context.Context, farmID string) (authz.Farm, error)
}

// ClearAnimalsLot desasigna current_lot de los animales de un lote.
// Se usa en la cascada de borrado; la implementa el módulo animals.
type ClearAnimalsLot func(ctx context.Context, lotID string) error

type Service struct {
	repo    Repository
	farms   FarmSource
	authzr  *authz.Authorizer
	clear   ClearAnimalsLot
	now     func() time.Time
}

func NewService(repo Repository, farms FarmSource, authzr *authz.Authorizer, clear ClearAnimalsLot) *Service {
	return &Service{
		repo:   repo,
		farms:  farms,
		authzr: authzr,
		clear:  clear,
		now:    time.Now,
	}
}

type CreateInput struct {
	FarmID      string
	Name        string
	Description string
}

func (s *Service) Create(ctx context.Context, actor authz.User, in CreateInput) (Lot, error) {
	farmID := strings.TrimSpace(in.FarmID)
	if farmID == "" || strings.TrimSpace(in.Name) == "" {
		return Lot{}, ErrInvalidInput
	}

	farm, err := s.farms.FarmView(ctx, farmID)
	if err != nil {
		return Lot{}, ErrNotFound
	}
	// Crear lotes es escribir sobre la finca: owner-only.
	if err := s.authzr.Farm(ctx, actor, farm, authz.OpWrite); err != nil {
		return Lot{}, err
	}

	now := s.now()
	l := Lot{
		ID:          uuid.NewString(),
		FarmID:      farmID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, l); err != nil {
		return Lot{}, err
	}
	return l, nil
}

func (s *Service) Get(ctx context.Context, actor authz.User, id string) (Lot, error) {
	l, err := s.load(ctx, id)
	if err != nil {
		return Lot{}, err
	}
	if err := s.authzr.Lot(ctx, actor, AuthzView(l), authz.OpRead); err != nil {
		return Lot{}, err
	}
	return l, nil
}

func (s *Service) ListByFarm(ctx context.Context, actor authz.User, farmID string) ([]Lot, error) {
	farm, err := s.farms.FarmView(ctx, farmID)
	if err != nil {
		return nil, ErrNotFound
	}
	// Listar lotes equivale a leerlos: owner o shared.
	if err := s.authzr.Lot(ctx, actor, authz.Lot{FarmID: farm.ID}, authz.OpRead); err != nil {
		return nil, err
	}
	return s.repo.ListByFarm(ctx, farmID)
}

type UpdateInput struct {
	Name        *string
	Description *string
}

func (s *Service) Update(ctx context.Context, actor authz.User, id string, in UpdateInput) (Lot, error) {
	l, err := s.load(ctx, id)
	if err != nil {
		return Lot{}, err
	}
	if err := s.authzr.Lot(ctx, actor, AuthzView(l), authz.OpWrite); err != nil {
		return Lot{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Lot{}, ErrInvalidInput
		}
		l.Name = name
	}
	if in.Description != nil {
		l.Description = strings.TrimSpace(*in.Description)
	}
	l.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, l); err != nil {
		return Lot{}, err
	}
	return l, nil
}

// Delete borra el lote y desasigna sus animales (no los borra).
func (s *Service) Delete(ctx context.Context, actor authz.User, id string) error {
	l, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authzr.Lot(ctx, actor, AuthzView(l), authz.OpDelete); err != nil {
		return err
	}

	if s.clear != nil {
		if err := s.clear(ctx, id); err != nil {
			return err
		}
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) load(ctx context.Context, id string) (Lot, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Lot{}, ErrNotFound
	}
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Lot{}, ErrNotFound
	}
	return l, nil
}

func AuthzView(l Lot) authz.Lot {
	return authz.Lot{ID: l.ID, FarmID: l.FarmID}
}
