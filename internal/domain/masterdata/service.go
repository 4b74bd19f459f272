package masterdata

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

// PermissionChecker responde si un usuario tiene un permiso nombrado.
type PermissionChecker interface {
	HasPermission(ctx context.Context, userID, permissionName string) (bool, error)
}

// Service gestiona los catálogos compartidos. Lectura libre para
// cualquier usuario autenticado; escritura sólo con permiso
// "masterdata:manage" o superusuario.
type Service struct {
	repo   Repository
	authzr *authz.Authorizer
	perms  PermissionChecker
	now    func() time.Time
}

func NewService(repo Repository, authzr *authz.Authorizer, perms PermissionChecker) *Service {
	return &Service{repo: repo, authzr: authzr, perms: perms, now: time.Now}
}

type CreateInput struct {
	Category    string
	Name        string
	Description string
	ParentID    *string
}

func (s *Service) Create(ctx context.Context, actor authz.User, in CreateInput) (Item, error) {
	if err := s.requireManage(ctx, actor, authz.OpWrite); err != nil {
		return Item{}, err
	}

	category := strings.TrimSpace(strings.ToLower(in.Category))
	name := strings.TrimSpace(in.Name)
	if category == "" || name == "" {
		return Item{}, ErrInvalidInput
	}

	now := s.now()
	it := Item{
		ID:              uuid.NewString(),
		Category:        category,
		Name:            name,
		Description:     strings.TrimSpace(in.Description),
		ParentID:        in.ParentID,
		IsActive:        true,
		CreatedByUserID: &actor.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, it); err != nil {
		return Item{}, err
	}
	return it, nil
}

func (s *Service) Get(ctx context.Context, id string) (Item, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Item{}, ErrNotFound
	}
	it, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Item{}, ErrNotFound
	}
	return it, nil
}

func (s *Service) List(ctx context.Context, category string) ([]Item, error) {
	return s.repo.List(ctx, strings.TrimSpace(strings.ToLower(category)))
}

type UpdateInput struct {
	Name        *string
	Description *string
	ParentID    *string
	IsActive    *bool
}

func (s *Service) Update(ctx context.Context, actor authz.User, id string, in UpdateInput) (Item, error) {
	if err := s.requireManage(ctx, actor, authz.OpWrite); err != nil {
		return Item{}, err
	}

	it, err := s.Get(ctx, id)
	if err != nil {
		return Item{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Item{}, ErrInvalidInput
		}
		it.Name = name
	}
	if in.Description != nil {
		it.Description = strings.TrimSpace(*in.Description)
	}
	if in.ParentID != nil {
		it.ParentID = in.ParentID
	}
	if in.IsActive != nil {
		it.IsActive = *in.IsActive
	}
	it.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, it); err != nil {
		return Item{}, err
	}
	return it, nil
}

func (s *Service) Delete(ctx context.Context, actor authz.User, id string) error {
	if err := s.requireManage(ctx, actor, authz.OpDelete); err != nil {
		return err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) requireManage(ctx context.Context, actor authz.User, op authz.Operation) error {
	if s.perms != nil {
		ok, err := s.perms.HasPermission(ctx, actor.ID, "masterdata:manage")
		if err == nil && ok {
			return nil
		}
	}
	return s.authzr.RoleAdmin(actor, op)
}
