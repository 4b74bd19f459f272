package rbac

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

// UserSource evita asociaciones colgantes y resuelve el atajo de
// superusuario en HasPermission.
type UserSource interface {
	UserExists(ctx context.Context, userID string) (bool, error)
	IsSuperuser(ctx context.Context, userID string) (bool, error)
}

// Service administra el catálogo de roles y permisos. Toda la gestión
// es de superusuario; HasPermission lo consulta cualquier módulo.
type Service struct {
	repo   Repository
	users  UserSource
	authzr *authz.Authorizer
	now    func() time.Time
}

func NewService(repo Repository, users UserSource, authzr *authz.Authorizer) *Service {
	return &Service{repo: repo, users: users, authzr: authzr, now: time.Now}
}

// HasPermission implementa el chequeo que usan los demás módulos.
// Superusuario siempre pasa; si no, unión de permisos vía roles.
func (s *Service) HasPermission(ctx context.Context, userID, permissionName string) (bool, error) {
	if super, err := s.users.IsSuperuser(ctx, userID); err == nil && super {
		return true, nil
	}
	return s.repo.UserHasPermission(ctx, userID, permissionName)
}

// --- Módulos ---

func (s *Service) CreateModule(ctx context.Context, actor authz.User, name, description string) (Module, error) {
	if err := s.authzr.RoleAdmin(actor, authz.OpWrite); err != nil {
		return Module{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Module{}, ErrInvalidInput
	}
	m := Module{ID: uuid.NewString(), Name: name, Description: strings.TrimSpace(description), CreatedAt: s.now()}
	if err := s.repo.CreateModule(ctx, m); err != nil {
		return Module{}, err
	}
	return m, nil
}

func (s *Service) ListModules(ctx context.Context, actor authz.User) ([]Module, error) {
	if err := s.authzr.RoleAdmin(actor, authz.OpRead); err != nil {
		return nil, err
	}
	return s.repo.ListModules(ctx)
}

func (s *Service) DeleteModule(ctx context.Context, actor authz.User, id string) error {
	if err := s.authzr.RoleAdmin(actor, authz.OpDelete); err != nil {
		return err
	}
	if _, err := s.repo.GetModuleByID(ctx, id); err != nil {
		return ErrNotFound
	}
	return s.repo.DeleteModule(ctx, id)
}

// --- Permisos ---

func (s *Service) CreatePermission(ctx context.Context, actor authz.User, name, description, moduleID string) (Permission, error) {
	if err := s.authzr.RoleAdmin(actor, authz.OpWrite); err != nil {
		return Permission{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" || strings.TrimSpace(moduleID) == "" {
		return Permission{}, ErrInvalidInput
	}
	if _, err := s.repo.GetModuleByID(ctx, moduleID); err != nil {
		return Permission{}, ErrInvalidInput
	}
	p := Permission{ID: uuid.NewString(), Name: name, Description: strings.TrimSpace(description), ModuleID: moduleID, CreatedAt: s.now()}
	if err := s.repo.CreatePermission(ctx, p); err != nil {
		return Permission{}, err
	}
	return p, nil
}

func (s *Service) ListPermissions(ctx context.Context, actor authz.User, moduleID string) ([]Permission, error) {
	if err := s.authzr.RoleAdmin(actor, authz.OpRead); err != nil {
		return nil, err
	}
	return s.repo.ListPermissions(ctx, strings.TrimSpace(moduleID))
}

func (s *Service) DeletePermission(ctx context.Context, actor authz.User, id string) error {
	if err := s.authzr.RoleAdmin(actor, authz.OpDelete); err != nil {
		return err
	}
	if _, err := s.repo.GetPermissionByID(ctx, id); err != nil {
		return ErrNotFound
	}
	return s.repo.DeletePermission(ctx, id)
}

// --- Roles ---

func (s *Service) CreateRole(ctx context.Context, actor authz.User, name, description string) (Role, error) {
	if err := s.authzr.RoleAdmin(actor, authz.OpWrite); err != nil {
		return Role{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, ErrInvalidInput
	}
	r := Role{ID: uuid.NewString(), Name: name, Description: strings.TrimSpace(description), CreatedAt: s.now()}
	if err := s.repo.CreateRole(ctx, r); err != nil {
		return Role{}, err
	}
	return r, nil
}

func (s *Service) ListRoles(ctx context.Context, actor authz.User) ([]Role, error) {
	if err := s.authzr.RoleAdmin(actor, authz.OpRead); err != nil {
		return nil, err
	}
	return s.repo.ListRoles(ctx)
}

func (s *Service) DeleteRole(ctx context.Context, actor authz.User, id string) error {
	if err := s.authzr.RoleAdmin(actor, authz.OpDelete); err != nil {
		return err
	}
	if _, err := s.repo.GetRoleByID(ctx, id); err != nil {
		return ErrNotFound
	}
	return s.repo.DeleteRole(ctx, id)
}

// --- Asociaciones ---

func (s *Service) AssignPermission(ctx context.Context, actor authz.User, roleID, permissionID string) error {
	if err := s.authzr.RoleAdmin(actor, authz.OpWrite); err != nil {
		return err
	}
	if _, err := s.repo.GetRoleByID(ctx, roleID); err != nil {
		return ErrNotFound
	}
	if _, err := s.repo.GetPermissionByID(ctx, permissionID); err != nil {
		return ErrNotFound
	}
	return s.repo.AssignPermission(ctx, RolePermission{RoleID: roleID, PermissionID: permissionID, AssignedAt: s.now()})
}

func (s *Service) RevokePermission(ctx context.Context, actor authz.User, roleID, permissionID string) error {
	if err := s.authzr.RoleAdmin(actor, authz.OpWrite); err != nil {
		return err
	}
	return s.repo.RevokePermission(ctx, roleID, permissionID)
}

func (s *Service) ListRolePermissions(ctx context.Context, actor authz.User, roleID string) ([]Permission, error) {
	if err := s.authzr.RoleAdmin(actor, authz.OpRead); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetRoleByID(ctx, roleID); err != nil {
		return nil, ErrNotFound
	}
	return s.repo.ListRolePermissions(ctx, roleID)
}

func (s *Service) AssignRole(ctx context.Context, actor authz.User, userID, roleID string) error {
	if err := s.authzr.RoleAdmin(actor, authz.OpWrite); err != nil {
		return err
	}
	ok, err := s.users.UserExists(ctx, userID)
	if err != nil || !ok {
		return ErrNotFound
	}
	if _, err := s.repo.GetRoleByID(ctx, roleID); err != nil {
		return ErrNotFound
	}
	return s.repo.AssignRole(ctx, UserRole{UserID: userID, RoleID: roleID, AssignedAt: s.now()})
}

func (s *Service) RevokeRole(ctx context.Context, actor authz.User, userID, roleID string) error {
	if err := s.authzr.RoleAdmin(actor, authz.OpWrite); err != nil {
		return err
	}
	return s.repo.RevokeRole(ctx, userID, roleID)
}

func (s *Service) ListUserRoles(ctx context.Context, actor authz.User, userID string) ([]Role, error) {
	// Cada quien puede ver sus propios roles; el resto es de admin.
	if actor.ID != userID {
		if err := s.authzr.RoleAdmin(actor, authz.OpRead); err != nil {
			return nil, err
		}
	}
	return s.repo.ListUserRoles(ctx, userID)
}
