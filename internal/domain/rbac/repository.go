package rbac

import "context"

type Repository interface {
	// Módulos. Create devuelve ErrAlreadyExists si el nombre ya existe.
	CreateModule(ctx context.Context, m Module) error
	GetModuleByID(ctx context.Context, id string) (Module, error)
	ListModules(ctx context.Context) ([]Module, error)
	DeleteModule(ctx context.Context, id string) error

	// Permisos. Nombre único global.
	CreatePermission(ctx context.Context, p Permission) error
	GetPermissionByID(ctx context.Context, id string) (Permission, error)
	ListPermissions(ctx context.Context, moduleID string) ([]Permission, error)
	DeletePermission(ctx context.Context, id string) error

	// Roles. Nombre único.
	CreateRole(ctx context.Context, r Role) error
	GetRoleByID(ctx context.Context, id string) (Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
	DeleteRole(ctx context.Context, id string) error

	// Asociaciones: asignar un par existente devuelve ErrAlreadyExists;
	// revocar un par ausente devuelve ErrNotFound.
	AssignPermission(ctx context.Context, rp RolePermission) error
	RevokePermission(ctx context.Context, roleID, permissionID string) error
	ListRolePermissions(ctx context.Context, roleID string) ([]Permission, error)

	AssignRole(ctx context.Context, ur UserRole) error
	RevokeRole(ctx context.Context, userID, roleID string) error
	ListUserRoles(ctx context.Context, userID string) ([]Role, error)

	// UserHasPermission: true si algún rol del usuario incluye el
	// permiso nombrado.
	UserHasPermission(ctx context.Context, userID, permissionName string) (bool, error)
}
