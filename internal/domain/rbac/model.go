package rbac

import "time"

// Module agrupa permisos por área funcional ("animals", "users"...).
type Module struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}

// Permission es una acción nombrada, p.ej. "users:manage". Pertenece a
// un módulo.
type Permission struct {
	ID          string
	Name        string
	Description string
	ModuleID    string
	CreatedAt   time.Time
}

type Role struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}

// RolePermission es la fila pivote rol <-> permiso.
type RolePermission struct {
	RoleID       string
	PermissionID string
	AssignedAt   time.Time
}

// UserRole es la fila pivote usuario <-> rol.
type UserRole struct {
	UserID     string
	RoleID     string
	AssignedAt time.Time
}
