package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"finca-manager/internal/domain/rbac"
)

type rolePermKey struct {
	roleID       string
	permissionID string
}

type userRoleKey struct {
	userID string
	roleID string
}

type rbacRepo struct {
	mu          sync.RWMutex
	modules     map[string]rbac.Module
	permissions map[string]rbac.Permission
	roles       map[string]rbac.Role
	rolePerms   map[rolePermKey]rbac.RolePermission
	userRoles   map[userRoleKey]rbac.UserRole
}

func NewRBACRepo() rbac.Repository {
	return &rbacRepo{
		modules:     make(map[string]rbac.Module),
		permissions: make(map[string]rbac.Permission),
		roles:       make(map[string]rbac.Role),
		rolePerms:   make(map[rolePermKey]rbac.RolePermission),
		userRoles:   make(map[userRoleKey]rbac.UserRole),
	}
}

func (r *rbacRepo) CreateModule(ctx context.Context, m rbac.Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.modules {
		if strings.EqualFold(existing.Name, m.Name) {
			return rbac.ErrAlreadyExists
		}
	}
	r.modules[m.ID] = m
	return nil
}

func (r *rbacRepo) GetModuleByID(ctx context.Context, id string) (rbac.Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.modules[id]
	if !ok {
		return rbac.Module{}, rbac.ErrNotFound
	}
	return m, nil
}

func (r *rbacRepo) ListModules(ctx context.Context) ([]rbac.Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]rbac.Module, 0, len(r.modules))
	for _, m := range r.modules {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *rbacRepo) DeleteModule(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.modules[id]; !ok {
		return rbac.ErrNotFound
	}
	delete(r.modules, id)
	return nil
}

func (r *rbacRepo) CreatePermission(ctx context.Context, p rbac.Permission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.permissions {
		if strings.EqualFold(existing.Name, p.Name) {
			return rbac.ErrAlreadyExists
		}
	}
	r.permissions[p.ID] = p
	return nil
}

func (r *rbacRepo) GetPermissionByID(ctx context.Context, id string) (rbac.Permission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.permissions[id]
	if !ok {
		return rbac.Permission{}, rbac.ErrNotFound
	}
	return p, nil
}

func (r *rbacRepo) ListPermissions(ctx context.Context, moduleID string) ([]rbac.Permission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]rbac.Permission, 0)
	for _, p := range r.permissions {
		if moduleID != "" && p.ModuleID != moduleID {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *rbacRepo) DeletePermission(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.permissions[id]; !ok {
		return rbac.ErrNotFound
	}
	delete(r.permissions, id)
	for k := range r.rolePerms {
		if k.permissionID == id {
			delete(r.rolePerms, k)
		}
	}
	return nil
}

func (r *rbacRepo) CreateRole(ctx context.Context, role rbac.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.roles {
		if strings.EqualFold(existing.Name, role.Name) {
			return rbac.ErrAlreadyExists
		}
	}
	r.roles[role.ID] = role
	return nil
}

func (r *rbacRepo) GetRoleByID(ctx context.Context, id string) (rbac.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	role, ok := r.roles[id]
	if !ok {
		return rbac.Role{}, rbac.ErrNotFound
	}
	return role, nil
}

func (r *rbacRepo) ListRoles(ctx context.Context) ([]rbac.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]rbac.Role, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *rbacRepo) DeleteRole(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.roles[id]; !ok {
		return rbac.ErrNotFound
	}
	delete(r.roles, id)
	for k := range r.rolePerms {
		if k.roleID == id {
			delete(r.rolePerms, k)
		}
	}
	for k := range r.userRoles {
		if k.roleID == id {
			delete(r.userRoles, k)
		}
	}
	return nil
}

func (r *rbacRepo) AssignPermission(ctx context.Context, rp rbac.RolePermission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := rolePermKey{roleID: rp.RoleID, permissionID: rp.PermissionID}
	if _, exists := r.rolePerms[k]; exists {
		return rbac.ErrAlreadyExists
	}
	r.rolePerms[k] = rp
	return nil
}

func (r *rbacRepo) RevokePermission(ctx context.Context, roleID, permissionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := rolePermKey{roleID: roleID, permissionID: permissionID}
	if _, ok := r.rolePerms[k]; !ok {
		return rbac.ErrNotFound
	}
	delete(r.rolePerms, k)
	return nil
}

func (r *rbacRepo) ListRolePermissions(ctx context.Context, roleID string) ([]rbac.Permission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]rbac.Permission, 0)
	for k := range r.rolePerms {
		if k.roleID != roleID {
			continue
		}
		if p, ok := r.permissions[k.permissionID]; ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *rbacRepo) AssignRole(ctx context.Context, ur rbac.UserRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := userRoleKey{userID: ur.UserID, roleID: ur.RoleID}
	if _, exists := r.userRoles[k]; exists {
		return rbac.ErrAlreadyExists
	}
	r.userRoles[k] = ur
	return nil
}

func (r *rbacRepo) RevokeRole(ctx context.Context, userID, roleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := userRoleKey{userID: userID, roleID: roleID}
	if _, ok := r.userRoles[k]; !ok {
		return rbac.ErrNotFound
	}
	delete(r.userRoles, k)
	return nil
}

func (r *rbacRepo) ListUserRoles(ctx context.Context, userID string) ([]rbac.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]rbac.Role, 0)
	for k := range r.userRoles {
		if k.userID != userID {
			continue
		}
		if role, ok := r.roles[k.roleID]; ok {
			out = append(out, role)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *rbacRepo) UserHasPermission(ctx context.Context, userID, permissionName string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for ur := range r.userRoles {
		if ur.userID != userID {
			continue
		}
		for rp := range r.rolePerms {
			if rp.roleID != ur.roleID {
				continue
			}
			if p, ok := r.permissions[rp.permissionID]; ok && p.Name == permissionName {
				return true, nil
			}
		}
	}
	return false, nil
}
