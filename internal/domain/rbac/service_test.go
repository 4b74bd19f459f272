package rbac_test

import (
	"context"
	"errors"
	"testing"

	"finca-manager/internal/adapters/storage/memory"
	"finca-manager/internal/authz"
	"finca-manager/internal/domain/rbac"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testUsers struct {
	known  map[string]bool
	supers map[string]bool
}

func (u *testUsers) UserExists(ctx context.Context, userID string) (bool, error) {
	return u.known[userID], nil
}

func (u *testUsers) IsSuperuser(ctx context.Context, userID string) (bool, error) {
	return u.supers[userID], nil
}

type nopStore struct{}

func (nopStore) FarmByID(ctx context.Context, id string) (authz.Farm, error) {
	return authz.Farm{}, authz.ErrNotFound
}
func (nopStore) LotByID(ctx context.Context, id string) (authz.Lot, error) {
	return authz.Lot{}, authz.ErrNotFound
}
func (nopStore) AnimalByID(ctx context.Context, id string) (authz.Animal, error) {
	return authz.Animal{}, authz.ErrNotFound
}
func (nopStore) FarmIDsByOwner(ctx context.Context, userID string) ([]string, error) {
	return nil, nil
}
func (nopStore) HasActiveGrant(ctx context.Context, userID, farmID string) (bool, error) {
	return false, nil
}
func (nopStore) FarmIDsGranted(ctx context.Context, userID string) ([]string, error) {
	return nil, nil
}

var admin = authz.User{ID: "admin", IsActive: true, IsSuperuser: true}

func newTestService() *rbac.Service {
	users := &testUsers{
		known:  map[string]bool{"u1": true, "u2": true, "admin": true},
		supers: map[string]bool{"admin": true},
	}
	return rbac.NewService(memory.NewRBACRepo(), users, authz.NewAuthorizer(nopStore{}))
}

func TestService_ManagementIsSuperuserOnly(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	mortal := authz.User{ID: "u1", IsActive: true}

	_, err := svc.CreateRole(ctx, mortal, "editor", "")
	assert.True(t, errors.Is(err, authz.ErrForbidden))

	_, err = svc.ListRoles(ctx, mortal)
	assert.True(t, errors.Is(err, authz.ErrForbidden))

	err = svc.AssignRole(ctx, mortal, "u2", "r1")
	assert.True(t, errors.Is(err, authz.ErrForbidden))
}

func TestService_CatalogLifecycle(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	m, err := svc.CreateModule(ctx, admin, "users", "gestión de cuentas")
	require.NoError(t, err)

	p, err := svc.CreatePermission(ctx, admin, "users:manage", "", m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, p.ModuleID)

	// permiso contra módulo inexistente
	_, err = svc.CreatePermission(ctx, admin, "ghost:do", "", "nope")
	assert.ErrorIs(t, err, rbac.ErrInvalidInput)

	r, err := svc.CreateRole(ctx, admin, "user-admin", "")
	require.NoError(t, err)

	require.NoError(t, svc.AssignPermission(ctx, admin, r.ID, p.ID))

	perms, err := svc.ListRolePermissions(ctx, admin, r.ID)
	require.NoError(t, err)
	require.Len(t, perms, 1)
	assert.Equal(t, "users:manage", perms[0].Name)

	// asignar dos veces el mismo par: conflicto
	err = svc.AssignPermission(ctx, admin, r.ID, p.ID)
	assert.ErrorIs(t, err, rbac.ErrAlreadyExists)

	require.NoError(t, svc.RevokePermission(ctx, admin, r.ID, p.ID))
	// revocar un par ausente
	err = svc.RevokePermission(ctx, admin, r.ID, p.ID)
	assert.ErrorIs(t, err, rbac.ErrNotFound)
}

func TestService_HasPermission_UnionAcrossRoles(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	m, err := svc.CreateModule(ctx, admin, "animals", "")
	require.NoError(t, err)
	pRead, err := svc.CreatePermission(ctx, admin, "animals:read", "", m.ID)
	require.NoError(t, err)
	pManage, err := svc.CreatePermission(ctx, admin, "animals:manage", "", m.ID)
	require.NoError(t, err)

	rViewer, err := svc.CreateRole(ctx, admin, "viewer", "")
	require.NoError(t, err)
	rManager, err := svc.CreateRole(ctx, admin, "manager", "")
	require.NoError(t, err)
	require.NoError(t, svc.AssignPermission(ctx, admin, rViewer.ID, pRead.ID))
	require.NoError(t, svc.AssignPermission(ctx, admin, rManager.ID, pManage.ID))

	require.NoError(t, svc.AssignRole(ctx, admin, "u1", rViewer.ID))
	require.NoError(t, svc.AssignRole(ctx, admin, "u1", rManager.ID))

	ok, err := svc.HasPermission(ctx, "u1", "animals:read")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasPermission(ctx, "u1", "animals:manage")
	require.NoError(t, err)
	assert.True(t, ok, "unión sobre todos los roles del usuario")

	ok, err = svc.HasPermission(ctx, "u2", "animals:read")
	require.NoError(t, err)
	assert.False(t, ok)

	// superusuario: atajo sin consultar roles
	ok, err = svc.HasPermission(ctx, "admin", "cualquier:cosa")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestService_AssignRole_ValidatesBothSides(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	r, err := svc.CreateRole(ctx, admin, "editor", "")
	require.NoError(t, err)

	err = svc.AssignRole(ctx, admin, "ghost", r.ID)
	assert.ErrorIs(t, err, rbac.ErrNotFound, "usuario inexistente")

	err = svc.AssignRole(ctx, admin, "u1", "no-role")
	assert.ErrorIs(t, err, rbac.ErrNotFound, "rol inexistente")
}

func TestService_ListUserRoles_SelfRead(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	r, err := svc.CreateRole(ctx, admin, "editor", "")
	require.NoError(t, err)
	require.NoError(t, svc.AssignRole(ctx, admin, "u1", r.ID))

	// el propio usuario consulta sus roles
	roles, err := svc.ListUserRoles(ctx, authz.User{ID: "u1", IsActive: true}, "u1")
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "editor", roles[0].Name)

	// un tercero no
	_, err = svc.ListUserRoles(ctx, authz.User{ID: "u2", IsActive: true}, "u1")
	assert.True(t, errors.Is(err, authz.ErrForbidden))
}

func TestService_DeleteRole_CascadesAssignments(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	m, err := svc.CreateModule(ctx, admin, "users", "")
	require.NoError(t, err)
	p, err := svc.CreatePermission(ctx, admin, "users:manage", "", m.ID)
	require.NoError(t, err)
	r, err := svc.CreateRole(ctx, admin, "user-admin", "")
	require.NoError(t, err)
	require.NoError(t, svc.AssignPermission(ctx, admin, r.ID, p.ID))
	require.NoError(t, svc.AssignRole(ctx, admin, "u1", r.ID))

	require.NoError(t, svc.DeleteRole(ctx, admin, r.ID))

	ok, err := svc.HasPermission(ctx, "u1", "users:manage")
	require.NoError(t, err)
	assert.False(t, ok, "borrar el rol arrastra sus asociaciones")

	roles, err := svc.ListUserRoles(ctx, admin, "u1")
	require.NoError(t, err)
	assert.Empty(t, roles)
}
