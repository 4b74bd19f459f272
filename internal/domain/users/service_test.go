package users

import (
	"context"
	"errors"
	"strings"
	"testing"

	"finca-manager/internal/authz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRepo struct {
	byID map[string]User
}

func newTestRepo() *testRepo { return &testRepo{byID: map[string]User{}} }

func (r *testRepo) Create(ctx context.Context, u User) error {
	for _, e := range r.byID {
		if strings.EqualFold(e.Email, u.Email) {
			return ErrAlreadyExists
		}
	}
	r.byID[u.ID] = u
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (User, error) {
	u, ok := r.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *testRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	for _, u := range r.byID {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *testRepo) List(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u)
	}
	return out, nil
}

func (r *testRepo) Update(ctx context.Context, u User) error {
	if _, ok := r.byID[u.ID]; !ok {
		return ErrNotFound
	}
	r.byID[u.ID] = u
	return nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

type testIssuer struct{}

func (testIssuer) Issue(ctx context.Context, userID, email string) (string, error) {
	return "token-" + userID, nil
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

type stubPerms struct {
	granted map[string]bool // userID:permission
}

func (p *stubPerms) HasPermission(ctx context.Context, userID, permissionName string) (bool, error) {
	return p.granted[userID+":"+permissionName], nil
}

func newTestService(perms PermissionChecker) (*Service, *testRepo) {
	repo := newTestRepo()
	return NewService(repo, testIssuer{}, authz.NewAuthorizer(nopStore{}), perms), repo
}

func TestService_Register_NormalizesEmail(t *testing.T) {
	svc, _ := newTestService(nil)

	u, err := svc.Register(context.Background(), RegisterInput{
		Email:     "  Juan.Perez@Example.COM ",
		Password:  "secret-pass",
		FirstName: " Juan ",
		LastName:  "Pérez",
	})
	require.NoError(t, err)
	assert.Equal(t, "juan.perez@example.com", u.Email)
	assert.Equal(t, "Juan", u.FirstName)
	assert.True(t, u.IsActive)
	assert.False(t, u.IsSuperuser, "registro nunca crea superusuarios")
	assert.NotEmpty(t, u.ID)
	assert.NotEqual(t, "secret-pass", u.PasswordHash)
}

func TestService_Register_Validation(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "no-arroba", Password: "secret-pass"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "corta"})
	assert.ErrorIs(t, err, ErrInvalidInput, "password mínimo 8")
}

func TestService_Register_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "secret-pass"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Email: "A@B.COM", Password: "secret-pass"})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestService_Authenticate(t *testing.T) {
	svc, repo := newTestService(nil)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "secret-pass"})
	require.NoError(t, err)

	got, token, err := svc.Authenticate(ctx, "a@b.com", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "token-"+u.ID, token)

	_, _, err = svc.Authenticate(ctx, "a@b.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Authenticate(ctx, "nadie@b.com", "secret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// cuenta desactivada no entra, aunque la clave sea correcta
	u.IsActive = false
	require.NoError(t, repo.Update(ctx, u))
	_, _, err = svc.Authenticate(ctx, "a@b.com", "secret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_LoadIdentity(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "secret-pass"})
	require.NoError(t, err)

	id, err := svc.LoadIdentity(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id.UserID)
	assert.True(t, id.IsActive)

	_, err = svc.LoadIdentity(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_List_RequiresAdmin(t *testing.T) {
	perms := &stubPerms{granted: map[string]bool{"auditor:users:read": true}}
	svc, _ := newTestService(perms)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "secret-pass"})
	require.NoError(t, err)

	_, err = svc.List(ctx, authz.User{ID: "random", IsActive: true})
	assert.True(t, errors.Is(err, authz.ErrForbidden))

	// superusuario pasa directo
	list, err := svc.List(ctx, authz.User{ID: "admin", IsActive: true, IsSuperuser: true})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// permiso nombrado vía rbac también alcanza
	list, err = svc.List(ctx, authz.User{ID: "auditor", IsActive: true})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestService_Deactivate(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "secret-pass"})
	require.NoError(t, err)

	// otro usuario sin permisos no puede
	_, err = svc.Deactivate(ctx, authz.User{ID: "other", IsActive: true}, u.ID)
	assert.True(t, errors.Is(err, authz.ErrForbidden))

	// el propio usuario sí
	got, err := svc.Deactivate(ctx, authz.User{ID: u.ID, IsActive: true}, u.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	// idempotente
	got, err = svc.Deactivate(ctx, authz.User{ID: u.ID, IsActive: true}, u.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}
