package farmaccess

import (
	"context"
	"errors"
	"testing"
	"time"

	"finca-manager/internal/authz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------------
// Stubs
// -------------------------

type grantKey struct{ userID, farmID string }

type testRepo struct {
	byKey map[grantKey]Grant
}

func newTestRepo() *testRepo { return &testRepo{byKey: map[grantKey]Grant{}} }

func (r *testRepo) Create(ctx context.Context, g Grant) error {
	k := grantKey{g.UserID, g.FarmID}
	if _, ok := r.byKey[k]; ok {
		return ErrAlreadyExists
	}
	r.byKey[k] = g
	return nil
}

func (r *testRepo) Get(ctx context.Context, userID, farmID string) (Grant, error) {
	g, ok := r.byKey[grantKey{userID, farmID}]
	if !ok {
		return Grant{}, ErrNotFound
	}
	return g, nil
}

func (r *testRepo) Update(ctx context.Context, g Grant) error {
	k := grantKey{g.UserID, g.FarmID}
	if _, ok := r.byKey[k]; !ok {
		return ErrNotFound
	}
	r.byKey[k] = g
	return nil
}

func (r *testRepo) Delete(ctx context.Context, userID, farmID string) error {
	delete(r.byKey, grantKey{userID, farmID})
	return nil
}

func (r *testRepo) DeleteByFarm(ctx context.Context, farmID string) error {
	for k := range r.byKey {
		if k.farmID == farmID {
			delete(r.byKey, k)
		}
	}
	return nil
}

func (r *testRepo) ListByUser(ctx context.Context, userID string) ([]Grant, error) {
	var out []Grant
	for _, g := range r.byKey {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *testRepo) ListByFarm(ctx context.Context, farmID string) ([]Grant, error) {
	var out []Grant
	for _, g := range r.byKey {
		if g.FarmID == farmID {
			out = append(out, g)
		}
	}
	return out, nil
}

type testFarms struct {
	byID map[string]authz.Farm
}

func (f *testFarms) FarmView(ctx context.Context, farmID string) (authz.Farm, error) {
	v, ok := f.byID[farmID]
	if !ok {
		return authz.Farm{}, authz.ErrNotFound
	}
	return v, nil
}

type testUsers struct {
	known map[string]bool
}

func (u *testUsers) Exists(ctx context.Context, userID string) (bool, error) {
	return u.known[userID], nil
}

// nopStore: este servicio no resuelve grafo, las decisiones sobre el
// grant salen solo del engine.
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

func newTestService() (*Service, *testRepo) {
	repo := newTestRepo()
	farms := &testFarms{byID: map[string]authz.Farm{
		"f1": {ID: "f1", OwnerUserID: "owner"},
	}}
	users := &testUsers{known: map[string]bool{"owner": true, "guest": true}}
	svc := NewService(repo, farms, users, authz.NewAuthorizer(nopStore{}))
	return svc, repo
}

// -------------------------
// Tests
// -------------------------

var owner = authz.User{ID: "owner", IsActive: true}

func TestService_Grant_DefaultsToView(t *testing.T) {
	svc, _ := newTestService()

	g, err := svc.Grant(context.Background(), owner, GrantInput{UserID: "guest", FarmID: "f1"})
	require.NoError(t, err)
	assert.Equal(t, LevelView, g.Level)
	assert.Equal(t, "owner", g.AssignedByUserID)
	assert.True(t, g.ActiveAt(time.Now()))
}

func TestService_Grant_OnlyOwnerShares(t *testing.T) {
	svc, _ := newTestService()
	stranger := authz.User{ID: "stranger", IsActive: true}

	_, err := svc.Grant(context.Background(), stranger, GrantInput{UserID: "guest", FarmID: "f1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, authz.ErrForbidden))
}

func TestService_Grant_OwnerAsGranteeRejected(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Grant(context.Background(), owner, GrantInput{UserID: "owner", FarmID: "f1"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_Grant_UnknownGrantee(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Grant(context.Background(), owner, GrantInput{UserID: "ghost", FarmID: "f1"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Grant_DuplicateActiveConflicts(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Grant(ctx, owner, GrantInput{UserID: "guest", FarmID: "f1"})
	require.NoError(t, err)

	_, err = svc.Grant(ctx, owner, GrantInput{UserID: "guest", FarmID: "f1", Level: LevelManage})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestService_Grant_PastExpiryRejected(t *testing.T) {
	svc, _ := newTestService()
	past := time.Now().Add(-time.Hour)

	_, err := svc.Grant(context.Background(), owner, GrantInput{UserID: "guest", FarmID: "f1", ExpiresAt: &past})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_Revoke_Idempotent(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.Grant(ctx, owner, GrantInput{UserID: "guest", FarmID: "f1"})
	require.NoError(t, err)

	g, err := svc.Revoke(ctx, owner, "guest", "f1")
	require.NoError(t, err)
	require.NotNil(t, g.RevokedAt)
	first := *g.RevokedAt

	// segundo revoke: mismo timestamp, sin error
	g, err = svc.Revoke(ctx, owner, "guest", "f1")
	require.NoError(t, err)
	require.NotNil(t, g.RevokedAt)
	assert.Equal(t, first, *g.RevokedAt)

	stored, err := repo.Get(ctx, "guest", "f1")
	require.NoError(t, err)
	assert.False(t, stored.ActiveAt(time.Now()))
}

func TestService_Grant_ReactivatesRevoked(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.Grant(ctx, owner, GrantInput{UserID: "guest", FarmID: "f1"})
	require.NoError(t, err)
	_, err = svc.Revoke(ctx, owner, "guest", "f1")
	require.NoError(t, err)

	g, err := svc.Grant(ctx, owner, GrantInput{UserID: "guest", FarmID: "f1", Level: LevelManage})
	require.NoError(t, err)
	assert.Nil(t, g.RevokedAt)
	assert.Equal(t, LevelManage, g.Level)

	// reactivado sobre la misma fila, no hay una segunda
	assert.Len(t, repo.byKey, 1)
}

func TestService_Grant_ReactivatesExpired(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	soon := time.Now().Add(time.Minute)
	_, err := svc.Grant(ctx, owner, GrantInput{UserID: "guest", FarmID: "f1", ExpiresAt: &soon})
	require.NoError(t, err)

	// avanzamos el reloj del servicio más allá de la expiración
	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	g, err := svc.Grant(ctx, owner, GrantInput{UserID: "guest", FarmID: "f1"})
	require.NoError(t, err)
	assert.Nil(t, g.ExpiresAt)
	assert.True(t, g.ActiveAt(svc.now()))
}

func TestService_HardDelete_SuperuserOnly(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.Grant(ctx, owner, GrantInput{UserID: "guest", FarmID: "f1"})
	require.NoError(t, err)

	err = svc.HardDelete(ctx, owner, "guest", "f1")
	assert.True(t, errors.Is(err, authz.ErrForbidden), "ni el dueño borra en duro")

	admin := authz.User{ID: "admin", IsActive: true, IsSuperuser: true}
	require.NoError(t, svc.HardDelete(ctx, admin, "guest", "f1"))
	assert.Empty(t, repo.byKey)
}
