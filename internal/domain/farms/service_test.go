package farms_test

import (
	"context"
	"errors"
	"testing"

	"finca-manager/internal/adapters/storage/memory"
	"finca-manager/internal/authz"
	"finca-manager/internal/domain/farms"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// repoStore delega las fincas al repo real y simula los grants.
type repoStore struct {
	repo   farms.Repository
	grants map[string][]string
}

func (s *repoStore) FarmByID(ctx context.Context, id string) (authz.Farm, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return authz.Farm{}, authz.ErrNotFound
	}
	return farms.AuthzView(f), nil
}

func (s *repoStore) LotByID(ctx context.Context, id string) (authz.Lot, error) {
	return authz.Lot{}, authz.ErrNotFound
}

func (s *repoStore) AnimalByID(ctx context.Context, id string) (authz.Animal, error) {
	return authz.Animal{}, authz.ErrNotFound
}

func (s *repoStore) FarmIDsByOwner(ctx context.Context, userID string) ([]string, error) {
	return s.repo.IDsByOwner(ctx, userID)
}

func (s *repoStore) HasActiveGrant(ctx context.Context, userID, farmID string) (bool, error) {
	for _, id := range s.grants[userID] {
		if id == farmID {
			return true, nil
		}
	}
	return false, nil
}

func (s *repoStore) FarmIDsGranted(ctx context.Context, userID string) ([]string, error) {
	return s.grants[userID], nil
}

type fixture struct {
	svc     *farms.Service
	store   *repoStore
	cascade struct {
		lots   []string
		grants []string
	}
}

func newFixture() *fixture {
	repo := memory.NewFarmRepo()
	fx := &fixture{}
	fx.store = &repoStore{repo: repo, grants: map[string][]string{}}
	fx.svc = farms.NewService(repo, authz.NewAuthorizer(fx.store), farms.CascadeDeps{
		DeleteLotsByFarm: func(ctx context.Context, farmID string) error {
			fx.cascade.lots = append(fx.cascade.lots, farmID)
			return nil
		},
		DeleteGrantsByFarm: func(ctx context.Context, farmID string) error {
			fx.cascade.grants = append(fx.cascade.grants, farmID)
			return nil
		},
	})
	return fx
}

var (
	owner = authz.User{ID: "owner", IsActive: true}
	guest = authz.User{ID: "guest", IsActive: true}
)

func TestService_Create(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	f, err := fx.svc.Create(ctx, owner, farms.CreateInput{Name: "  La Esperanza ", Location: "Meta"})
	require.NoError(t, err)
	assert.Equal(t, "La Esperanza", f.Name)
	assert.Equal(t, "owner", f.OwnerUserID)

	_, err = fx.svc.Create(ctx, owner, farms.CreateInput{Name: "   "})
	assert.ErrorIs(t, err, farms.ErrInvalidInput)
}

func TestService_Get_OwnerOnly(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	f, err := fx.svc.Create(ctx, owner, farms.CreateInput{Name: "La Esperanza"})
	require.NoError(t, err)

	_, err = fx.svc.Get(ctx, owner, f.ID)
	require.NoError(t, err)

	// el grant da acceso a lotes y animales, no a la finca como objeto
	fx.store.grants["guest"] = []string{f.ID}
	_, err = fx.svc.Get(ctx, guest, f.ID)
	assert.True(t, errors.Is(err, authz.ErrForbidden))

	_, err = fx.svc.Get(ctx, owner, "nope")
	assert.ErrorIs(t, err, farms.ErrNotFound)
}

func TestService_ListAccessible_IncludesGranted(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	f1, err := fx.svc.Create(ctx, owner, farms.CreateInput{Name: "Propia"})
	require.NoError(t, err)
	f2, err := fx.svc.Create(ctx, guest, farms.CreateInput{Name: "Del delegado"})
	require.NoError(t, err)
	fx.store.grants["guest"] = []string{f1.ID}

	mine, err := fx.svc.ListMine(ctx, guest)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, f2.ID, mine[0].ID)

	all, err := fx.svc.ListAccessible(ctx, guest)
	require.NoError(t, err)
	assert.Len(t, all, 2, "propias más compartidas")
}

func TestService_Update_OwnerOnly(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	f, err := fx.svc.Create(ctx, owner, farms.CreateInput{Name: "La Esperanza"})
	require.NoError(t, err)

	name := "Renombrada"
	_, err = fx.svc.Update(ctx, guest, f.ID, farms.UpdateInput{Name: &name})
	assert.True(t, errors.Is(err, authz.ErrForbidden))

	got, err := fx.svc.Update(ctx, owner, f.ID, farms.UpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renombrada", got.Name)

	empty := "  "
	_, err = fx.svc.Update(ctx, owner, f.ID, farms.UpdateInput{Name: &empty})
	assert.ErrorIs(t, err, farms.ErrInvalidInput)
}

func TestService_Delete_Cascades(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	f, err := fx.svc.Create(ctx, owner, farms.CreateInput{Name: "La Esperanza"})
	require.NoError(t, err)

	err = fx.svc.Delete(ctx, guest, f.ID)
	assert.True(t, errors.Is(err, authz.ErrForbidden))

	require.NoError(t, fx.svc.Delete(ctx, owner, f.ID))
	assert.Equal(t, []string{f.ID}, fx.cascade.lots)
	assert.Equal(t, []string{f.ID}, fx.cascade.grants)

	_, err = fx.svc.Get(ctx, owner, f.ID)
	assert.ErrorIs(t, err, farms.ErrNotFound)
}

func TestRepo_Create_DuplicateID(t *testing.T) {
	repo := memory.NewFarmRepo()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, farms.Farm{ID: "f1", Name: "A", OwnerUserID: "owner"}))
	err := repo.Create(ctx, farms.Farm{ID: "f1", Name: "B", OwnerUserID: "owner"})
	assert.ErrorIs(t, err, farms.ErrAlreadyExists)
}
