package lots_test

import (
	"context"
	"errors"
	"testing"

	"finca-manager/internal/adapters/storage/memory"
	"finca-manager/internal/authz"
	"finca-manager/internal/domain/lots"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// farmStore simula fincas y grants; los lotes viven en el repo real.
type farmStore struct {
	farms  map[string]authz.Farm
	grants map[string][]string
	repo   lots.Repository
}

func (s *farmStore) FarmByID(ctx context.Context, id string) (authz.Farm, error) {
	f, ok := s.farms[id]
	if !ok {
		return authz.Farm{}, authz.ErrNotFound
	}
	return f, nil
}

func (s *farmStore) LotByID(ctx context.Context, id string) (authz.Lot, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return authz.Lot{}, authz.ErrNotFound
	}
	return lots.AuthzView(l), nil
}

func (s *farmStore) AnimalByID(ctx context.Context, id string) (authz.Animal, error) {
	return authz.Animal{}, authz.ErrNotFound
}

func (s *farmStore) FarmIDsByOwner(ctx context.Context, userID string) ([]string, error) {
	var out []string
	for _, f := range s.farms {
		if f.OwnerUserID == userID {
			out = append(out, f.ID)
		}
	}
	return out, nil
}

func (s *farmStore) HasActiveGrant(ctx context.Context, userID, farmID string) (bool, error) {
	for _, id := range s.grants[userID] {
		if id == farmID {
			return true, nil
		}
	}
	return false, nil
}

func (s *farmStore) FarmIDsGranted(ctx context.Context, userID string) ([]string, error) {
	return s.grants[userID], nil
}

func (s *farmStore) FarmView(ctx context.Context, farmID string) (authz.Farm, error) {
	return s.FarmByID(ctx, farmID)
}

type fixture struct {
	svc     *lots.Service
	store   *farmStore
	cleared []string
}

// Escenario: f1 de "owner"; "guest" tiene grant vigente sobre f1.
func newFixture() *fixture {
	repo := memory.NewLotRepo()
	fx := &fixture{}
	fx.store = &farmStore{
		farms:  map[string]authz.Farm{"f1": {ID: "f1", OwnerUserID: "owner"}},
		grants: map[string][]string{"guest": {"f1"}},
		repo:   repo,
	}
	fx.svc = lots.NewService(repo, fx.store, authz.NewAuthorizer(fx.store), func(ctx context.Context, lotID string) error {
		fx.cleared = append(fx.cleared, lotID)
		return nil
	})
	return fx
}

var (
	owner = authz.User{ID: "owner", IsActive: true}
	guest = authz.User{ID: "guest", IsActive: true}
)

func TestService_Create_FarmOwnerOnly(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	l, err := fx.svc.Create(ctx, owner, lots.CreateInput{FarmID: "f1", Name: " Potrero Norte "})
	require.NoError(t, err)
	assert.Equal(t, "Potrero Norte", l.Name)
	assert.Equal(t, "f1", l.FarmID)

	// el delegado lee lotes, no los crea
	_, err = fx.svc.Create(ctx, guest, lots.CreateInput{FarmID: "f1", Name: "Potrero Sur"})
	assert.True(t, errors.Is(err, authz.ErrForbidden))

	_, err = fx.svc.Create(ctx, owner, lots.CreateInput{FarmID: "nope", Name: "X"})
	assert.ErrorIs(t, err, lots.ErrNotFound)

	_, err = fx.svc.Create(ctx, owner, lots.CreateInput{FarmID: "f1", Name: "  "})
	assert.ErrorIs(t, err, lots.ErrInvalidInput)
}

func TestService_Create_DuplicateNameInFarm(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	_, err := fx.svc.Create(ctx, owner, lots.CreateInput{FarmID: "f1", Name: "Potrero Norte"})
	require.NoError(t, err)
	_, err = fx.svc.Create(ctx, owner, lots.CreateInput{FarmID: "f1", Name: "Potrero Norte"})
	assert.ErrorIs(t, err, lots.ErrAlreadyExists)
}

func TestService_Get_SharedReads(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	l, err := fx.svc.Create(ctx, owner, lots.CreateInput{FarmID: "f1", Name: "Potrero Norte"})
	require.NoError(t, err)

	_, err = fx.svc.Get(ctx, guest, l.ID)
	require.NoError(t, err)

	_, err = fx.svc.Get(ctx, authz.User{ID: "stranger", IsActive: true}, l.ID)
	assert.True(t, errors.Is(err, authz.ErrForbidden))
}

func TestService_ListByFarm(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	_, err := fx.svc.Create(ctx, owner, lots.CreateInput{FarmID: "f1", Name: "Norte"})
	require.NoError(t, err)
	_, err = fx.svc.Create(ctx, owner, lots.CreateInput{FarmID: "f1", Name: "Sur"})
	require.NoError(t, err)

	list, err := fx.svc.ListByFarm(ctx, guest, "f1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = fx.svc.ListByFarm(ctx, authz.User{ID: "stranger", IsActive: true}, "f1")
	assert.True(t, errors.Is(err, authz.ErrForbidden))
}

func TestService_Update_SharedCannotWrite(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	l, err := fx.svc.Create(ctx, owner, lots.CreateInput{FarmID: "f1", Name: "Norte"})
	require.NoError(t, err)

	name := "Norte Alto"
	_, err = fx.svc.Update(ctx, guest, l.ID, lots.UpdateInput{Name: &name})
	assert.True(t, errors.Is(err, authz.ErrForbidden))

	got, err := fx.svc.Update(ctx, owner, l.ID, lots.UpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Norte Alto", got.Name)
}

func TestService_Delete_ClearsAnimals(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	l, err := fx.svc.Create(ctx, owner, lots.CreateInput{FarmID: "f1", Name: "Norte"})
	require.NoError(t, err)

	err = fx.svc.Delete(ctx, guest, l.ID)
	assert.True(t, errors.Is(err, authz.ErrForbidden))

	require.NoError(t, fx.svc.Delete(ctx, owner, l.ID))
	assert.Equal(t, []string{l.ID}, fx.cleared, "los animales quedan sin lote, no se borran")

	_, err = fx.svc.Get(ctx, owner, l.ID)
	assert.ErrorIs(t, err, lots.ErrNotFound)
}
