package masterdata_test

import (
	"context"
	"errors"
	"testing"

	"finca-manager/internal/adapters/storage/memory"
	"finca-manager/internal/authz"
	"finca-manager/internal/domain/masterdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

type stubPerms struct{ granted map[string]bool }

func (p *stubPerms) HasPermission(ctx context.Context, userID, permissionName string) (bool, error) {
	return p.granted[userID+":"+permissionName], nil
}

var (
	admin   = authz.User{ID: "admin", IsActive: true, IsSuperuser: true}
	curator = authz.User{ID: "curator", IsActive: true}
	mortal  = authz.User{ID: "mortal", IsActive: true}
)

func newTestService() *masterdata.Service {
	perms := &stubPerms{granted: map[string]bool{"curator:masterdata:manage": true}}
	return masterdata.NewService(memory.NewMasterDataRepo(), authz.NewAuthorizer(nopStore{}), perms)
}

func TestService_WritesAreGated(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, mortal, masterdata.CreateInput{Category: "species", Name: "Bovino"})
	assert.True(t, errors.Is(err, authz.ErrForbidden))

	// permiso masterdata:manage alcanza
	it, err := svc.Create(ctx, curator, masterdata.CreateInput{Category: " Species ", Name: "Bovino"})
	require.NoError(t, err)
	assert.Equal(t, "species", it.Category, "categoría normalizada")
	require.NotNil(t, it.CreatedByUserID)
	assert.Equal(t, "curator", *it.CreatedByUserID)

	// superusuario también
	_, err = svc.Create(ctx, admin, masterdata.CreateInput{Category: "species", Name: "Ovino"})
	require.NoError(t, err)
}

func TestService_UniquePerCategory(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, admin, masterdata.CreateInput{Category: "species", Name: "Bovino"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, admin, masterdata.CreateInput{Category: "species", Name: "Bovino"})
	assert.ErrorIs(t, err, masterdata.ErrAlreadyExists)

	// mismo nombre en otra categoría: permitido
	_, err = svc.Create(ctx, admin, masterdata.CreateInput{Category: "breed", Name: "Bovino"})
	require.NoError(t, err)
}

func TestService_ReadIsFree(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	sp, err := svc.Create(ctx, admin, masterdata.CreateInput{Category: "species", Name: "Bovino"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, masterdata.CreateInput{Category: "breed", Name: "Brahman", ParentID: &sp.ID})
	require.NoError(t, err)

	// cualquier usuario autenticado lee el catálogo
	got, err := svc.Get(ctx, sp.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bovino", got.Name)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	breeds, err := svc.List(ctx, "breed")
	require.NoError(t, err)
	require.Len(t, breeds, 1)
	assert.Equal(t, "Brahman", breeds[0].Name)
}

func TestService_UpdateAndDelete(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	it, err := svc.Create(ctx, admin, masterdata.CreateInput{Category: "unit", Name: "kg"})
	require.NoError(t, err)

	off := false
	_, err = svc.Update(ctx, mortal, it.ID, masterdata.UpdateInput{IsActive: &off})
	assert.True(t, errors.Is(err, authz.ErrForbidden))

	got, err := svc.Update(ctx, curator, it.ID, masterdata.UpdateInput{IsActive: &off})
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	err = svc.Delete(ctx, curator, it.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, it.ID)
	assert.ErrorIs(t, err, masterdata.ErrNotFound)

	err = svc.Delete(ctx, curator, it.ID)
	assert.ErrorIs(t, err, masterdata.ErrNotFound)
}
