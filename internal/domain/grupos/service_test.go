package grupos_test

import (
	"context"
	"errors"
	"testing"

	"finca-manager/internal/adapters/storage/memory"
	"finca-manager/internal/authz"
	"finca-manager/internal/domain/grupos"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// animalStore: animales de propiedad directa, sirve de Store y de
// AnimalSource.
type animalStore struct {
	animals map[string]authz.Animal
}

func (s *animalStore) FarmByID(ctx context.Context, id string) (authz.Farm, error) {
	return authz.Farm{}, authz.ErrNotFound
}
func (s *animalStore) LotByID(ctx context.Context, id string) (authz.Lot, error) {
	return authz.Lot{}, authz.ErrNotFound
}
func (s *animalStore) AnimalByID(ctx context.Context, id string) (authz.Animal, error) {
	a, ok := s.animals[id]
	if !ok {
		return authz.Animal{}, authz.ErrNotFound
	}
	return a, nil
}
func (s *animalStore) FarmIDsByOwner(ctx context.Context, userID string) ([]string, error) {
	return nil, nil
}
func (s *animalStore) HasActiveGrant(ctx context.Context, userID, farmID string) (bool, error) {
	return false, nil
}
func (s *animalStore) FarmIDsGranted(ctx context.Context, userID string) ([]string, error) {
	return nil, nil
}

func (s *animalStore) AnimalView(ctx context.Context, animalID string) (authz.Animal, error) {
	return s.AnimalByID(ctx, animalID)
}

var (
	rancher = authz.User{ID: "rancher", IsActive: true}
	other   = authz.User{ID: "other", IsActive: true}
)

func newTestService() *grupos.Service {
	store := &animalStore{animals: map[string]authz.Animal{
		"a1": {ID: "a1", OwnerUserID: "rancher"},
		"a2": {ID: "a2", OwnerUserID: "rancher"},
		"b1": {ID: "b1", OwnerUserID: "other"},
	}}
	return grupos.NewService(memory.NewGrupoRepo(), store, authz.NewAuthorizer(store))
}

func TestService_Create_UniqueNamePerCreator(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	g, err := svc.Create(ctx, rancher, grupos.CreateInput{Name: " Engorde 2026 "})
	require.NoError(t, err)
	assert.Equal(t, "Engorde 2026", g.Name)
	assert.Equal(t, "rancher", g.CreatedByUserID)

	_, err = svc.Create(ctx, rancher, grupos.CreateInput{Name: "Engorde 2026"})
	assert.ErrorIs(t, err, grupos.ErrAlreadyExists)

	// mismo nombre, otro creador: permitido
	_, err = svc.Create(ctx, other, grupos.CreateInput{Name: "Engorde 2026"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, rancher, grupos.CreateInput{Name: "  "})
	assert.ErrorIs(t, err, grupos.ErrInvalidInput)
}

func TestService_CreatorOnly(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	g, err := svc.Create(ctx, rancher, grupos.CreateInput{Name: "Engorde"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, other, g.ID)
	assert.True(t, errors.Is(err, authz.ErrForbidden))

	name := "Otro nombre"
	_, err = svc.Update(ctx, other, g.ID, grupos.UpdateInput{Name: &name})
	assert.True(t, errors.Is(err, authz.ErrForbidden))

	err = svc.Delete(ctx, other, g.ID)
	assert.True(t, errors.Is(err, authz.ErrForbidden))

	// superusuario sí
	_, err = svc.Get(ctx, authz.User{ID: "admin", IsSuperuser: true, IsActive: true}, g.ID)
	require.NoError(t, err)
}

func TestService_Members(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	g, err := svc.Create(ctx, rancher, grupos.CreateInput{Name: "Engorde"})
	require.NoError(t, err)

	m, err := svc.AddMember(ctx, rancher, g.ID, grupos.AddMemberInput{AnimalID: "a1", Notes: "entró flaco"})
	require.NoError(t, err)
	assert.Equal(t, "a1", m.AnimalID)

	// duplicado
	_, err = svc.AddMember(ctx, rancher, g.ID, grupos.AddMemberInput{AnimalID: "a1"})
	assert.ErrorIs(t, err, grupos.ErrAlreadyExists)

	// animal ajeno: sin acceso de lectura no entra al grupo
	_, err = svc.AddMember(ctx, rancher, g.ID, grupos.AddMemberInput{AnimalID: "b1"})
	assert.True(t, errors.Is(err, authz.ErrForbidden))

	// animal inexistente
	_, err = svc.AddMember(ctx, rancher, g.ID, grupos.AddMemberInput{AnimalID: "ghost"})
	assert.ErrorIs(t, err, grupos.ErrNotFound)

	_, err = svc.AddMember(ctx, rancher, g.ID, grupos.AddMemberInput{AnimalID: "a2"})
	require.NoError(t, err)

	members, err := svc.ListMembers(ctx, rancher, g.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	require.NoError(t, svc.RemoveMember(ctx, rancher, g.ID, "a1"))
	err = svc.RemoveMember(ctx, rancher, g.ID, "a1")
	assert.ErrorIs(t, err, grupos.ErrNotFound)

	members, err = svc.ListMembers(ctx, rancher, g.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "a2", members[0].AnimalID)
}

func TestService_Delete_DropsMembers(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	g, err := svc.Create(ctx, rancher, grupos.CreateInput{Name: "Engorde"})
	require.NoError(t, err)
	_, err = svc.AddMember(ctx, rancher, g.ID, grupos.AddMemberInput{AnimalID: "a1"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, rancher, g.ID))

	_, err = svc.Get(ctx, rancher, g.ID)
	assert.ErrorIs(t, err, grupos.ErrNotFound)

	// recrear con el mismo nombre arranca vacío
	g2, err := svc.Create(ctx, rancher, grupos.CreateInput{Name: "Engorde"})
	require.NoError(t, err)
	members, err := svc.ListMembers(ctx, rancher, g2.ID)
	require.NoError(t, err)
	assert.Empty(t, members)
}
