package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore: grafo en memoria para el resolver. Devuelve ErrNotFound
// exactamente como exige el contrato de Store.
type fakeStore struct {
	farms   map[string]Farm
	lots    map[string]Lot
	animals map[string]Animal
	grants  map[string][]string // userID -> farmIDs con grant vigente
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		farms:   map[string]Farm{},
		lots:    map[string]Lot{},
		animals: map[string]Animal{},
		grants:  map[string][]string{},
	}
}

func (s *fakeStore) FarmByID(ctx context.Context, id string) (Farm, error) {
	f, ok := s.farms[id]
	if !ok {
		return Farm{}, ErrNotFound
	}
	return f, nil
}

func (s *fakeStore) LotByID(ctx context.Context, id string) (Lot, error) {
	l, ok := s.lots[id]
	if !ok {
		return Lot{}, ErrNotFound
	}
	return l, nil
}

func (s *fakeStore) AnimalByID(ctx context.Context, id string) (Animal, error) {
	a, ok := s.animals[id]
	if !ok {
		return Animal{}, ErrNotFound
	}
	return a, nil
}

func (s *fakeStore) FarmIDsByOwner(ctx context.Context, userID string) ([]string, error) {
	var out []string
	for _, f := range s.farms {
		if f.OwnerUserID == userID {
			out = append(out, f.ID)
		}
	}
	return out, nil
}

func (s *fakeStore) HasActiveGrant(ctx context.Context, userID, farmID string) (bool, error) {
	for _, id := range s.grants[userID] {
		if id == farmID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) FarmIDsGranted(ctx context.Context, userID string) ([]string, error) {
	return s.grants[userID], nil
}

func strptr(s string) *string { return &s }

func TestResolver_FarmAccess(t *testing.T) {
	st := newFakeStore()
	st.farms["f1"] = Farm{ID: "f1", OwnerUserID: "owner"}
	st.grants["guest"] = []string{"f1"}
	r := NewResolver(st)
	ctx := context.Background()

	facts, err := r.FarmAccess(ctx, User{ID: "owner"}, st.farms["f1"])
	require.NoError(t, err)
	assert.True(t, facts.IsOwner)
	assert.False(t, facts.HasSharedAccess)

	facts, err = r.FarmAccess(ctx, User{ID: "guest"}, st.farms["f1"])
	require.NoError(t, err)
	assert.False(t, facts.IsOwner)
	assert.True(t, facts.HasSharedAccess)

	facts, err = r.FarmAccess(ctx, User{ID: "stranger"}, st.farms["f1"])
	require.NoError(t, err)
	assert.False(t, facts.IsOwner)
	assert.False(t, facts.HasSharedAccess)
}

func TestResolver_AnimalAccess_ViaLotAndFarm(t *testing.T) {
	st := newFakeStore()
	st.farms["f1"] = Farm{ID: "f1", OwnerUserID: "owner"}
	st.lots["l1"] = Lot{ID: "l1", FarmID: "f1"}
	st.animals["a1"] = Animal{ID: "a1", OwnerUserID: "rancher", CurrentLotID: strptr("l1")}
	st.grants["guest"] = []string{"f1"}
	r := NewResolver(st)
	ctx := context.Background()

	// owner directo del animal
	facts, err := r.AnimalAccess(ctx, User{ID: "rancher"}, st.animals["a1"])
	require.NoError(t, err)
	assert.True(t, facts.IsOwner)

	// owner de la finca donde está el lote
	facts, err = r.AnimalAccess(ctx, User{ID: "owner"}, st.animals["a1"])
	require.NoError(t, err)
	assert.False(t, facts.IsOwner)
	assert.True(t, facts.HasFarmAccess)

	// grant vigente sobre la finca
	facts, err = r.AnimalAccess(ctx, User{ID: "guest"}, st.animals["a1"])
	require.NoError(t, err)
	assert.True(t, facts.HasFarmAccess)

	// nadie
	facts, err = r.AnimalAccess(ctx, User{ID: "stranger"}, st.animals["a1"])
	require.NoError(t, err)
	assert.False(t, facts.IsOwner)
	assert.False(t, facts.HasFarmAccess)
}

func TestResolver_AnimalAccess_NoLot(t *testing.T) {
	st := newFakeStore()
	st.animals["a1"] = Animal{ID: "a1", OwnerUserID: "rancher"} // sin lote
	r := NewResolver(st)

	facts, err := r.AnimalAccess(context.Background(), User{ID: "other"}, st.animals["a1"])
	require.NoError(t, err)
	assert.False(t, facts.HasFarmAccess)
}

func TestResolver_AnimalAccess_DanglingLot_FailsClosed(t *testing.T) {
	st := newFakeStore()
	// el lote l-gone no existe: referencia colgante
	st.animals["a1"] = Animal{ID: "a1", OwnerUserID: "rancher", CurrentLotID: strptr("l-gone")}
	r := NewResolver(st)

	facts, err := r.AnimalAccess(context.Background(), User{ID: "other"}, st.animals["a1"])
	require.NoError(t, err, "colgante no debe ser error, solo negar")
	assert.False(t, facts.HasFarmAccess)
}

func TestResolver_AnimalAccess_DanglingFarm_FailsClosed(t *testing.T) {
	st := newFakeStore()
	st.lots["l1"] = Lot{ID: "l1", FarmID: "f-gone"}
	st.animals["a1"] = Animal{ID: "a1", OwnerUserID: "rancher", CurrentLotID: strptr("l1")}
	r := NewResolver(st)

	facts, err := r.AnimalAccess(context.Background(), User{ID: "other"}, st.animals["a1"])
	require.NoError(t, err)
	assert.False(t, facts.HasFarmAccess)
}

func TestResolver_AccessibleFarmIDs_Union(t *testing.T) {
	st := newFakeStore()
	st.farms["f1"] = Farm{ID: "f1", OwnerUserID: "u1"}
	st.farms["f2"] = Farm{ID: "f2", OwnerUserID: "other"}
	st.grants["u1"] = []string{"f2", "f1"} // f1 repetida: propia + grant
	r := NewResolver(st)

	ids, err := r.AccessibleFarmIDs(context.Background(), User{ID: "u1"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"f1", "f2"}, ids, "unión sin duplicados")
}

func TestResolver_EventAccess(t *testing.T) {
	st := newFakeStore()
	st.farms["f1"] = Farm{ID: "f1", OwnerUserID: "owner"}
	st.lots["l1"] = Lot{ID: "l1", FarmID: "f1"}
	st.animals["a1"] = Animal{ID: "a1", OwnerUserID: "rancher", CurrentLotID: strptr("l1")}
	st.animals["a2"] = Animal{ID: "a2", OwnerUserID: "rancher"}
	r := NewResolver(st)
	ctx := context.Background()

	// quien registró, sin mirar animales
	ok, err := r.EventAccess(ctx, User{ID: "vet"}, "vet", nil)
	require.NoError(t, err)
	assert.True(t, ok)

	// acceso existencial: basta un animal accesible
	ok, err = r.EventAccess(ctx, User{ID: "owner"}, "vet", []string{"a2", "a1"})
	require.NoError(t, err)
	assert.True(t, ok)

	// animal borrado en el pivote no da acceso ni rompe
	ok, err = r.EventAccess(ctx, User{ID: "owner"}, "vet", []string{"a-gone"})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.EventAccess(ctx, User{ID: "stranger"}, "vet", []string{"a1", "a2"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthorizer_ForbiddenIsWrapped(t *testing.T) {
	st := newFakeStore()
	st.farms["f1"] = Farm{ID: "f1", OwnerUserID: "owner"}
	a := NewAuthorizer(st)
	ctx := context.Background()

	err := a.Farm(ctx, User{ID: "stranger"}, st.farms["f1"], OpWrite)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrForbidden))

	require.NoError(t, a.Farm(ctx, User{ID: "owner"}, st.farms["f1"], OpWrite))
}

func TestAuthorizer_Lot_DanglingFarm_FailsClosed(t *testing.T) {
	st := newFakeStore()
	a := NewAuthorizer(st)

	err := a.Lot(context.Background(), User{ID: "u1"}, Lot{ID: "l1", FarmID: "f-gone"}, OpRead)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrForbidden))
}
