package transactions_test

import (
	"context"
	"errors"
	"testing"

	"finca-manager/internal/adapters/storage/memory"
	"finca-manager/internal/authz"
	"finca-manager/internal/domain/transactions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testTargets struct {
	owners map[transactions.Target]string
}

func (r *testTargets) ResolveTargetOwner(ctx context.Context, t transactions.Target) (string, error) {
	owner, ok := r.owners[t]
	if !ok {
		return "", errors.New("target not found")
	}
	return owner, nil
}

type testUsers struct{ known map[string]bool }

func (u *testUsers) UserExists(ctx context.Context, userID string) (bool, error) {
	return u.known[userID], nil
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

var (
	seller = authz.User{ID: "seller", IsActive: true}
	buyer  = authz.User{ID: "buyer", IsActive: true}
	admin  = authz.User{ID: "admin", IsActive: true, IsSuperuser: true}

	cow   = transactions.Target{Kind: transactions.TargetAnimal, ID: "a1"}
	finca = transactions.Target{Kind: transactions.TargetFarm, ID: "f1"}
)

func newTestService() *transactions.Service {
	targets := &testTargets{owners: map[transactions.Target]string{cow: "seller", finca: "seller"}}
	users := &testUsers{known: map[string]bool{"seller": true, "buyer": true}}
	return transactions.NewService(memory.NewTransactionRepo(), targets, users, authz.NewAuthorizer(nopStore{}))
}

func saleInput() transactions.CreateInput {
	to := "buyer"
	return transactions.CreateInput{
		Type:     transactions.TxSale,
		Target:   cow,
		ToUserID: &to,
		Amount:   1500,
		Currency: "usd",
	}
}

func TestService_Create(t *testing.T) {
	svc := newTestService()

	tx, err := svc.Create(context.Background(), seller, saleInput())
	require.NoError(t, err)
	assert.Equal(t, "seller", tx.FromUserID, "el origen es el dueño del recurso")
	assert.Equal(t, "USD", tx.Currency)
	assert.False(t, tx.TransactionDate.IsZero())
}

func TestService_Create_Validation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	in := saleInput()
	in.Type = "barter"
	_, err := svc.Create(ctx, seller, in)
	assert.ErrorIs(t, err, transactions.ErrInvalidInput)

	in = saleInput()
	in.Target.Kind = "tractor"
	_, err = svc.Create(ctx, seller, in)
	assert.ErrorIs(t, err, transactions.ErrInvalidInput)

	in = saleInput()
	in.Amount = -1
	_, err = svc.Create(ctx, seller, in)
	assert.ErrorIs(t, err, transactions.ErrInvalidInput)

	// recurso inexistente
	in = saleInput()
	in.Target.ID = "ghost"
	_, err = svc.Create(ctx, seller, in)
	assert.ErrorIs(t, err, transactions.ErrInvalidInput)

	// contraparte desconocida
	in = saleInput()
	ghost := "ghost"
	in.ToUserID = &ghost
	_, err = svc.Create(ctx, seller, in)
	assert.ErrorIs(t, err, transactions.ErrInvalidInput)

	// contraparte igual al dueño
	in = saleInput()
	self := "seller"
	in.ToUserID = &self
	_, err = svc.Create(ctx, seller, in)
	assert.ErrorIs(t, err, transactions.ErrInvalidInput)
}

func TestService_Create_OnlyResourceOwner(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	// buyer no es dueño de la vaca
	in := saleInput()
	in.ToUserID = nil
	_, err := svc.Create(ctx, buyer, in)
	assert.True(t, errors.Is(err, authz.ErrForbidden))

	// superusuario registra a nombre del dueño real
	tx, err := svc.Create(ctx, admin, saleInput())
	require.NoError(t, err)
	assert.Equal(t, "seller", tx.FromUserID, "el origen sigue siendo el dueño, no el admin")
}

func TestService_Get_PartiesOnly(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	tx, err := svc.Create(ctx, seller, saleInput())
	require.NoError(t, err)

	_, err = svc.Get(ctx, seller, tx.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, buyer, tx.ID)
	require.NoError(t, err)

	_, err = svc.Get(ctx, authz.User{ID: "stranger", IsActive: true}, tx.ID)
	assert.True(t, errors.Is(err, authz.ErrForbidden))
}

func TestService_Update_FromOnly_ImmutableTarget(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	tx, err := svc.Create(ctx, seller, saleInput())
	require.NoError(t, err)

	// la contraparte lee pero no edita
	amount := 2000.0
	_, err = svc.Update(ctx, buyer, tx.ID, transactions.UpdateInput{Amount: &amount})
	assert.True(t, errors.Is(err, authz.ErrForbidden))

	got, err := svc.Update(ctx, seller, tx.ID, transactions.UpdateInput{Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, 2000.0, got.Amount)
	assert.Equal(t, cow, got.Target, "el target no cambia en updates")
	assert.Equal(t, "seller", got.FromUserID)
}

func TestService_ListMine_BothDirections(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, seller, saleInput())
	require.NoError(t, err)

	mine, err := svc.ListMine(ctx, seller)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := svc.ListMine(ctx, buyer)
	require.NoError(t, err)
	assert.Len(t, theirs, 1, "la contraparte también la ve en su listado")

	nothing, err := svc.ListMine(ctx, authz.User{ID: "stranger", IsActive: true})
	require.NoError(t, err)
	assert.Empty(t, nothing)
}

func TestService_Delete_FromOnly(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	tx, err := svc.Create(ctx, seller, saleInput())
	require.NoError(t, err)

	err = svc.Delete(ctx, buyer, tx.ID)
	assert.True(t, errors.Is(err, authz.ErrForbidden))

	require.NoError(t, svc.Delete(ctx, seller, tx.ID))
	_, err = svc.Get(ctx, seller, tx.ID)
	assert.ErrorIs(t, err, transactions.ErrNotFound)
}

func TestService_FarmEndpoints(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	src := "f1"
	in := saleInput()
	in.SourceFarmID = &src
	tx, err := svc.Create(ctx, seller, in)
	require.NoError(t, err)
	require.NotNil(t, tx.SourceFarmID)
	assert.Equal(t, "f1", *tx.SourceFarmID)
	assert.Nil(t, tx.DestFarmID)

	// finca inexistente
	ghost := "nope"
	in = saleInput()
	in.SourceFarmID = &ghost
	_, err = svc.Create(ctx, seller, in)
	assert.ErrorIs(t, err, transactions.ErrInvalidInput)

	// el destino se puede fijar después
	dst := "f1"
	tx, err = svc.Update(ctx, seller, tx.ID, transactions.UpdateInput{DestFarmID: &dst})
	require.NoError(t, err)
	require.NotNil(t, tx.DestFarmID)
	assert.Equal(t, "f1", *tx.DestFarmID)

	// blanco lo limpia
	blank := "  "
	tx, err = svc.Update(ctx, seller, tx.ID, transactions.UpdateInput{SourceFarmID: &blank})
	require.NoError(t, err)
	assert.Nil(t, tx.SourceFarmID)
}
