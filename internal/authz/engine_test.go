package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEngine_Superuser_AlwaysAllows(t *testing.T) {
	var e Engine
	su := User{ID: "admin", IsActive: true, IsSuperuser: true}

	for _, op := range []Operation{OpRead, OpWrite, OpDelete} {
		assert.True(t, e.Farm(su, FarmFacts{}, op).Allow, "farm %s", op)
		assert.True(t, e.Lot(su, FarmFacts{}, op).Allow, "lot %s", op)
		assert.True(t, e.Animal(su, AnimalFacts{}, op).Allow, "animal %s", op)
		assert.True(t, e.Grupo(su, false, op).Allow, "grupo %s", op)
		assert.True(t, e.Event(su, false, false, op).Allow, "event %s", op)
		assert.True(t, e.Transaction(su, false, false, op).Allow, "transaction %s", op)
		assert.True(t, e.FarmGrantAccess(su, FarmGrant{}, op).Allow, "grant %s", op)
		assert.True(t, e.RoleAdmin(su, op).Allow, "rbac %s", op)
	}
}

func TestEngine_Farm_OwnerOnly(t *testing.T) {
	var e Engine
	u := User{ID: "u1", IsActive: true}

	for _, op := range []Operation{OpRead, OpWrite, OpDelete} {
		assert.True(t, e.Farm(u, FarmFacts{IsOwner: true}, op).Allow, "owner %s", op)
		// shared access NO alcanza para fincas, ni siquiera lectura
		assert.False(t, e.Farm(u, FarmFacts{HasSharedAccess: true}, op).Allow, "shared %s", op)
		assert.False(t, e.Farm(u, FarmFacts{}, op).Allow, "stranger %s", op)
	}
}

func TestEngine_Lot_SharedReadsButCannotWrite(t *testing.T) {
	var e Engine
	u := User{ID: "u1", IsActive: true}
	shared := FarmFacts{HasSharedAccess: true}

	assert.True(t, e.Lot(u, shared, OpRead).Allow)
	assert.False(t, e.Lot(u, shared, OpWrite).Allow)
	assert.False(t, e.Lot(u, shared, OpDelete).Allow)

	owner := FarmFacts{IsOwner: true}
	assert.True(t, e.Lot(u, owner, OpRead).Allow)
	assert.True(t, e.Lot(u, owner, OpWrite).Allow)
	assert.True(t, e.Lot(u, owner, OpDelete).Allow)
}

func TestEngine_Animal_FarmAccessCannotDelete(t *testing.T) {
	var e Engine
	u := User{ID: "u1", IsActive: true}
	farmAccess := AnimalFacts{HasFarmAccess: true}

	assert.True(t, e.Animal(u, farmAccess, OpRead).Allow)
	assert.True(t, e.Animal(u, farmAccess, OpWrite).Allow)
	// borrar es owner-only aunque tenga acceso vía finca
	assert.False(t, e.Animal(u, farmAccess, OpDelete).Allow)

	owner := AnimalFacts{IsOwner: true}
	assert.True(t, e.Animal(u, owner, OpDelete).Allow)
}

func TestEngine_Grupo_CreatorOnly(t *testing.T) {
	var e Engine
	u := User{ID: "u1", IsActive: true}

	assert.True(t, e.Grupo(u, true, OpWrite).Allow)
	assert.False(t, e.Grupo(u, false, OpRead).Allow)
}

func TestEngine_Event_RecorderVsAnimalAccess(t *testing.T) {
	var e Engine
	u := User{ID: "u1", IsActive: true}

	// con acceso a un animal afectado: solo lectura
	assert.True(t, e.Event(u, false, true, OpRead).Allow)
	assert.False(t, e.Event(u, false, true, OpWrite).Allow)
	assert.False(t, e.Event(u, false, true, OpDelete).Allow)

	// quien registró puede todo
	assert.True(t, e.Event(u, true, false, OpRead).Allow)
	assert.True(t, e.Event(u, true, false, OpWrite).Allow)
	assert.True(t, e.Event(u, true, false, OpDelete).Allow)
}

func TestEngine_Transaction_PartiesReadOnlyFromWrites(t *testing.T) {
	var e Engine
	u := User{ID: "u1", IsActive: true}

	assert.True(t, e.Transaction(u, false, true, OpRead).Allow, "to-owner lee")
	assert.False(t, e.Transaction(u, false, true, OpWrite).Allow, "to-owner no edita")
	assert.True(t, e.Transaction(u, true, false, OpWrite).Allow, "from-owner edita")
	assert.False(t, e.Transaction(u, false, false, OpRead).Allow, "tercero no ve")
}

func TestEngine_FarmGrantAccess(t *testing.T) {
	var e Engine
	g := FarmGrant{UserID: "grantee", FarmID: "f1", AssignedByUserID: "grantor", FarmOwnerUserID: "owner"}

	grantee := User{ID: "grantee", IsActive: true}
	grantor := User{ID: "grantor", IsActive: true}
	owner := User{ID: "owner", IsActive: true}
	other := User{ID: "other", IsActive: true}

	assert.True(t, e.FarmGrantAccess(grantee, g, OpRead).Allow)
	assert.False(t, e.FarmGrantAccess(grantee, g, OpWrite).Allow, "grantee no edita su propio grant")
	assert.True(t, e.FarmGrantAccess(grantor, g, OpWrite).Allow)
	assert.True(t, e.FarmGrantAccess(owner, g, OpWrite).Allow)
	assert.False(t, e.FarmGrantAccess(other, g, OpRead).Allow)

	// hard delete: nadie salvo superuser
	assert.False(t, e.FarmGrantAccess(owner, g, OpDelete).Allow)
	assert.True(t, e.FarmGrantAccess(User{ID: "x", IsSuperuser: true}, g, OpDelete).Allow)
}

func TestEngine_DenyRuleNamesResource(t *testing.T) {
	var e Engine
	u := User{ID: "u1", IsActive: true}

	v := e.Farm(u, FarmFacts{}, OpDelete)
	assert.False(t, v.Allow)
	assert.Equal(t, "farm:delete:owner-only", v.Rule)
}
