package authz

import (
	"context"
	"fmt"
)

// Authorizer junta resolver + engine detrás de una API por recurso.
// Los servicios ya cargaron la entidad (NotFound se reporta antes de
// llegar aquí); esto solo responde nil o ErrForbidden.
type Authorizer struct {
	resolver *Resolver
	engine   Engine
}

func NewAuthorizer(store Store) *Authorizer {
	return &Authorizer{resolver: NewResolver(store)}
}

func (a *Authorizer) Resolver() *Resolver { return a.resolver }

func verdictErr(v Verdict) error {
	if v.Allow {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrForbidden, v.Rule)
}

func (a *Authorizer) Farm(ctx context.Context, u User, f Farm, op Operation) error {
	facts, err := a.resolver.FarmAccess(ctx, u, f)
	if err != nil {
		// Facts irresolubles: se niega, fail closed.
		return fmt.Errorf("%w: unresolved facts: %v", ErrForbidden, err)
	}
	return verdictErr(a.engine.Farm(u, facts, op))
}

func (a *Authorizer) Lot(ctx context.Context, u User, l Lot, op Operation) error {
	farm, err := a.resolver.store.FarmByID(ctx, l.FarmID)
	if err != nil {
		// Finca del lote desaparecida (carrera de borrado): fail closed.
		return fmt.Errorf("%w: dangling farm reference: %v", ErrForbidden, err)
	}
	facts, err := a.resolver.FarmAccess(ctx, u, farm)
	if err != nil {
		return fmt.Errorf("%w: unresolved facts: %v", ErrForbidden, err)
	}
	return verdictErr(a.engine.Lot(u, facts, op))
}

func (a *Authorizer) Animal(ctx context.Context, u User, an Animal, op Operation) error {
	facts, err := a.resolver.AnimalAccess(ctx, u, an)
	if err != nil {
		return fmt.Errorf("%w: unresolved facts: %v", ErrForbidden, err)
	}
	return verdictErr(a.engine.Animal(u, facts, op))
}

func (a *Authorizer) Grupo(u User, g Grupo, op Operation) error {
	return verdictErr(a.engine.Grupo(u, a.resolver.GrupoAccess(u, g), op))
}

func (a *Authorizer) Event(ctx context.Context, u User, recordedByUserID string, animalIDs []string, op Operation) error {
	isRecorder := recordedByUserID != "" && recordedByUserID == u.ID

	hasAnimalAccess := false
	if !isRecorder && op == OpRead {
		ok, err := a.resolver.EventAccess(ctx, u, recordedByUserID, animalIDs)
		if err != nil {
			return fmt.Errorf("%w: unresolved facts: %v", ErrForbidden, err)
		}
		hasAnimalAccess = ok
	}

	return verdictErr(a.engine.Event(u, isRecorder, hasAnimalAccess, op))
}

func (a *Authorizer) Transaction(u User, fromOwnerUserID, toOwnerUserID string, op Operation) error {
	isFrom := fromOwnerUserID != "" && fromOwnerUserID == u.ID
	isTo := toOwnerUserID != "" && toOwnerUserID == u.ID
	return verdictErr(a.engine.Transaction(u, isFrom, isTo, op))
}

func (a *Authorizer) FarmGrant(u User, g FarmGrant, op Operation) error {
	return verdictErr(a.engine.FarmGrantAccess(u, g, op))
}

func (a *Authorizer) RoleAdmin(u User, op Operation) error {
	return verdictErr(a.engine.RoleAdmin(u, op))
}
