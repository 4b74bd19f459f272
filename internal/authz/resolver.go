package authz

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Store es la lectura mínima que el resolver necesita para caminar el
// grafo user → farm → lot → animal. Las implementaciones deben devolver
// (o envolver) ErrNotFound cuando la entidad no existe.
type Store interface {
	FarmByID(ctx context.Context, id string) (Farm, error)
	LotByID(ctx context.Context, id string) (Lot, error)
	AnimalByID(ctx context.Context, id string) (Animal, error)

	FarmIDsByOwner(ctx context.Context, userID string) ([]string, error)

	// Grants vigentes (no revocados, no expirados).
	HasActiveGrant(ctx context.Context, userID, farmID string) (bool, error)
	FarmIDsGranted(ctx context.Context, userID string) ([]string, error)
}

// Resolver computa access facts caminando el grafo de entidades.
// No sostiene locks ni estado propio: cada llamada lee del Store.
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// FarmAccess: is_owner por owner_user_id; shared por grant vigente.
func (r *Resolver) FarmAccess(ctx context.Context, u User, f Farm) (FarmFacts, error) {
	facts := FarmFacts{IsOwner: f.OwnerUserID == u.ID}
	if facts.IsOwner {
		// Un grant sobre la propia finca no aporta nada; no consultamos.
		return facts, nil
	}

	shared, err := r.store.HasActiveGrant(ctx, u.ID, f.ID)
	if err != nil {
		return FarmFacts{}, err
	}
	facts.HasSharedAccess = shared
	return facts, nil
}

// AnimalAccess: owner directo, o acceso transitivo vía lote → finca.
// Animal sin lote y usuario no-owner: has_farm_access = false.
// Referencia colgante (lote o finca borrados en carrera): también false,
// nunca error: el engine debe negar, no el request reventar.
func (r *Resolver) AnimalAccess(ctx context.Context, u User, a Animal) (AnimalFacts, error) {
	facts := AnimalFacts{IsOwner: a.OwnerUserID == u.ID}
	if facts.IsOwner {
		return facts, nil
	}
	if a.CurrentLotID == nil {
		return facts, nil
	}

	lot, err := r.store.LotByID(ctx, *a.CurrentLotID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return facts, nil
		}
		return AnimalFacts{}, err
	}

	farm, err := r.store.FarmByID(ctx, lot.FarmID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return facts, nil
		}
		return AnimalFacts{}, err
	}

	ff, err := r.FarmAccess(ctx, u, farm)
	if err != nil {
		return AnimalFacts{}, err
	}
	facts.HasFarmAccess = ff.IsOwner || ff.HasSharedAccess
	return facts, nil
}

// AccessibleFarmIDs: unión de fincas propias y fincas con grant vigente.
// Sirve para filtrar listados sin resolver item por item.
func (r *Resolver) AccessibleFarmIDs(ctx context.Context, u User) ([]string, error) {
	owned, err := r.store.FarmIDsByOwner(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	granted, err := r.store.FarmIDsGranted(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(owned)+len(granted))
	out := make([]string, 0, len(owned)+len(granted))
	for _, id := range owned {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, id := range granted {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// eventCheckLimit acota el fan-out de lecturas por evento.
const eventCheckLimit = 4

// EventAccess: true si el usuario registró el evento, o si tiene acceso
// (owner o finca) a al menos un animal afectado. Chequeo existencial:
// los animales se verifican concurrentemente, el orden no importa.
func (r *Resolver) EventAccess(ctx context.Context, u User, recordedByUserID string, animalIDs []string) (bool, error) {
	if recordedByUserID != "" && recordedByUserID == u.ID {
		return true, nil
	}
	if len(animalIDs) == 0 {
		return false, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(eventCheckLimit)

	var allowed atomic.Bool
	for _, id := range animalIDs {
		id := id
		if allowed.Load() {
			break
		}
		g.Go(func() error {
			if allowed.Load() {
				return nil
			}
			a, err := r.store.AnimalByID(gctx, id)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					// Animal borrado: no otorga acceso por esa vía.
					return nil
				}
				return err
			}
			facts, err := r.AnimalAccess(gctx, u, a)
			if err != nil {
				return err
			}
			if facts.IsOwner || facts.HasFarmAccess {
				allowed.Store(true)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return false, err
	}
	return allowed.Load(), nil
}

// GrupoAccess: solo el creador. Sin sharing transitivo, a propósito.
func (r *Resolver) GrupoAccess(u User, g Grupo) bool {
	return g.CreatedByUserID == u.ID
}
