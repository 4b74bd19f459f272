package animals

import (
	"context"
	"time"

	"finca-manager/internal/authz"

	"github.com/google/uuid"
)

// LocationEntry es una fila del historial de ubicaciones: en qué finca
// y lote estuvo el animal y entre qué fechas. ExitAt nil = sigue ahí.
type LocationEntry struct {
	ID       string
	AnimalID string
	FarmID   string
	LotID    string
	EntryAt  time.Time
	ExitAt   *time.Time
	Reason   string

	CreatedAt time.Time
}

type LocationRepository interface {
	AppendLocation(ctx context.Context, e LocationEntry) error
	// CloseOpenLocation cierra la entrada abierta del animal, si la hay.
	CloseOpenLocation(ctx context.Context, animalID string, exitAt time.Time) error
	// CloseLocationsByLot cierra todas las entradas abiertas de un lote
	// (cascada de lots.Delete).
	CloseLocationsByLot(ctx context.Context, lotID string, exitAt time.Time) error
	// ListLocations devuelve el historial del animal, más reciente primero.
	ListLocations(ctx context.Context, animalID string) ([]LocationEntry, error)
	DeleteLocationsByAnimal(ctx context.Context, animalID string) error
}

// Locations devuelve el historial de ubicaciones del animal. Mismo
// control de acceso que la lectura del animal.
func (s *Service) Locations(ctx context.Context, actor authz.User, animalID string) ([]LocationEntry, error) {
	a, err := s.load(ctx, animalID)
	if err != nil {
		return nil, err
	}
	if err := s.authzr.Animal(ctx, actor, AuthzView(a), authz.OpRead); err != nil {
		return nil, err
	}
	return s.locations.ListLocations(ctx, a.ID)
}

// recordEntry abre una fila de historial para el lote destino.
func (s *Service) recordEntry(ctx context.Context, animalID string, lot authz.Lot, reason string, at time.Time) error {
	return s.locations.AppendLocation(ctx, LocationEntry{
		ID:        uuid.NewString(),
		AnimalID:  animalID,
		FarmID:    lot.FarmID,
		LotID:     lot.ID,
		EntryAt:   at,
		Reason:    reason,
		CreatedAt: at,
	})
}
