package animals

import "context"

type ListFilter struct {
	FarmID string
	LotID  string
	Status Status
	Limit  int
}

type Repository interface {
	// Create devuelve ErrAlreadyExists si el tag_id ya está en uso.
	Create(ctx context.Context, a Animal) error
	// GetByID devuelve ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (Animal, error)
	Update(ctx context.Context, a Animal) error
	Delete(ctx context.Context, id string) error

	// ListAccessible: animales del owner o ubicados en lotes de las
	// fincas dadas (el servicio resuelve qué fincas son accesibles).
	ListAccessible(ctx context.Context, ownerUserID string, farmIDs []string, f ListFilter) ([]Animal, error)
	IDsAccessible(ctx context.Context, ownerUserID string, farmIDs []string) ([]string, error)

	// ClearLot desasigna current_lot de todos los animales del lote.
	ClearLot(ctx context.Context, lotID string) error
}
