package lots

import "context"

type Repository interface {
	// Create devuelve ErrAlreadyExists si (farm_id, name) ya existe.
	Create(ctx context.Context, l Lot) error
	// GetByID devuelve ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (Lot, error)
	ListByFarm(ctx context.Context, farmID string) ([]Lot, error)
	Update(ctx context.Context, l Lot) error
	Delete(ctx context.Context, id string) error
	DeleteByFarm(ctx context.Context, farmID string) error
}
