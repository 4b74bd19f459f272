package farms

import "context"

type Repository interface {
	Create(ctx context.Context, f Farm) error
	// GetByID devuelve ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (Farm, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]Farm, error)
	ListByIDs(ctx context.Context, ids []string) ([]Farm, error)
	IDsByOwner(ctx context.Context, ownerUserID string) ([]string, error)
	Update(ctx context.Context, f Farm) error
	Delete(ctx context.Context, id string) error
}
