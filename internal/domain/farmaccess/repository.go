package farmaccess

import "context"

type Repository interface {
	// Create devuelve ErrAlreadyExists si ya hay un grant (user, farm).
	// La unicidad la respalda además el almacén (clave compuesta).
	Create(ctx context.Context, g Grant) error
	// Get devuelve ErrNotFound si no existe el par.
	Get(ctx context.Context, userID, farmID string) (Grant, error)
	Update(ctx context.Context, g Grant) error
	Delete(ctx context.Context, userID, farmID string) error
	DeleteByFarm(ctx context.Context, farmID string) error

	ListByUser(ctx context.Context, userID string) ([]Grant, error)
	ListByFarm(ctx context.Context, farmID string) ([]Grant, error)
}
