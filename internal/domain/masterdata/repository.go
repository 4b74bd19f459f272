package masterdata

import "context"

type Repository interface {
	// Create devuelve ErrAlreadyExists si (category, name) ya existe.
	Create(ctx context.Context, it Item) error
	// GetByID devuelve ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (Item, error)
	// List filtra por categoría si category != "".
	List(ctx context.Context, category string) ([]Item, error)
	Update(ctx context.Context, it Item) error
	Delete(ctx context.Context, id string) error
}
