package users

import "context"

type Repository interface {
	// Create devuelve ErrAlreadyExists si el email ya está registrado.
	Create(ctx context.Context, u User) error
	// GetByID devuelve ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, u User) error
	Delete(ctx context.Context, id string) error
}
