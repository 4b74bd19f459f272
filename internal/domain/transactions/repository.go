package transactions

import "context"

type Repository interface {
	Create(ctx context.Context, t Transaction) error
	// GetByID devuelve ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (Transaction, error)
	// ListByParty devuelve las transacciones donde el usuario es origen
	// o destino, más recientes primero.
	ListByParty(ctx context.Context, userID string) ([]Transaction, error)
	Update(ctx context.Context, t Transaction) error
	Delete(ctx context.Context, id string) error
}
