package auth

import (
	"context"
	"errors"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// AuthVerifier verifica un token y devuelve claims o error.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// TokenIssuer emite un bearer token para un usuario ya autenticado.
// El servicio de credenciales es una caja negra detrás de este port.
type TokenIssuer interface {
	Issue(ctx context.Context, userID, email string) (token string, err error)
}

// IdentityLoader resuelve claims a una Identity (flags de cuenta incluidos).
type IdentityLoader interface {
	LoadIdentity(ctx context.Context, userID string) (Identity, error)
}
