package middleware

import (
	"context"
	"net/http"
	"strings"

	"finca-manager/internal/ports/auth"
)

type ctxKey string

const identityKey ctxKey = "identity"

// AuthContext:
// - Si verifier != nil y viene Bearer token => Verify() y carga la Identity.
// - Si verifier == nil => modo dev: header X-Debug-User-ID simula el login.
// - Si no hay identity, el request sigue igual; los handlers deciden 401.
// El token inválido o expirado se rechaza aquí mismo: ningún resolver
// corre con credenciales vencidas.
func AuthContext(verifier auth.AuthVerifier, loader auth.IdentityLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				// Dev mode: inyectar user sin verifier
				if uid := strings.TrimSpace(r.Header.Get("X-Debug-User-ID")); uid != "" {
					if ident, err := resolveIdentity(r.Context(), loader, uid, ""); err == nil {
						next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), ident)))
						return
					}
					// debug user no registrado: sigue sin identity
				}
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				// Credencial presente pero inválida: corte barato, 401 ya.
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ident, err := resolveIdentity(r.Context(), loader, claims.UserID, claims.Email)
			if err != nil {
				// Token válido pero el user ya no resuelve (borrado,
				// desactivado): mismo trato que credencial inválida.
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), ident)))
		})
	}
}

func resolveIdentity(ctx context.Context, loader auth.IdentityLoader, userID, email string) (auth.Identity, error) {
	if loader == nil {
		// Modo dev sin loader: identity mínima, sin privilegios.
		return auth.Identity{UserID: userID, Email: email, IsActive: true}, nil
	}
	return loader.LoadIdentity(ctx, userID)
}

func withIdentity(ctx context.Context, ident auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

// GetIdentity devuelve la identity del request, si la hay. Cuentas
// inactivas cuentan como no autenticadas.
func GetIdentity(ctx context.Context) (auth.Identity, bool) {
	v := ctx.Value(identityKey)
	if v == nil {
		return auth.Identity{}, false
	}
	ident, ok := v.(auth.Identity)
	if !ok || strings.TrimSpace(ident.UserID) == "" || !ident.IsActive {
		return auth.Identity{}, false
	}
	return ident, true
}

func bearerToken(authHeader string) string {
	if strings.TrimSpace(authHeader) == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
