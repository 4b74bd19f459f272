package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"finca-manager/internal/ports/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	claims auth.Claims
	err    error
}

func (v fakeVerifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	return v.claims, v.err
}

type fakeLoader struct {
	users map[string]auth.Identity
}

func (l fakeLoader) LoadIdentity(ctx context.Context, userID string) (auth.Identity, error) {
	ident, ok := l.users[userID]
	if !ok {
		return auth.Identity{}, errors.New("user not found")
	}
	return ident, nil
}

// echoIdentity responde 200 con la identity del contexto, o 401 si no hay.
func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, ok := GetIdentity(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Write([]byte(ident.UserID))
	})
}

func TestAuthContext_VerifiedUserLoads(t *testing.T) {
	verifier := fakeVerifier{claims: auth.Claims{UserID: "u-1", Email: "ana@finca.test"}}
	loader := fakeLoader{users: map[string]auth.Identity{
		"u-1": {UserID: "u-1", IsActive: true},
	}}

	h := AuthContext(verifier, loader)(echoIdentity())
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "u-1", rr.Body.String())
}

func TestAuthContext_DeletedUserTokenRejected(t *testing.T) {
	// el token sigue siendo válido pero el user ya no existe en el almacén
	verifier := fakeVerifier{claims: auth.Claims{UserID: "u-borrado"}}
	loader := fakeLoader{users: map[string]auth.Identity{}}

	h := AuthContext(verifier, loader)(echoIdentity())
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthContext_InactiveUserHasNoIdentity(t *testing.T) {
	verifier := fakeVerifier{claims: auth.Claims{UserID: "u-2"}}
	loader := fakeLoader{users: map[string]auth.Identity{
		"u-2": {UserID: "u-2", IsActive: false},
	}}

	h := AuthContext(verifier, loader)(echoIdentity())
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	// la identity llega al contexto pero GetIdentity la descarta
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthContext_InvalidTokenRejected(t *testing.T) {
	verifier := fakeVerifier{err: auth.ErrUnauthenticated}

	h := AuthContext(verifier, nil)(echoIdentity())
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthContext_DevMode(t *testing.T) {
	loader := fakeLoader{users: map[string]auth.Identity{
		"u-1": {UserID: "u-1", IsActive: true},
	}}
	h := AuthContext(nil, loader)(echoIdentity())

	// debug user registrado
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Debug-User-ID", "u-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	// debug user desconocido: sin identity, el handler decide 401
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Debug-User-ID", "fantasma")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// sin loader, el header se acepta tal cual
	h = AuthContext(nil, nil)(echoIdentity())
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Debug-User-ID", "cualquiera")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}
