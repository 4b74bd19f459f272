// Package hstoken implementa los ports de auth con JWT HS256 firmado
// localmente. Reemplazable por un verificador remoto sin tocar los módulos.
package hstoken

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finca-manager/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenEmpty    = errors.New("token is empty")
	ErrNotConfigured = errors.New("hstoken: secret not configured")
)

type Options struct {
	Secret string
	TTL    time.Duration
}

// Service emite y verifica tokens con la misma clave (HS256).
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func New(opts Options) (*Service, error) {
	if strings.TrimSpace(opts.Secret) == "" {
		return nil, ErrNotConfigured
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Service{
		secret: []byte(opts.Secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func (s *Service) Issue(ctx context.Context, userID, email string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", errors.New("hstoken: user id required")
	}

	now := s.now()
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": now.Add(s.ttl).Unix(),
		"iat": now.Unix(),
	}
	if strings.TrimSpace(email) != "" {
		claims["email"] = strings.TrimSpace(email)
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("hstoken sign failed: %w", err)
	}
	return signed, nil
}

func (s *Service) Verify(ctx context.Context, token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		// Expirado, mal firmado o malformado: todo cae en unauthenticated.
		return auth.Claims{}, fmt.Errorf("%w: %v", auth.ErrUnauthenticated, err)
	}

	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return auth.Claims{}, auth.ErrUnauthenticated
	}

	sub, _ := mc["sub"].(string)
	if strings.TrimSpace(sub) == "" {
		return auth.Claims{}, fmt.Errorf("%w: claims missing sub", auth.ErrUnauthenticated)
	}

	out := auth.Claims{UserID: sub}
	if email, ok := mc["email"].(string); ok {
		out.Email = email
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}

	return out, nil
}
