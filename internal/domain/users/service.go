package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finca-manager/internal/authz"
	"finca-manager/internal/ports/auth"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// PermissionChecker responde si un usuario tiene un permiso nombrado.
// Lo implementa el módulo rbac; se usa para gatear operaciones admin.
type PermissionChecker interface {
	HasPermission(ctx context.Context, userID, permissionName string) (bool, error)
}

type Service struct {
	repo   Repository
	issuer auth.TokenIssuer
	authzr *authz.Authorizer
	perms  PermissionChecker
	now    func() time.Time
}

func NewService(repo Repository, issuer auth.TokenIssuer, authzr *authz.Authorizer, perms PermissionChecker) *Service {
	return &Service{
		repo:   repo,
		issuer: issuer,
		authzr: authzr,
		perms:  perms,
		now:    time.Now,
	}
}

type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
}

// Register crea una cuenta activa, nunca superusuario (eso se siembra
// aparte). Email duplicado: ErrAlreadyExists.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return User{}, ErrInvalidInput
	}
	if len(in.Password) < 8 {
		return User{}, ErrInvalidInput
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return User{}, ErrAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	u := User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		IsActive:     true,
		IsSuperuser:  false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		// El pre-check puede perder la carrera; el unique del almacén manda.
		if errors.Is(err, ErrAlreadyExists) {
			return User{}, ErrAlreadyExists
		}
		return User{}, err
	}
	return u, nil
}

// Authenticate valida credenciales y emite un bearer token.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return User{}, "", ErrInvalidCredentials
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return User{}, "", ErrInvalidCredentials
	}
	if !u.IsActive {
		return User{}, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, "", ErrInvalidCredentials
	}

	if s.issuer == nil {
		// Sin emisor configurado (dev sin secret): login deshabilitado.
		return User{}, "", errors.New("token issuer not configured")
	}
	token, err := s.issuer.Issue(ctx, u.ID, u.Email)
	if err != nil {
		return User{}, "", fmt.Errorf("issue token: %w", err)
	}
	return u, token, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, ErrInvalidInput
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, ErrNotFound
	}
	return u, nil
}

// LoadIdentity implementa auth.IdentityLoader para el middleware.
func (s *Service) LoadIdentity(ctx context.Context, userID string) (auth.Identity, error) {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return auth.Identity{}, err
	}
	return auth.Identity{
		UserID:      u.ID,
		Email:       u.Email,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
	}, nil
}

// List es administrativo: superusuario o permiso users:read.
func (s *Service) List(ctx context.Context, actor authz.User) ([]User, error) {
	if err := s.requireAdmin(ctx, actor, "users:read", authz.OpRead); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

// Deactivate apaga la cuenta (soft-disable). El propio usuario puede
// desactivarse; el resto requiere users:manage.
func (s *Service) Deactivate(ctx context.Context, actor authz.User, id string) (User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	if actor.ID != u.ID {
		if err := s.requireAdmin(ctx, actor, "users:manage", authz.OpWrite); err != nil {
			return User{}, err
		}
	}

	if !u.IsActive {
		return u, nil
	}
	u.IsActive = false
	u.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Delete borra la cuenta en duro. Solo administración.
func (s *Service) Delete(ctx context.Context, actor authz.User, id string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.requireAdmin(ctx, actor, "users:manage", authz.OpDelete); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// requireAdmin: superusuario pasa directo; si no, permiso nombrado.
func (s *Service) requireAdmin(ctx context.Context, actor authz.User, permission string, op authz.Operation) error {
	if s.perms != nil {
		ok, err := s.perms.HasPermission(ctx, actor.ID, permission)
		if err == nil && ok {
			return nil
		}
	}
	return s.authzr.RoleAdmin(actor, op)
}
