package transactions

import (
	"context"
	"errors"
	"strings"
	"time"

	"finca-manager/internal/authz"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// TargetResolver localiza el recurso transado y devuelve su dueño
// actual. ErrNotFound del módulo correspondiente si no existe.
type TargetResolver interface {
	ResolveTargetOwner(ctx context.Context, t Target) (string, error)
}

// UserChecker evita contrapartes colgantes.
type UserChecker interface {
	UserExists(ctx context.Context, userID string) (bool, error)
}

type Service struct {
	repo    Repository
	targets TargetResolver
	users   UserChecker
	authzr  *authz.Authorizer
	now     func() time.Time
}

func NewService(repo Repository, targets TargetResolver, users UserChecker, authzr *authz.Authorizer) *Service {
	return &Service{repo: repo, targets: targets, users: users, authzr: authzr, now: time.Now}
}

type CreateInput struct {
	Type            TxType
	Target          Target
	ToUserID        *string
	SourceFarmID    *string
	DestFarmID      *string
	Amount          float64
	Currency        string
	TransactionDate time.Time
	Notes           string
}

// Create registra una transacción con el actor como origen. El recurso
// debe existir y pertenecer al actor (superusuario puede registrar a
// nombre del dueño real, pero el origen sigue siendo el dueño).
func (s *Service) Create(ctx context.Context, actor authz.User, in CreateInput) (Transaction, error) {
	if !in.Type.Valid() || !in.Target.Kind.Valid() {
		return Transaction{}, ErrInvalidInput
	}
	in.Target.ID = strings.TrimSpace(in.Target.ID)
	if in.Target.ID == "" || in.Amount < 0 {
		return Transaction{}, ErrInvalidInput
	}

	ownerID, err := s.targets.ResolveTargetOwner(ctx, in.Target)
	if err != nil {
		return Transaction{}, ErrInvalidInput
	}
	if !actor.IsSuperuser && ownerID != actor.ID {
		return Transaction{}, authz.ErrForbidden
	}

	if in.ToUserID != nil {
		ok, err := s.users.UserExists(ctx, *in.ToUserID)
		if err != nil || !ok {
			return Transaction{}, ErrInvalidInput
		}
		if *in.ToUserID == ownerID {
			return Transaction{}, ErrInvalidInput
		}
	}

	srcFarm, err := s.checkFarmRef(ctx, in.SourceFarmID)
	if err != nil {
		return Transaction{}, err
	}
	dstFarm, err := s.checkFarmRef(ctx, in.DestFarmID)
	if err != nil {
		return Transaction{}, err
	}

	now := s.now()
	t := Transaction{
		ID:              uuid.NewString(),
		Type:            in.Type,
		Target:          in.Target,
		FromUserID:      ownerID,
		ToUserID:        in.ToUserID,
		SourceFarmID:    srcFarm,
		DestFarmID:      dstFarm,
		Amount:          in.Amount,
		Currency:        strings.ToUpper(strings.TrimSpace(in.Currency)),
		TransactionDate: in.TransactionDate,
		Notes:           strings.TrimSpace(in.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if t.TransactionDate.IsZero() {
		t.TransactionDate = now
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func (s *Service) Get(ctx context.Context, actor authz.User, id string) (Transaction, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return Transaction{}, err
	}
	if err := s.authorize(actor, t, authz.OpRead); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func (s *Service) ListMine(ctx context.Context, actor authz.User) ([]Transaction, error) {
	return s.repo.ListByParty(ctx, actor.ID)
}

type UpdateInput struct {
	Type            *TxType
	ToUserID        *string
	SourceFarmID    *string
	DestFarmID      *string
	Amount          *float64
	Currency        *string
	TransactionDate *time.Time
	Notes           *string
}

// Update: solo el origen. FromUserID y Target no cambian nunca; para
// corregir el recurso se borra y se vuelve a registrar.
func (s *Service) Update(ctx context.Context, actor authz.User, id string, in UpdateInput) (Transaction, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return Transaction{}, err
	}
	if err := s.authorize(actor, t, authz.OpWrite); err != nil {
		return Transaction{}, err
	}

	if in.Type != nil {
		if !in.Type.Valid() {
			return Transaction{}, ErrInvalidInput
		}
		t.Type = *in.Type
	}
	if in.ToUserID != nil {
		ok, err := s.users.UserExists(ctx, *in.ToUserID)
		if err != nil || !ok {
			return Transaction{}, ErrInvalidInput
		}
		t.ToUserID = in.ToUserID
	}
	if in.SourceFarmID != nil {
		srcFarm, err := s.checkFarmRef(ctx, in.SourceFarmID)
		if err != nil {
			return Transaction{}, err
		}
		t.SourceFarmID = srcFarm
	}
	if in.DestFarmID != nil {
		dstFarm, err := s.checkFarmRef(ctx, in.DestFarmID)
		if err != nil {
			return Transaction{}, err
		}
		t.DestFarmID = dstFarm
	}
	if in.Amount != nil {
		if *in.Amount < 0 {
			return Transaction{}, ErrInvalidInput
		}
		t.Amount = *in.Amount
	}
	if in.Currency != nil {
		t.Currency = strings.ToUpper(strings.TrimSpace(*in.Currency))
	}
	if in.TransactionDate != nil {
		t.TransactionDate = *in.TransactionDate
	}
	if in.Notes != nil {
		t.Notes = strings.TrimSpace(*in.Notes)
	}
	t.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, t); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, actor authz.User, id string) error {
	t, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(actor, t, authz.OpDelete); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// checkFarmRef valida que la finca referida exista. Reutiliza el
// resolver de targets, que ya sabe localizar fincas.
func (s *Service) checkFarmRef(ctx context.Context, farmID *string) (*string, error) {
	if farmID == nil {
		return nil, nil
	}
	id := strings.TrimSpace(*farmID)
	if id == "" {
		return nil, nil
	}
	if _, err := s.targets.ResolveTargetOwner(ctx, Target{Kind: TargetFarm, ID: id}); err != nil {
		return nil, ErrInvalidInput
	}
	return &id, nil
}

func (s *Service) authorize(actor authz.User, t Transaction, op authz.Operation) error {
	to := ""
	if t.ToUserID != nil {
		to = *t.ToUserID
	}
	return s.authzr.Transaction(actor, t.FromUserID, to, op)
}

func (s *Service) load(ctx context.Context, id string) (Transaction, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Transaction{}, ErrNotFound
	}
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Transaction{}, ErrNotFound
	}
	return t, nil
}
