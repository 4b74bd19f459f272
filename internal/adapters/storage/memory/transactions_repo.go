package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"finca-manager/internal/domain/transactions"
)

type transactionRepo struct {
	mu   sync.RWMutex
	byID map[string]transactions.Transaction
}

func NewTransactionRepo() transactions.Repository {
	return &transactionRepo{byID: make(map[string]transactions.Transaction)}
}

func (r *transactionRepo) Create(ctx context.Context, t transactions.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(t.ID) == "" {
		return transactions.ErrInvalidInput
	}
	if _, exists := r.byID[t.ID]; exists {
		return transactions.ErrAlreadyExists
	}
	r.byID[t.ID] = t
	return nil
}

func (r *transactionRepo) GetByID(ctx context.Context, id string) (transactions.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byID[id]
	if !ok {
		return transactions.Transaction{}, transactions.ErrNotFound
	}
	return t, nil
}

func (r *transactionRepo) ListByParty(ctx context.Context, userID string) ([]transactions.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]transactions.Transaction, 0)
	for _, t := range r.byID {
		if t.FromUserID == userID || (t.ToUserID != nil && *t.ToUserID == userID) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].TransactionDate.After(out[j].TransactionDate)
	})
	return out, nil
}

func (r *transactionRepo) Update(ctx context.Context, t transactions.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[t.ID]; !ok {
		return transactions.ErrNotFound
	}
	r.byID[t.ID] = t
	return nil
}

func (r *transactionRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return transactions.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}
