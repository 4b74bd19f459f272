package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"finca-manager/internal/domain/lots"
)

type lotRepo struct {
	mu   sync.RWMutex
	byID map[string]lots.Lot
}

func NewLotRepo() lots.Repository {
	return &lotRepo{byID: make(map[string]lots.Lot)}
}

func (r *lotRepo) Create(ctx context.Context, l lots.Lot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(l.ID) == "" {
		return lots.ErrInvalidInput
	}
	for _, existing := range r.byID {
		if existing.FarmID == l.FarmID && strings.EqualFold(existing.Name, l.Name) {
			return lots.ErrAlreadyExists
		}
	}
	r.byID[l.ID] = l
	return nil
}

func (r *lotRepo) GetByID(ctx context.Context, id string) (lots.Lot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.byID[id]
	if !ok {
		return lots.Lot{}, lots.ErrNotFound
	}
	return l, nil
}

func (r *lotRepo) ListByFarm(ctx context.Context, farmID string) ([]lots.Lot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]lots.Lot, 0)
	for _, l := range r.byID {
		if l.FarmID == farmID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *lotRepo) Update(ctx context.Context, l lots.Lot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[l.ID]; !ok {
		return lots.ErrNotFound
	}
	r.byID[l.ID] = l
	return nil
}

func (r *lotRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return lots.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *lotRepo) DeleteByFarm(ctx context.Context, farmID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, l := range r.byID {
		if l.FarmID == farmID {
			delete(r.byID, id)
		}
	}
	return nil
}
