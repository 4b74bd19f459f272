package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"finca-manager/internal/domain/farms"
)

type farmRepo struct {
	mu   sync.RWMutex
	byID map[string]farms.Farm
}

func NewFarmRepo() farms.Repository {
	return &farmRepo{byID: make(map[string]farms.Farm)}
}

func (r *farmRepo) Create(ctx context.Context, f farms.Farm) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(f.ID) == "" {
		return farms.ErrInvalidInput
	}
	if _, exists := r.byID[f.ID]; exists {
		return farms.ErrAlreadyExists
	}
	r.byID[f.ID] = f
	return nil
}

func (r *farmRepo) GetByID(ctx context.Context, id string) (farms.Farm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.byID[id]
	if !ok {
		return farms.Farm{}, farms.ErrNotFound
	}
	return f, nil
}

func (r *farmRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]farms.Farm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]farms.Farm, 0)
	for _, f := range r.byID {
		if f.OwnerUserID == ownerUserID {
			out = append(out, f)
		}
	}
	sortFarms(out)
	return out, nil
}

func (r *farmRepo) ListByIDs(ctx context.Context, ids []string) ([]farms.Farm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]farms.Farm, 0, len(ids))
	for _, id := range ids {
		if f, ok := r.byID[id]; ok {
			out = append(out, f)
		}
	}
	sortFarms(out)
	return out, nil
}

func (r *farmRepo) IDsByOwner(ctx context.Context, ownerUserID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0)
	for _, f := range r.byID {
		if f.OwnerUserID == ownerUserID {
			out = append(out, f.ID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *farmRepo) Update(ctx context.Context, f farms.Farm) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[f.ID]; !ok {
		return farms.ErrNotFound
	}
	r.byID[f.ID] = f
	return nil
}

func (r *farmRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return farms.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func sortFarms(out []farms.Farm) {
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
}
