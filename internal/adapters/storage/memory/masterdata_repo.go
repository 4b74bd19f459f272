package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"finca-manager/internal/domain/masterdata"
)

type masterDataRepo struct {
	mu   sync.RWMutex
	byID map[string]masterdata.Item
}

func NewMasterDataRepo() masterdata.Repository {
	return &masterDataRepo{byID: make(map[string]masterdata.Item)}
}

func (r *masterDataRepo) Create(ctx context.Context, it masterdata.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(it.ID) == "" {
		return masterdata.ErrInvalidInput
	}
	for _, existing := range r.byID {
		if existing.Category == it.Category && strings.EqualFold(existing.Name, it.Name) {
			return masterdata.ErrAlreadyExists
		}
	}
	r.byID[it.ID] = it
	return nil
}

func (r *masterDataRepo) GetByID(ctx context.Context, id string) (masterdata.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	it, ok := r.byID[id]
	if !ok {
		return masterdata.Item{}, masterdata.ErrNotFound
	}
	return it, nil
}

func (r *masterDataRepo) List(ctx context.Context, category string) ([]masterdata.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]masterdata.Item, 0)
	for _, it := range r.byID {
		if category != "" && it.Category != category {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category == out[j].Category {
			return out[i].Name < out[j].Name
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

func (r *masterDataRepo) Update(ctx context.Context, it masterdata.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[it.ID]; !ok {
		return masterdata.ErrNotFound
	}
	r.byID[it.ID] = it
	return nil
}

func (r *masterDataRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return masterdata.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}
