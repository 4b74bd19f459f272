package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"finca-manager/internal/domain/farmaccess"
)

type grantKey struct {
	userID string
	farmID string
}

type farmAccessRepo struct {
	mu    sync.RWMutex
	byKey map[grantKey]farmaccess.Grant
}

func NewFarmAccessRepo() farmaccess.Repository {
	return &farmAccessRepo{byKey: make(map[grantKey]farmaccess.Grant)}
}

func (r *farmAccessRepo) Create(ctx context.Context, g farmaccess.Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(g.UserID) == "" || strings.TrimSpace(g.FarmID) == "" {
		return farmaccess.ErrInvalidInput
	}
	k := grantKey{userID: g.UserID, farmID: g.FarmID}
	if _, exists := r.byKey[k]; exists {
		return farmaccess.ErrAlreadyExists
	}
	r.byKey[k] = g
	return nil
}

func (r *farmAccessRepo) Get(ctx context.Context, userID, farmID string) (farmaccess.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.byKey[grantKey{userID: userID, farmID: farmID}]
	if !ok {
		return farmaccess.Grant{}, farmaccess.ErrNotFound
	}
	return g, nil
}

func (r *farmAccessRepo) Update(ctx context.Context, g farmaccess.Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := grantKey{userID: g.UserID, farmID: g.FarmID}
	if _, ok := r.byKey[k]; !ok {
		return farmaccess.ErrNotFound
	}
	r.byKey[k] = g
	return nil
}

func (r *farmAccessRepo) Delete(ctx context.Context, userID, farmID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := grantKey{userID: userID, farmID: farmID}
	if _, ok := r.byKey[k]; !ok {
		return farmaccess.ErrNotFound
	}
	delete(r.byKey, k)
	return nil
}

func (r *farmAccessRepo) DeleteByFarm(ctx context.Context, farmID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k := range r.byKey {
		if k.farmID == farmID {
			delete(r.byKey, k)
		}
	}
	return nil
}

func (r *farmAccessRepo) ListByUser(ctx context.Context, userID string) ([]farmaccess.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]farmaccess.Grant, 0)
	for _, g := range r.byKey {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	sortGrants(out)
	return out, nil
}

func (r *farmAccessRepo) ListByFarm(ctx context.Context, farmID string) ([]farmaccess.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]farmaccess.Grant, 0)
	for _, g := range r.byKey {
		if g.FarmID == farmID {
			out = append(out, g)
		}
	}
	sortGrants(out)
	return out, nil
}

func sortGrants(out []farmaccess.Grant) {
	sort.Slice(out, func(i, j int) bool {
		return out[i].AssignedAt.Before(out[j].AssignedAt)
	})
}
