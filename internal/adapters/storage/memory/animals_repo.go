package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"finca-manager/internal/domain/animals"
	"finca-manager/internal/domain/lots"
)

type animalRepo struct {
	mu   sync.RWMutex
	byID map[string]animals.Animal

	// lotsRepo resuelve lote -> finca para el filtro de accesibles.
	lotsRepo lots.Repository
}

func NewAnimalRepo(lotsRepo lots.Repository) animals.Repository {
	return &animalRepo{byID: make(map[string]animals.Animal), lotsRepo: lotsRepo}
}

func (r *animalRepo) Create(ctx context.Context, a animals.Animal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		return animals.ErrInvalidInput
	}
	for _, existing := range r.byID {
		if strings.EqualFold(existing.TagID, a.TagID) {
			return animals.ErrAlreadyExists
		}
	}
	r.byID[a.ID] = a
	return nil
}

func (r *animalRepo) GetByID(ctx context.Context, id string) (animals.Animal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return animals.Animal{}, animals.ErrNotFound
	}
	return a, nil
}

func (r *animalRepo) Update(ctx context.Context, a animals.Animal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[a.ID]; !ok {
		return animals.ErrNotFound
	}
	r.byID[a.ID] = a
	return nil
}

func (r *animalRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return animals.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *animalRepo) ListAccessible(ctx context.Context, ownerUserID string, farmIDs []string, f animals.ListFilter) ([]animals.Animal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	farmSet := make(map[string]struct{}, len(farmIDs))
	for _, id := range farmIDs {
		farmSet[id] = struct{}{}
	}

	out := make([]animals.Animal, 0)
	for _, a := range r.byID {
		if !r.accessible(ctx, a, ownerUserID, farmSet) {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.LotID != "" && (a.CurrentLotID == nil || *a.CurrentLotID != f.LotID) {
			continue
		}
		if f.FarmID != "" {
			farmID, ok := r.farmOf(ctx, a)
			if !ok || farmID != f.FarmID {
				continue
			}
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *animalRepo) IDsAccessible(ctx context.Context, ownerUserID string, farmIDs []string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	farmSet := make(map[string]struct{}, len(farmIDs))
	for _, id := range farmIDs {
		farmSet[id] = struct{}{}
	}

	out := make([]string, 0)
	for _, a := range r.byID {
		if r.accessible(ctx, a, ownerUserID, farmSet) {
			out = append(out, a.ID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *animalRepo) ClearLot(ctx context.Context, lotID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, a := range r.byID {
		if a.CurrentLotID != nil && *a.CurrentLotID == lotID {
			a.CurrentLotID = nil
			r.byID[id] = a
		}
	}
	return nil
}

func (r *animalRepo) accessible(ctx context.Context, a animals.Animal, ownerUserID string, farmSet map[string]struct{}) bool {
	if a.OwnerUserID == ownerUserID {
		return true
	}
	farmID, ok := r.farmOf(ctx, a)
	if !ok {
		return false
	}
	_, shared := farmSet[farmID]
	return shared
}

func (r *animalRepo) farmOf(ctx context.Context, a animals.Animal) (string, bool) {
	if a.CurrentLotID == nil {
		return "", false
	}
	l, err := r.lotsRepo.GetByID(ctx, *a.CurrentLotID)
	if err != nil {
		return "", false
	}
	return l.FarmID, true
}
