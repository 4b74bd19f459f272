package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"finca-manager/internal/domain/events"
)

type eventRepo struct {
	mu   sync.RWMutex
	byID map[string]events.FarmEvent
}

func NewEventRepo() events.Repository {
	return &eventRepo{byID: make(map[string]events.FarmEvent)}
}

func (r *eventRepo) Create(ctx context.Context, e events.FarmEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(e.ID) == "" {
		return events.ErrInvalidInput
	}
	if _, exists := r.byID[e.ID]; exists {
		return events.ErrAlreadyExists
	}
	r.byID[e.ID] = cloneEvent(e)
	return nil
}

func (r *eventRepo) GetByID(ctx context.Context, id string) (events.FarmEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return events.FarmEvent{}, events.ErrNotFound
	}
	return cloneEvent(e), nil
}

func (r *eventRepo) ListByRecorderOrAnimals(ctx context.Context, userID string, animalIDs []string, f events.ListFilter) ([]events.FarmEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	animalSet := make(map[string]struct{}, len(animalIDs))
	for _, id := range animalIDs {
		animalSet[id] = struct{}{}
	}

	out := make([]events.FarmEvent, 0)
	for _, e := range r.byID {
		if !touchesUser(e, userID, animalSet) {
			continue
		}
		if f.Kind != "" && e.Kind != f.Kind {
			continue
		}
		if f.AnimalID != "" && !touchesAnimal(e, f.AnimalID) {
			continue
		}
		out = append(out, cloneEvent(e))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EventDate.After(out[j].EventDate)
	})
	return out, nil
}

func (r *eventRepo) Update(ctx context.Context, e events.FarmEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[e.ID]; !ok {
		return events.ErrNotFound
	}
	r.byID[e.ID] = cloneEvent(e)
	return nil
}

func (r *eventRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return events.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *eventRepo) DeletePivotsByAnimal(ctx context.Context, animalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, e := range r.byID {
		kept := e.AnimalIDs[:0:0]
		for _, aid := range e.AnimalIDs {
			if aid != animalID {
				kept = append(kept, aid)
			}
		}
		if len(kept) != len(e.AnimalIDs) {
			e.AnimalIDs = kept
			r.byID[id] = e
		}
	}
	return nil
}

func touchesUser(e events.FarmEvent, userID string, animalSet map[string]struct{}) bool {
	if e.RecordedByUserID == userID {
		return true
	}
	for _, aid := range e.AnimalIDs {
		if _, ok := animalSet[aid]; ok {
			return true
		}
	}
	return false
}

func touchesAnimal(e events.FarmEvent, animalID string) bool {
	for _, aid := range e.AnimalIDs {
		if aid == animalID {
			return true
		}
	}
	return false
}

// cloneEvent copia el slice de animales para que el llamador no mute
// el estado interno del repo.
func cloneEvent(e events.FarmEvent) events.FarmEvent {
	if e.AnimalIDs != nil {
		ids := make([]string, len(e.AnimalIDs))
		copy(ids, e.AnimalIDs)
		e.AnimalIDs = ids
	}
	return e
}
