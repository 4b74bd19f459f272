package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"finca-manager/internal/domain/animals"
)

type animalLocationRepo struct {
	mu      sync.RWMutex
	entries []animals.LocationEntry
}

func NewAnimalLocationRepo() animals.LocationRepository {
	return &animalLocationRepo{}
}

func (r *animalLocationRepo) AppendLocation(ctx context.Context, e animals.LocationEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *animalLocationRepo) CloseOpenLocation(ctx context.Context, animalID string, exitAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].AnimalID == animalID && r.entries[i].ExitAt == nil {
			t := exitAt
			r.entries[i].ExitAt = &t
		}
	}
	return nil
}

func (r *animalLocationRepo) CloseLocationsByLot(ctx context.Context, lotID string, exitAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].LotID == lotID && r.entries[i].ExitAt == nil {
			t := exitAt
			r.entries[i].ExitAt = &t
		}
	}
	return nil
}

func (r *animalLocationRepo) ListLocations(ctx context.Context, animalID string) ([]animals.LocationEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]animals.LocationEntry, 0)
	for _, e := range r.entries {
		if e.AnimalID == animalID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EntryAt.After(out[j].EntryAt)
	})
	return out, nil
}

func (r *animalLocationRepo) DeleteLocationsByAnimal(ctx context.Context, animalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.entries[:0]
	for _, e := range r.entries {
		if e.AnimalID != animalID {
			kept = append(kept, e)
		}
	}
	r.entries = kept
	return nil
}
