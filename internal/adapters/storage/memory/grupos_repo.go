package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"finca-manager/internal/domain/grupos"
)

type memberKey struct {
	animalID string
	grupoID  string
}

type grupoRepo struct {
	mu      sync.RWMutex
	byID    map[string]grupos.Grupo
	members map[memberKey]grupos.Member
}

func NewGrupoRepo() grupos.Repository {
	return &grupoRepo{
		byID:    make(map[string]grupos.Grupo),
		members: make(map[memberKey]grupos.Member),
	}
}

func (r *grupoRepo) Create(ctx context.Context, g grupos.Grupo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(g.ID) == "" {
		return grupos.ErrInvalidInput
	}
	for _, existing := range r.byID {
		if existing.CreatedByUserID == g.CreatedByUserID && strings.EqualFold(existing.Name, g.Name) {
			return grupos.ErrAlreadyExists
		}
	}
	r.byID[g.ID] = g
	return nil
}

func (r *grupoRepo) GetByID(ctx context.Context, id string) (grupos.Grupo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.byID[id]
	if !ok {
		return grupos.Grupo{}, grupos.ErrNotFound
	}
	return g, nil
}

func (r *grupoRepo) ListByCreator(ctx context.Context, userID string) ([]grupos.Grupo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]grupos.Grupo, 0)
	for _, g := range r.byID {
		if g.CreatedByUserID == userID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *grupoRepo) Update(ctx context.Context, g grupos.Grupo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[g.ID]; !ok {
		return grupos.ErrNotFound
	}
	r.byID[g.ID] = g
	return nil
}

func (r *grupoRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return grupos.ErrNotFound
	}
	delete(r.byID, id)
	for k := range r.members {
		if k.grupoID == id {
			delete(r.members, k)
		}
	}
	return nil
}

func (r *grupoRepo) AddMember(ctx context.Context, m grupos.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := memberKey{animalID: m.AnimalID, grupoID: m.GrupoID}
	if _, exists := r.members[k]; exists {
		return grupos.ErrAlreadyExists
	}
	r.members[k] = m
	return nil
}

func (r *grupoRepo) RemoveMember(ctx context.Context, animalID, grupoID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := memberKey{animalID: animalID, grupoID: grupoID}
	if _, ok := r.members[k]; !ok {
		return grupos.ErrNotFound
	}
	delete(r.members, k)
	return nil
}

func (r *grupoRepo) ListMembers(ctx context.Context, grupoID string) ([]grupos.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]grupos.Member, 0)
	for _, m := range r.members {
		if m.GrupoID == grupoID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AssignedDate.Equal(out[j].AssignedDate) {
			return out[i].AnimalID < out[j].AnimalID
		}
		return out[i].AssignedDate.Before(out[j].AssignedDate)
	})
	return out, nil
}

func (r *grupoRepo) DeleteMembersByAnimal(ctx context.Context, animalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k := range r.members {
		if k.animalID == animalID {
			delete(r.members, k)
		}
	}
	return nil
}
