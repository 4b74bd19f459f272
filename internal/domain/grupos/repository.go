package grupos

import "context"

type Repository interface {
	// Create devuelve ErrAlreadyExists si (name, created_by) ya existe.
	Create(ctx context.Context, g Grupo) error
	// GetByID devuelve ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (Grupo, error)
	ListByCreator(ctx context.Context, userID string) ([]Grupo, error)
	Update(ctx context.Context, g Grupo) error
	// Delete borra el grupo y sus filas de membresía.
	Delete(ctx context.Context, id string) error

	// AddMember devuelve ErrAlreadyExists si el par ya está asignado.
	AddMember(ctx context.Context, m Member) error
	// RemoveMember devuelve ErrNotFound si el par no existe.
	RemoveMember(ctx context.Context, animalID, grupoID string) error
	ListMembers(ctx context.Context, grupoID string) ([]Member, error)
	DeleteMembersByAnimal(ctx context.Context, animalID string) error
}
