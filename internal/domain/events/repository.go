package events

import "context"

type ListFilter struct {
	Kind     Kind
	AnimalID string
}

type Repository interface {
	Create(ctx context.Context, e FarmEvent) error
	// GetByID devuelve ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (FarmEvent, error)
	// ListByRecorderOrAnimals devuelve los eventos registrados por el
	// usuario más los que toquen alguno de animalIDs, sin duplicados,
	// más recientes primero.
	ListByRecorderOrAnimals(ctx context.Context, userID string, animalIDs []string, f ListFilter) ([]FarmEvent, error)
	Update(ctx context.Context, e FarmEvent) error
	// Delete borra el evento y sus filas pivote animal<->evento.
	Delete(ctx context.Context, id string) error
	// DeletePivotsByAnimal desengancha un animal de todos sus eventos.
	DeletePivotsByAnimal(ctx context.Context, animalID string) error
}
