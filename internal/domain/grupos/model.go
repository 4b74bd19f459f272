package grupos

import "time"

// Grupo es una agrupación dinámica de animales para procedimientos
// (ej. "Desparasitación Junio"). Acceso restringido al creador: no hay
// sharing transitivo por finca, a propósito.
type Grupo struct {
	ID          string
	Name        string
	Description string
	PurposeID   *string // masterdata (category=group_purpose)

	CreatedByUserID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Member es la fila pivote animal <-> grupo.
type Member struct {
	AnimalID string
	GrupoID  string

	AssignedDate time.Time
	RemovedDate  *time.Time
	Notes        string

	CreatedAt time.Time
}
