package masterdata

import "time"

// Categorías conocidas. No es una lista cerrada: el seed puede añadir
// otras, pero éstas son las que referencian los demás módulos.
const (
	CategorySpecies         = "species"
	CategoryBreed           = "breed"
	CategoryHealthEventType = "health_event_type"
	CategoryGroupPurpose    = "group_purpose"
	CategoryFeedType        = "feed_type"
	CategoryUnit            = "unit"
)

// Item es un valor de catálogo compartido (especies, razas, tipos de
// evento sanitario, etc.). Único por (category, name).
type Item struct {
	ID          string
	Category    string
	Name        string
	Description string
	ParentID    *string // ej. raza -> especie
	IsActive    bool

	CreatedByUserID *string // nil para datos de seed

	CreatedAt time.Time
	UpdatedAt time.Time
}
