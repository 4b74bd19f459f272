package events

import (
	"time"

	"finca-manager/internal/domain/events/details"
)

// Kind discrimina el tipo de evento y qué detalle lleva.
type Kind string

const (
	KindHealth       Kind = "health"
	KindReproductive Kind = "reproductive"
	KindWeighing     Kind = "weighing"
	KindFeeding      Kind = "feeding"
	KindBatch        Kind = "batch"
)

func (k Kind) Valid() bool {
	switch k {
	case KindHealth, KindReproductive, KindWeighing, KindFeeding, KindBatch:
		return true
	}
	return false
}

// FarmEvent es el registro histórico de un procedimiento sobre uno o
// más animales. Exactamente un detalle no-nil, acorde al Kind. El
// evento pertenece a quien lo registró, no al dueño de los animales.
type FarmEvent struct {
	ID               string
	Kind             Kind
	EventDate        time.Time
	RecordedByUserID string
	AnimalIDs        []string
	Notes            string

	Health       *details.Health
	Reproductive *details.Reproductive
	Weighing     *details.Weighing
	Feeding      *details.Feeding
	Batch        *details.Batch

	CreatedAt time.Time
	UpdatedAt time.Time
}
