// Package details define los payloads específicos por tipo de evento.
// Un evento lleva exactamente uno de estos, según su Kind.
package details

import "time"

// Health: diagnóstico/tratamiento sanitario.
type Health struct {
	EventTypeID  *string `json:"event_type_id,omitempty"` // masterdata (category=health_event_type)
	Diagnosis    string  `json:"diagnosis,omitempty"`
	Treatment    string  `json:"treatment,omitempty"`
	MedicationID *string `json:"medication_id,omitempty"`
	Dosage       string  `json:"dosage,omitempty"`
	VetName      string  `json:"vet_name,omitempty"`
}

// Reproductive: celo, servicio, parto. Un parto puede enlazar las crías
// ya registradas como animales.
type Reproductive struct {
	EventSubtype      string     `json:"event_subtype"` // heat, insemination, birth, abortion
	SireAnimalID      *string    `json:"sire_animal_id,omitempty"`
	ExpectedDueDate   *time.Time `json:"expected_due_date,omitempty"`
	OffspringCount    int        `json:"offspring_count,omitempty"`
	OffspringAnimalID []string   `json:"offspring_animal_ids,omitempty"`
	Notes             string     `json:"notes,omitempty"`
}

// Weighing: pesaje puntual.
type Weighing struct {
	WeightKG float64 `json:"weight_kg"`
	UnitID   *string `json:"unit_id,omitempty"` // masterdata (category=unit)
	Method   string  `json:"method,omitempty"`
}

// Feeding: suministro de alimento.
type Feeding struct {
	FeedTypeID *string `json:"feed_type_id,omitempty"` // masterdata (category=feed_type)
	QuantityKG float64 `json:"quantity_kg"`
	UnitID     *string `json:"unit_id,omitempty"`
	Supplier   string  `json:"supplier,omitempty"`
	Cost       float64 `json:"cost,omitempty"`
}

// Batch: procedimiento masivo aplicado a varios animales a la vez
// (vacunación de lote, baño, etc.).
type Batch struct {
	ProcedureName string  `json:"procedure_name"`
	ProductUsed   string  `json:"product_used,omitempty"`
	Dosage        string  `json:"dosage,omitempty"`
	Cost          float64 `json:"cost,omitempty"`
}
