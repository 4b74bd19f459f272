package animals

import "time"

// Sex define el sexo del animal.
// @Enum male, female, unknown
type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexUnknown Sex = "unknown"
)

// Status define el estado productivo.
type Status string

const (
	StatusActive Status = "active"
	StatusSold   Status = "sold"
	StatusDead   Status = "dead"
	StatusCulled Status = "culled"
)

// Origin define cómo entró el animal al sistema.
type Origin string

const (
	OriginBorn     Origin = "born_on_farm"
	OriginPurchase Origin = "purchased"
	OriginDonation Origin = "donated"
)

// Animal es propiedad directa de un usuario y opcionalmente vive en un
// lote; por ese lote hereda el acceso compartido de la finca. Madre y
// padre son referencias opcionales tipadas (nil = desconocido), nada de
// probing dinámico.
type Animal struct {
	ID    string
	TagID string
	Name  string

	SpeciesID *string // masterdata (category=species)
	BreedID   *string // masterdata (category=breed)

	Sex         Sex
	DateOfBirth *time.Time
	Status      Status
	Origin      Origin

	OwnerUserID string

	MotherAnimalID *string
	FatherAnimalID *string

	Description string
	PhotoURL    string

	CurrentLotID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
