// Package authz concentra la resolución de ownership y la decisión de
// acceso para todos los módulos. Antes cada handler repetía su propio
// bloque owner/shared-access; aquí vive la única implementación.
package authz

import "errors"

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

// Vistas mínimas de las entidades: lo justo para resolver acceso.
// Los módulos de dominio convierten sus modelos a estas vistas,
// así el core no importa ningún paquete de dominio (y viceversa).

type User struct {
	ID          string
	IsActive    bool
	IsSuperuser bool
}

type Farm struct {
	ID          string
	OwnerUserID string
}

type Lot struct {
	ID     string
	FarmID string
}

type Animal struct {
	ID           string
	OwnerUserID  string
	CurrentLotID *string
}

type Grupo struct {
	ID              string
	CreatedByUserID string
}

// FarmGrant es la vista de un UserFarmAccess para decidir quién puede
// ver/editar/eliminar el grant mismo.
type FarmGrant struct {
	UserID           string // grantee
	FarmID           string
	AssignedByUserID string // grantor
	FarmOwnerUserID  string
}

// Facts: booleanos derivados que consume el engine. El resolver nunca
// decide allow/deny, solo computa estos hechos.

type FarmFacts struct {
	IsOwner         bool
	HasSharedAccess bool
}

type AnimalFacts struct {
	IsOwner       bool
	HasFarmAccess bool
}
