package transactions

import "time"

// TargetKind identifica qué clase de recurso se transa.
type TargetKind string

const (
	TargetAnimal TargetKind = "animal"
	TargetLot    TargetKind = "lot"
	TargetFarm   TargetKind = "farm"
)

func (k TargetKind) Valid() bool {
	switch k {
	case TargetAnimal, TargetLot, TargetFarm:
		return true
	}
	return false
}

// Target es la referencia tipada al recurso transado.
type Target struct {
	Kind TargetKind
	ID   string
}

type TxType string

const (
	TxSale     TxType = "sale"
	TxPurchase TxType = "purchase"
	TxTransfer TxType = "transfer"
	TxDonation TxType = "donation"
)

func (t TxType) Valid() bool {
	switch t {
	case TxSale, TxPurchase, TxTransfer, TxDonation:
		return true
	}
	return false
}

// Transaction registra un movimiento (venta, compra, traspaso) de un
// recurso entre dos usuarios. FromUserID y Target son inmutables tras
// la creación.
type Transaction struct {
	ID     string
	Type   TxType
	Target Target

	FromUserID string
	ToUserID   *string // nil: contraparte externa al sistema

	// Fincas de origen/destino del recurso (ventas y traspasos).
	SourceFarmID *string
	DestFarmID   *string

	Amount          float64
	Currency        string
	TransactionDate time.Time
	Notes           string

	CreatedAt time.Time
	UpdatedAt time.Time
}
