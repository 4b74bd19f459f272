package lots

import "time"

// Lot es una sección física de una finca. No tiene owner propio: su
// acceso se deriva siempre de la finca.
type Lot struct {
	ID          string
	FarmID      string
	Name        string
	Description string

	CreatedAt time.Time
	UpdatedAt time.Time
}
