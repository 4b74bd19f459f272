package farms

import "time"

// Farm es la raíz del subárbol de acceso: lotes y (vía lote) animales
// heredan visibilidad de la finca.
type Farm struct {
	ID          string
	Name        string
	Location    string
	Latitude    *float64
	Longitude   *float64
	AreaHa      *float64
	OwnerUserID string
	ContactInfo string

	CreatedAt time.Time
	UpdatedAt time.Time
}
