package users

import "time"

// User representa una cuenta del sistema. PasswordHash nunca sale en
// respuestas; los superusuarios saltan todos los checks de acceso.
type User struct {
	ID           string
	Email        string
	PasswordHash string

	FirstName   string
	LastName    string
	PhoneNumber string

	IsActive    bool
	IsSuperuser bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
