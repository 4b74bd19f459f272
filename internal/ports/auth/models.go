package auth

import "time"

// Claims representa la información extraída del token.
type Claims struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// Identity es el usuario ya resuelto contra el almacén (claims + flags de
// cuenta). Es lo que viaja en el contexto del request.
type Identity struct {
	UserID      string
	Email       string
	IsActive    bool
	IsSuperuser bool
}
