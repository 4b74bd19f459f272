package farmaccess

import "time"

// Level gradúa el acceso compartido. "manage" amplía sobre lotes y
// animales, nunca sobre la finca misma (escrituras de finca: owner-only).
type Level string

const (
	LevelView   Level = "view"
	LevelManage Level = "manage"
)

// Grant es un UserFarmAccess: clave compuesta (user_id, farm_id).
// A lo sumo un grant vigente por par; el duplicado se rechaza como
// conflicto, nunca se sobreescribe en silencio.
type Grant struct {
	UserID string // delegado
	FarmID string

	Level            Level
	AssignedByUserID string // quien comparte

	AssignedAt time.Time
	ExpiresAt  *time.Time
	RevokedAt  *time.Time
}

// ActiveAt: vigente si no está revocado ni vencido.
func (g Grant) ActiveAt(t time.Time) bool {
	if g.RevokedAt != nil {
		return false
	}
	if g.ExpiresAt != nil && !t.Before(*g.ExpiresAt) {
		return false
	}
	return true
}
