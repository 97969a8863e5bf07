package users

import (
	"time"
)

// Phase is the user's current stage in the coaching journey.
type Phase string

const (
	PhaseStabilize  Phase = "stabilize"
	PhaseReframe    Phase = "reframe"
	PhasePosition   Phase = "position"
	PhaseExplore    Phase = "explore"
	PhaseApply      Phase = "apply"
	PhaseSecure     Phase = "secure"
	PhaseTransition Phase = "transition"

	DefaultPhase = PhaseExplore
)

// Phases lists every phase in journey order.
var Phases = []Phase{
	PhaseStabilize,
	PhaseReframe,
	PhasePosition,
	PhaseExplore,
	PhaseApply,
	PhaseSecure,
	PhaseTransition,
}

func (p Phase) Valid() bool {
	for _, known := range Phases {
		if p == known {
			return true
		}
	}
	return false
}

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string    `json:"-" gorm:"size:255"`
	IsVerified   bool      `json:"is_verified" gorm:"not null;default:false"`
	Phase        Phase     `json:"phase" gorm:"size:50;not null;default:'explore'"`
	CreatedAt    time.Time `json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

// HasCredential reports whether a password has ever been set. Rows created
// lazily by token flows have no credential and cannot authenticate.
func (u *User) HasCredential() bool {
	return u.PasswordHash != ""
}
