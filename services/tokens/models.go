package tokens

import (
	"time"

	"github.com/coro-biz/journey-coach/services/users"
)

// Purpose is the intended use of an email token.
type Purpose string

const (
	PurposeReset  Purpose = "reset"
	PurposeVerify Purpose = "verify"
)

func (p Purpose) Valid() bool {
	return p == PurposeReset || p == PurposeVerify
}

// EmailToken is a single-use, time-bounded capability tied to one user and
// one purpose. Only the sha256 digest of the secret is stored; the raw value
// lives solely in the emailed link.
type EmailToken struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	UserID    uint       `json:"user_id" gorm:"not null;index:idx_email_tokens_user_purpose_used,priority:1"`
	User      users.User `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	TokenHash string     `json:"-" gorm:"uniqueIndex;size:64;not null"`
	Purpose   Purpose    `json:"purpose" gorm:"size:20;not null;index:idx_email_tokens_user_purpose_used,priority:2"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null"`
	Used      bool       `json:"used" gorm:"not null;default:false;index:idx_email_tokens_user_purpose_used,priority:3"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (EmailToken) TableName() string {
	return "email_tokens"
}
