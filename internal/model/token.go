package model

import (
	"time"

	"gorm.io/gorm"
)

// RefreshToken is the server-side record backing a refresh JWT. The JWT
// itself is stateless; revocation and reuse checks go through this row,
// keyed by the jti claim.
type RefreshToken struct {
	gorm.Model
	JTI       string    `gorm:"column:jti;unique;not null"`
	UserID    uint      `gorm:"column:user_id;not null;index:idx_refresh_tokens_user_id"`
	IssuedAt  time.Time `gorm:"column:issued_at;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index:idx_refresh_tokens_expires_at"`
	Revoked   bool      `gorm:"column:revoked;default:false;not null"`
}

// ActionToken is a single-use opaque token for email verification and
// password reset, distinguished by Purpose.
type ActionToken struct {
	gorm.Model
	Token     string    `gorm:"column:token;unique;not null"`
	UserID    uint      `gorm:"column:user_id;not null;index:idx_action_tokens_user_id"`
	Purpose   string    `gorm:"column:purpose;not null;index:idx_action_tokens_purpose"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	Used      bool      `gorm:"column:used;default:false;not null"`
}

func (a *ActionToken) IsExpired(now time.Time) bool {
	return now.After(a.ExpiresAt)
}
