package database

import (
	"gorm.io/gorm"

	"github.com/coreconnect/backend/internal/model"
)

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.ActionToken{},
		&model.FailedAttempt{},
		&model.RateLimitHit{},
	)
}
