package repository

import (
	"context"
	"time"

	"github.com/coreconnect/backend/internal/model"
	ctxutil "github.com/coreconnect/backend/pkg/context"
	"github.com/coreconnect/backend/pkg/logger"
	"gorm.io/gorm"
)

// FailedAttemptRepository tracks failed logins for lockout decisions.
type FailedAttemptRepository struct {
	db *gorm.DB
}

func NewFailedAttemptRepository(db *gorm.DB) *FailedAttemptRepository {
	return &FailedAttemptRepository{db: db}
}

// Record stores one failed login for the email
func (r *FailedAttemptRepository) Record(ctx context.Context, email string) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Record")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	attempt := model.FailedAttempt{Email: email, AttemptedAt: time.Now()}
	if err := r.db.WithContext(ctx).Create(&attempt).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to record failed login attempt").
			String("email", email).
			Err(err).
			Log()
		return err
	}

	logger.DebugWithContext(ctx, "Failed login attempt recorded").
		String("email", email).
		Log()

	return nil
}

// CountSince counts attempts for the email newer than the cutoff
func (r *FailedAttemptRepository) CountSince(ctx context.Context, email string, since time.Time) (int64, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "CountSince")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.FailedAttempt{}).
		Where("email = ? AND attempted_at >= ?", email, since).
		Count(&count).Error
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to count failed login attempts").
			String("email", email).
			Err(err).
			Log()
		return 0, err
	}
	return count, nil
}

// Clear removes all attempts for the email, used after a successful login
func (r *FailedAttemptRepository) Clear(ctx context.Context, email string) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Clear")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	result := r.db.WithContext(ctx).Where("email = ?", email).Delete(&model.FailedAttempt{})
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to clear failed login attempts").
			String("email", email).
			Err(result.Error).
			Log()
		return result.Error
	}
	return nil
}

// DeleteOlderThan prunes attempts outside the lockout window
func (r *FailedAttemptRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "DeleteOlderThan")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	result := r.db.WithContext(ctx).Where("attempted_at < ?", cutoff).Delete(&model.FailedAttempt{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
