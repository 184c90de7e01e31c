package repository

import (
	"context"
	"time"

	"github.com/coreconnect/backend/internal/model"
	ctxutil "github.com/coreconnect/backend/pkg/context"
	"github.com/coreconnect/backend/pkg/logger"
	"gorm.io/gorm"
)

// RateLimitRepository backs the sliding-window limiter. Counting and
// inserting are two separate statements on purpose; the limiter tolerates
// the small race instead of paying for a transaction per request.
type RateLimitRepository struct {
	db *gorm.DB
}

func NewRateLimitRepository(db *gorm.DB) *RateLimitRepository {
	return &RateLimitRepository{db: db}
}

// CountInWindow counts hits for (identifier, endpoint) since the cutoff
func (r *RateLimitRepository) CountInWindow(ctx context.Context, identifier, endpoint string, since time.Time) (int64, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "CountInWindow")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.RateLimitHit{}).
		Where("identifier = ? AND endpoint = ? AND timestamp >= ?", identifier, endpoint, since).
		Count(&count).Error
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to count rate limit hits").
			String("identifier", identifier).
			String("endpoint", endpoint).
			Err(err).
			Log()
		return 0, err
	}
	return count, nil
}

// RecordHit stores one request against the window
func (r *RateLimitRepository) RecordHit(ctx context.Context, identifier, endpoint string) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "RecordHit")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	hit := model.RateLimitHit{Identifier: identifier, Endpoint: endpoint, Timestamp: time.Now()}
	if err := r.db.WithContext(ctx).Create(&hit).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to record rate limit hit").
			String("identifier", identifier).
			String("endpoint", endpoint).
			Err(err).
			Log()
		return err
	}
	return nil
}

// DeleteOlderThan prunes hits past the retention horizon
func (r *RateLimitRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "DeleteOlderThan")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	result := r.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&model.RateLimitHit{})
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to prune rate limit hits").
			Err(result.Error).
			Log()
		return 0, result.Error
	}

	if result.RowsAffected > 0 {
		logger.DebugWithContext(ctx, "Stale rate limit hits pruned").
			Int64("pruned_count", result.RowsAffected).
			Log()
	}

	return result.RowsAffected, nil
}
