package repository

import (
	"context"
	"time"

	"github.com/coreconnect/backend/internal/model"
	ctxutil "github.com/coreconnect/backend/pkg/context"
	"github.com/coreconnect/backend/pkg/logger"
	"gorm.io/gorm"
)

// ActionTokenRepository stores single-use verification and reset tokens.
type ActionTokenRepository struct {
	db *gorm.DB
}

func NewActionTokenRepository(db *gorm.DB) *ActionTokenRepository {
	return &ActionTokenRepository{db: db}
}

// Replace deletes any unused token for the user+purpose, then inserts the
// new one, so at most one live token exists per user per purpose.
func (r *ActionTokenRepository) Replace(ctx context.Context, token *model.ActionToken) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Replace")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	start := time.Now()

	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND purpose = ? AND used = ?", token.UserID, token.Purpose, false).
		Delete(&model.ActionToken{}).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to clear previous action tokens").
			Int("user_id", int(token.UserID)).
			String("purpose", token.Purpose).
			Err(err).
			Log()
		return err
	}

	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to store action token").
			Int("user_id", int(token.UserID)).
			String("purpose", token.Purpose).
			Err(err).
			Log()
		return err
	}

	logger.DebugWithContext(ctx, "Action token stored").
		Int("user_id", int(token.UserID)).
		String("purpose", token.Purpose).
		Duration(time.Since(start)).
		Log()

	return nil
}

// GetByToken fetches a token regardless of state; callers decide on
// used/expired semantics.
func (r *ActionTokenRepository) GetByToken(ctx context.Context, tokenValue, purpose string) (*model.ActionToken, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "GetByToken")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	var token model.ActionToken
	result := r.db.WithContext(ctx).Where("token = ? AND purpose = ?", tokenValue, purpose).First(&token)
	if result.Error != nil {
		logger.DebugWithContext(ctx, "Action token lookup failed").
			String("purpose", purpose).
			Err(result.Error).
			Log()
		return nil, result.Error
	}
	return &token, nil
}

// MarkUsed flips used exactly once. The guard on used = false makes a
// concurrent second consume miss and return gorm.ErrRecordNotFound.
func (r *ActionTokenRepository) MarkUsed(ctx context.Context, id uint) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "MarkUsed")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	result := r.db.WithContext(ctx).
		Model(&model.ActionToken{}).
		Where("id = ? AND used = ?", id, false).
		Update("used", true)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to mark action token used").
			Int("token_id", int(id)).
			Err(result.Error).
			Log()
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.InfoWithContext(ctx, "Action token consumed").
		Int("token_id", int(id)).
		Log()

	return nil
}

// DeleteExpired prunes tokens past their expiry
func (r *ActionTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "DeleteExpired")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	result := r.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&model.ActionToken{})
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to prune expired action tokens").
			Err(result.Error).
			Log()
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
