package repository

import (
	"context"
	"time"

	"github.com/coreconnect/backend/internal/model"
	ctxutil "github.com/coreconnect/backend/pkg/context"
	"github.com/coreconnect/backend/pkg/logger"
	"gorm.io/gorm"
)

type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// Create persists the record backing a freshly issued refresh token
func (r *RefreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Create")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	start := time.Now()
	result := r.db.WithContext(ctx).Create(token)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to store refresh token").
			String("jti", token.JTI).
			Int("user_id", int(token.UserID)).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	logger.DebugWithContext(ctx, "Refresh token stored").
		String("jti", token.JTI).
		Int("user_id", int(token.UserID)).
		Duration(duration).
		Log()

	return nil
}

// GetByJTI looks up the server-side record for a refresh JWT
func (r *RefreshTokenRepository) GetByJTI(ctx context.Context, jti string) (*model.RefreshToken, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "GetByJTI")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	var token model.RefreshToken
	result := r.db.WithContext(ctx).Where("jti = ?", jti).First(&token)
	if result.Error != nil {
		logger.DebugWithContext(ctx, "Refresh token lookup failed").
			String("jti", jti).
			Err(result.Error).
			Log()
		return nil, result.Error
	}
	return &token, nil
}

// Revoke marks a single token revoked. Revoking an unknown or already
// revoked jti is not an error.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, jti string) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Revoke")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	result := r.db.WithContext(ctx).Model(&model.RefreshToken{}).Where("jti = ?", jti).Update("revoked", true)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to revoke refresh token").
			String("jti", jti).
			Err(result.Error).
			Log()
		return result.Error
	}

	logger.InfoWithContext(ctx, "Refresh token revoked").
		String("jti", jti).
		Int64("rows_affected", result.RowsAffected).
		Log()

	return nil
}

// RevokeAllForUser revokes every live token a user holds
func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uint) (int64, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "RevokeAllForUser")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	start := time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true)
	duration := time.Since(start)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to revoke user refresh tokens").
			Int("user_id", int(userID)).
			Duration(duration).
			Err(result.Error).
			Log()
		return 0, result.Error
	}

	logger.InfoWithContext(ctx, "All refresh tokens revoked for user").
		Int("user_id", int(userID)).
		Int64("revoked_count", result.RowsAffected).
		Duration(duration).
		Log()

	return result.RowsAffected, nil
}

// DeleteExpired prunes records whose expiry has passed
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "DeleteExpired")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	result := r.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&model.RefreshToken{})
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to prune expired refresh tokens").
			Err(result.Error).
			Log()
		return 0, result.Error
	}

	if result.RowsAffected > 0 {
		logger.InfoWithContext(ctx, "Expired refresh tokens pruned").
			Int64("pruned_count", result.RowsAffected).
			Log()
	}

	return result.RowsAffected, nil
}
