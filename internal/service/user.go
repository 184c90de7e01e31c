package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/coreconnect/backend/internal/constants"
	"github.com/coreconnect/backend/internal/errors"
	"github.com/coreconnect/backend/internal/model"
	ctxutil "github.com/coreconnect/backend/pkg/context"
	"github.com/coreconnect/backend/pkg/logger"
)

// UserService handles profile reads/updates and account deactivation.
type UserService struct {
	users  UserStore
	tokens *TokenService
	cache  *CacheService
}

func NewUserService(users UserStore, tokens *TokenService, cache *CacheService) *UserService {
	return &UserService{users: users, tokens: tokens, cache: cache}
}

// GetProfile returns the user for an authenticated subject
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*model.User, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "GetProfile")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "user_service")

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.WrapError(errors.ErrInternal, err)
	}
	return user, nil
}

// ProfileUpdate carries the mutable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	Username  *string
	FirstName *string
	LastName  *string
	AvatarURL *string
	Bio       *string
	Location  *string
	Website   *string
}

// UpdateProfile applies a partial profile update and returns the fresh user
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, update ProfileUpdate) (*model.User, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "UpdateProfile")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "user_service")

	fields := map[string]interface{}{}
	if update.Username != nil {
		username := NormalizeUsername(*update.Username)
		if username != "" {
			existing, err := s.users.GetByUsername(ctx, username)
			if err == nil && existing.ID != userID {
				return nil, errors.ErrUsernameExists
			} else if err != nil && !stderrors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.WrapError(errors.ErrInternal, err)
			}
		}
		fields["username"] = username
	}
	if update.FirstName != nil {
		fields["first_name"] = strings.TrimSpace(*update.FirstName)
	}
	if update.LastName != nil {
		fields["last_name"] = strings.TrimSpace(*update.LastName)
	}
	if update.AvatarURL != nil {
		fields["avatar_url"] = *update.AvatarURL
	}
	if update.Bio != nil {
		fields["bio"] = *update.Bio
	}
	if update.Location != nil {
		fields["location"] = *update.Location
	}
	if update.Website != nil {
		fields["website"] = *update.Website
	}

	if len(fields) > 0 {
		if err := s.users.UpdateProfile(ctx, userID, fields); err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.ErrUserNotFound
			}
			return nil, errors.WrapError(errors.ErrInternal, err)
		}
	}

	s.invalidateDashboards(ctx, userID)

	return s.GetProfile(ctx, userID)
}

// DeactivateAccount soft-deletes the account and revokes all sessions
func (s *UserService) DeactivateAccount(ctx context.Context, userID uint) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "DeactivateAccount")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "user_service")

	if err := s.users.Deactivate(ctx, userID); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrUserNotFound
		}
		return errors.WrapError(errors.ErrInternal, err)
	}

	if err := s.tokens.RevokeAll(ctx, userID); err != nil {
		logger.ErrorWithContext(ctx, "Failed to revoke sessions after deactivation").
			Int("user_id", int(userID)).
			Err(err).
			Log()
	}

	s.invalidateDashboards(ctx, userID)

	logger.InfoWithContext(ctx, "Account deactivated").
		Int("user_id", int(userID)).
		Log()

	return nil
}

func (s *UserService) invalidateDashboards(ctx context.Context, userID uint) {
	if s.cache.Enabled() {
		s.cache.Invalidate(ctx, fmt.Sprintf("%s%d:*", constants.CacheKeyDashboard, userID))
	}
}
