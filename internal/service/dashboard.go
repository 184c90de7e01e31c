package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/coreconnect/backend/internal/constants"
	"github.com/coreconnect/backend/internal/errors"
	ctxutil "github.com/coreconnect/backend/pkg/context"
	"github.com/coreconnect/backend/pkg/logger"
)

const dashboardCacheTTL = 5 * time.Minute

// DashboardService aggregates per-user dashboard views, cached in Redis.
type DashboardService struct {
	users UserStore
	cache *CacheService
}

func NewDashboardService(users UserStore, cache *CacheService) *DashboardService {
	return &DashboardService{users: users, cache: cache}
}

// Summary is the landing-page aggregate for the authenticated user.
type Summary struct {
	UserID        uint       `json:"user_id"`
	Email         string     `json:"email"`
	Username      string     `json:"username,omitempty"`
	Role          string     `json:"role"`
	EmailVerified bool       `json:"email_verified"`
	MemberSince   time.Time  `json:"member_since"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
}

// ActivityEntry is one row in the recent-activity feed.
type ActivityEntry struct {
	Type      string    `json:"type"`
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"timestamp"`
}

// AdminStats is the platform-wide aggregate for admin users.
type AdminStats struct {
	TotalUsers      int64     `json:"total_users"`
	ActiveUsers     int64     `json:"active_users"`
	VerifiedUsers   int64     `json:"verified_users"`
	UnverifiedUsers int64     `json:"unverified_users"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// GetSummary builds or serves the cached dashboard summary
func (s *DashboardService) GetSummary(ctx context.Context, userID uint) (*Summary, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "GetSummary")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "dashboard_service")

	cacheKey := fmt.Sprintf("%s%d:summary", constants.CacheKeyDashboard, userID)
	var cached Summary
	if s.cache.GetJSON(ctx, cacheKey, &cached) {
		logger.DebugWithContext(ctx, "Dashboard summary served from cache").
			Int("user_id", int(userID)).
			Log()
		return &cached, nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.WrapError(errors.ErrInternal, err)
	}

	summary := &Summary{
		UserID:        user.ID,
		Email:         user.Email,
		Username:      user.UsernameOrEmpty(),
		Role:          user.Role,
		EmailVerified: user.IsVerified,
		MemberSince:   user.CreatedAt,
		LastLogin:     user.LastLogin,
	}

	s.cache.SetJSON(ctx, cacheKey, summary, dashboardCacheTTL)

	return summary, nil
}

// GetActivity returns the recent-activity feed. Only account-lifecycle
// events are tracked today, derived from the user row itself.
func (s *DashboardService) GetActivity(ctx context.Context, userID uint) ([]ActivityEntry, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "GetActivity")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "dashboard_service")

	cacheKey := fmt.Sprintf("%s%d:activity", constants.CacheKeyDashboard, userID)
	var cached []ActivityEntry
	if s.cache.GetJSON(ctx, cacheKey, &cached) {
		return cached, nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.WrapError(errors.ErrInternal, err)
	}

	entries := []ActivityEntry{
		{Type: "account_created", Detail: "Account created", Timestamp: user.CreatedAt},
	}
	if user.UpdatedAt.After(user.CreatedAt) {
		entries = append(entries, ActivityEntry{
			Type: "account_updated", Detail: "Account details updated", Timestamp: user.UpdatedAt,
		})
	}
	if user.LastLogin != nil {
		entries = append(entries, ActivityEntry{
			Type: "login", Detail: "Signed in", Timestamp: *user.LastLogin,
		})
	}

	s.cache.SetJSON(ctx, cacheKey, entries, dashboardCacheTTL)

	return entries, nil
}

// GetAdminStats returns platform-wide user counts for admins
func (s *DashboardService) GetAdminStats(ctx context.Context) (*AdminStats, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "GetAdminStats")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "dashboard_service")

	cacheKey := constants.CacheKeyDashboard + "admin:stats"
	var cached AdminStats
	if s.cache.GetJSON(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	total, active, verified, err := s.users.CountStats(ctx)
	if err != nil {
		return nil, errors.WrapError(errors.ErrInternal, err)
	}

	stats := &AdminStats{
		TotalUsers:      total,
		ActiveUsers:     active,
		VerifiedUsers:   verified,
		UnverifiedUsers: total - verified,
		GeneratedAt:     time.Now(),
	}

	s.cache.SetJSON(ctx, cacheKey, stats, dashboardCacheTTL)

	return stats, nil
}
