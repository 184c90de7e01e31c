package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreconnect/backend/internal/constants"
	"github.com/coreconnect/backend/internal/errors"
	"github.com/coreconnect/backend/internal/model"
)

func TestDashboardSummary(t *testing.T) {
	users := newFakeUserStore()
	svc := NewDashboardService(users, NewCacheService(nil))

	name := "alice"
	lastLogin := time.Now().Add(-time.Hour)
	user := &model.User{
		Email:      "alice@example.com",
		Username:   &name,
		Role:       constants.RoleUser,
		IsActive:   true,
		IsVerified: true,
		LastLogin:  &lastLogin,
	}
	require.NoError(t, users.Create(context.Background(), user))

	summary, err := svc.GetSummary(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, summary.UserID)
	assert.Equal(t, "alice@example.com", summary.Email)
	assert.Equal(t, "alice", summary.Username)
	assert.True(t, summary.EmailVerified)
	require.NotNil(t, summary.LastLogin)
}

func TestDashboardSummaryUnknownUser(t *testing.T) {
	svc := NewDashboardService(newFakeUserStore(), NewCacheService(nil))

	_, err := svc.GetSummary(context.Background(), 99)
	assert.ErrorIs(t, err, errors.ErrUserNotFound)
}

func TestDashboardActivity(t *testing.T) {
	users := newFakeUserStore()
	svc := NewDashboardService(users, NewCacheService(nil))

	lastLogin := time.Now()
	user := &model.User{Email: "alice@example.com", IsActive: true, LastLogin: &lastLogin}
	require.NoError(t, users.Create(context.Background(), user))

	entries, err := svc.GetActivity(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "account_created", entries[0].Type)

	types := make([]string, 0, len(entries))
	for _, entry := range entries {
		types = append(types, entry.Type)
	}
	assert.Contains(t, types, "login")
}

func TestDashboardAdminStats(t *testing.T) {
	users := newFakeUserStore()
	svc := NewDashboardService(users, NewCacheService(nil))

	seed := []*model.User{
		{Email: "a@example.com", IsActive: true, IsVerified: true},
		{Email: "b@example.com", IsActive: true},
		{Email: "c@example.com", IsActive: false, IsVerified: true},
	}
	for _, user := range seed {
		require.NoError(t, users.Create(context.Background(), user))
	}

	stats, err := svc.GetAdminStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalUsers)
	assert.Equal(t, int64(2), stats.ActiveUsers)
	assert.Equal(t, int64(2), stats.VerifiedUsers)
	assert.Equal(t, int64(1), stats.UnverifiedUsers)
	assert.False(t, stats.GeneratedAt.IsZero())
}
