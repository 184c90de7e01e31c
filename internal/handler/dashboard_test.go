package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreconnect/backend/config"
	"github.com/coreconnect/backend/internal/constants"
	"github.com/coreconnect/backend/internal/middleware"
	"github.com/coreconnect/backend/internal/model"
	"github.com/coreconnect/backend/internal/service"
)

type dashboardFixture struct {
	router *gin.Engine
	users  *memUserStore
	tokens *service.TokenService
}

// newDashboardFixture mirrors the production dashboard route groups: summary
// needs a bearer token only, activity additionally needs a verified email,
// admin stats needs the admin role.
func newDashboardFixture(t *testing.T) *dashboardFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := newMemUserStore()
	tokens := service.NewTokenService(config.JWTConfig{
		Secret:     "dashboard-test-secret",
		Issuer:     "coreconnect-test",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}, &memRefreshTokenStore{records: map[string]*model.RefreshToken{}})

	dashboardService := service.NewDashboardService(users, service.NewCacheService(nil))
	dashboardHandler := NewDashboardHandler(dashboardService)
	jwtMw := middleware.NewJWTMiddleware(tokens, users)

	router := gin.New()
	dashboard := router.Group("/api/dashboard", jwtMw.RequireAuth())
	dashboard.GET("/summary", dashboardHandler.Summary)

	verified := dashboard.Group("", jwtMw.RequireVerified())
	verified.GET("/activity", dashboardHandler.Activity)

	admin := dashboard.Group("/admin", jwtMw.RequireRole(constants.RoleAdmin))
	admin.GET("/stats", dashboardHandler.AdminStats)

	return &dashboardFixture{router: router, users: users, tokens: tokens}
}

func (f *dashboardFixture) seedUser(t *testing.T, email, role string, verified bool) string {
	t.Helper()
	user := &model.User{Email: email, Role: role, IsActive: true, IsVerified: verified}
	require.NoError(t, f.users.Create(context.Background(), user))

	token, err := f.tokens.IssueAccessToken(user.ID, user.Email)
	require.NoError(t, err)
	return token
}

func (f *dashboardFixture) get(path, accessToken string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestDashboardSummaryNeedsBearerOnly(t *testing.T) {
	f := newDashboardFixture(t)
	token := f.seedUser(t, "alice@example.com", constants.RoleUser, false)

	assert.Equal(t, http.StatusUnauthorized, f.get("/api/dashboard/summary", "").Code)

	// Unverified accounts can still read their summary.
	assert.Equal(t, http.StatusOK, f.get("/api/dashboard/summary", token).Code)
}

func TestDashboardActivityNeedsVerifiedEmail(t *testing.T) {
	f := newDashboardFixture(t)
	unverified := f.seedUser(t, "alice@example.com", constants.RoleUser, false)
	verified := f.seedUser(t, "bob@example.com", constants.RoleUser, true)

	assert.Equal(t, http.StatusForbidden, f.get("/api/dashboard/activity", unverified).Code)
	assert.Equal(t, http.StatusOK, f.get("/api/dashboard/activity", verified).Code)
}

func TestDashboardAdminStatsNeedsAdminRole(t *testing.T) {
	f := newDashboardFixture(t)
	user := f.seedUser(t, "alice@example.com", constants.RoleUser, true)
	admin := f.seedUser(t, "root@example.com", constants.RoleAdmin, true)

	assert.Equal(t, http.StatusForbidden, f.get("/api/dashboard/admin/stats", user).Code)
	assert.Equal(t, http.StatusOK, f.get("/api/dashboard/admin/stats", admin).Code)
}
