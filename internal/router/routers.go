package router

import (
	"github.com/gin-gonic/gin"

	"github.com/coreconnect/backend/config"
	"github.com/coreconnect/backend/internal/handler"
	"github.com/coreconnect/backend/internal/middleware"
)

type Router struct {
	authHandler      *handler.AuthHandler
	userHandler      *handler.UserHandler
	dashboardHandler *handler.DashboardHandler
	healthHandler    *handler.HealthHandler

	jwtMw          *middleware.JWTMiddleware
	rateLimitStore middleware.RateLimitStore
	Config         *config.Config
}

func NewRouter(
	auth *handler.AuthHandler,
	user *handler.UserHandler,
	dashboard *handler.DashboardHandler,
	health *handler.HealthHandler,

	jwtMw *middleware.JWTMiddleware,
	rateLimitStore middleware.RateLimitStore,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:      auth,
		userHandler:      user,
		dashboardHandler: dashboard,
		healthHandler:    health,

		jwtMw:          jwtMw,
		rateLimitStore: rateLimitStore,
		Config:         cfg,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	// Use custom logging and recovery middleware
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.RequestContext())
	router.Use(middleware.RequestTimeout(r.Config.App.Timeout))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(r.Config.App.FrontendURL))

	router.GET("/health", r.healthHandler.HealthCheck)
	router.GET("/health/live", r.healthHandler.BasicHealth)

	api := router.Group("/api")
	{
		r.authRoutes(api)
		r.dashboardRoutes(api)
	}

	return router
}

// authRateLimit throttles the credential endpoints harder than the rest of
// the API.
func (r *Router) authRateLimit() gin.HandlerFunc {
	return middleware.RateLimit(
		r.rateLimitStore,
		r.Config.RateLimit.AuthRequests,
		r.Config.RateLimit.AuthWindow,
		r.Config.Security.RateLimitRetention,
	)
}

func (r *Router) apiRateLimit() gin.HandlerFunc {
	return middleware.RateLimit(
		r.rateLimitStore,
		r.Config.RateLimit.APIRequests,
		r.Config.RateLimit.APIWindow,
		r.Config.Security.RateLimitRetention,
	)
}
