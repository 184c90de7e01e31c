package router

import (
	"github.com/gin-gonic/gin"

	"github.com/coreconnect/backend/internal/constants"
	"github.com/coreconnect/backend/internal/middleware"
)

func (r *Router) dashboardRoutes(api *gin.RouterGroup) {
	dashboard := api.Group("/dashboard")
	dashboard.Use(r.jwtMw.RequireAuth(), middleware.UserContext(), r.apiRateLimit())
	{
		dashboard.GET("/summary", r.dashboardHandler.Summary)

		// Activity feed requires a verified email address
		verified := dashboard.Group("")
		verified.Use(r.jwtMw.RequireVerified())
		{
			verified.GET("/activity", r.dashboardHandler.Activity)
		}

		admin := dashboard.Group("/admin")
		admin.Use(r.jwtMw.RequireRole(constants.RoleAdmin))
		{
			admin.GET("/stats", r.dashboardHandler.AdminStats)
		}
	}
}
