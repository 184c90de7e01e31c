package router

import (
	"github.com/gin-gonic/gin"

	"github.com/coreconnect/backend/internal/middleware"
)

func (r *Router) authRoutes(api *gin.RouterGroup) {
	auth := api.Group("/auth")
	{
		// Public routes (no authentication required)
		public := auth.Group("")
		public.Use(r.authRateLimit())
		{
			public.POST("/register", r.authHandler.Register)
			public.POST("/signup", r.authHandler.Register)
			public.POST("/login", r.authHandler.Login)
			public.POST("/refresh", r.authHandler.RefreshToken)
			public.GET("/verify-email/:token", r.authHandler.VerifyEmail)
			public.POST("/forgot-password", r.authHandler.ForgotPassword)
			public.POST("/reset-password", r.authHandler.ResetPassword)
			public.POST("/password-strength", r.authHandler.PasswordStrength)
		}

		// Protected routes (JWT authentication required)
		protected := auth.Group("")
		protected.Use(r.jwtMw.RequireAuth(), middleware.UserContext(), r.apiRateLimit())
		{
			protected.POST("/logout", r.authHandler.Logout)
			protected.GET("/verify", r.authHandler.Verify)
			protected.GET("/profile", r.userHandler.GetProfile)
			protected.PUT("/profile", r.userHandler.UpdateProfile)
			protected.POST("/change-password", r.authHandler.ChangePassword)
			protected.DELETE("/account", r.userHandler.DeleteAccount)
		}
	}
}
