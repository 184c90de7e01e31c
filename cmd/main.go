package main

import (
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	configs "github.com/coreconnect/backend/config"
	"github.com/coreconnect/backend/internal/handler"
	"github.com/coreconnect/backend/internal/middleware"
	"github.com/coreconnect/backend/internal/repository"
	"github.com/coreconnect/backend/internal/router"
	"github.com/coreconnect/backend/internal/service"
	"github.com/coreconnect/backend/pkg/database"
	"github.com/coreconnect/backend/pkg/logger"
	"github.com/coreconnect/backend/pkg/redis"
)

func main() {
	config, err := configs.LoadConfig()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	// Initialize Zap logger
	if err := logger.InitLogger(config); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	logger.GetLogger().Info("Application starting",
		zap.String("app_name", config.App.Name),
		zap.String("environment", config.App.Environment),
	)

	// Database
	db, err := database.NewPostgresDB(config.Database)
	if err != nil {
		logger.GetLogger().Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	if err := database.AutoMigrate(db); err != nil {
		logger.GetLogger().Fatal("Failed to run database migrations", zap.Error(err))
	}
	logger.GetLogger().Info("Database migrated successfully")

	// Redis is optional; the cache degrades to no-ops when it is absent.
	var redisClient *redis.Client
	if config.Redis.Enabled {
		redisClient, err = redis.NewClient(config)
		if err != nil {
			logger.GetLogger().Warn("Redis unavailable, continuing without cache", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	actionTokenRepo := repository.NewActionTokenRepository(db)
	failedAttemptRepo := repository.NewFailedAttemptRepository(db)
	rateLimitRepo := repository.NewRateLimitRepository(db)

	// Services
	cacheService := service.NewCacheService(redisClient)
	passwordService := service.NewPasswordService(config.Security.BcryptCost)
	tokenService := service.NewTokenService(config.JWT, refreshTokenRepo)

	var mailSender service.MailSender
	if config.Mail.Enabled {
		mailSender = service.NewSMTPSender(config.Mail)
	}
	emailService := service.NewEmailService(mailSender, config)

	authService := service.NewAuthService(
		userRepo,
		actionTokenRepo,
		failedAttemptRepo,
		tokenService,
		passwordService,
		emailService,
		config.Security,
	)
	userService := service.NewUserService(userRepo, tokenService, cacheService)
	dashboardService := service.NewDashboardService(userRepo, cacheService)

	// Handlers
	authHandler := handler.NewAuthHandler(authService, passwordService, tokenService, userService)
	userHandler := handler.NewUserHandler(userService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	healthHandler := handler.NewHealthHandler(db, cacheService)

	// Middleware
	jwtMiddleware := middleware.NewJWTMiddleware(tokenService, userRepo)

	r := router.NewRouter(
		authHandler,
		userHandler,
		dashboardHandler,
		healthHandler,

		jwtMiddleware,
		rateLimitRepo,
		config,
	).SetupRoutes()

	go func() {
		logger.GetLogger().Info("Server starting",
			zap.String("port", config.App.Port),
			zap.String("host", "0.0.0.0"),
		)
		if err := r.Run(":" + config.App.Port); err != nil {
			logger.GetLogger().Fatal("Failed to start server",
				zap.Error(err),
				zap.String("port", config.App.Port),
			)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.GetLogger().Info("Shutting down server...")
}
