package main

import (
	"teamsync-server/internal/handler"
	"teamsync-server/internal/middleware"
	"teamsync-server/pkg/config"
	"teamsync-server/pkg/database"
	"teamsync-server/pkg/jwtutil"
	"teamsync-server/pkg/logger"
	"teamsync-server/pkg/mailer"
	"teamsync-server/pkg/otp"
	"teamsync-server/pkg/support"
	"teamsync-server/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting TeamSync server...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	// Initialize OTP generation and SMTP mailer
	otp.Initialize(&cfg.OTP)
	mailer.Initialize(&cfg.SMTP)
	log.Info("Mailer initialized", zap.String("smtp_host", cfg.SMTP.Host))

	// Initialize the support chat assistant
	support.Initialize(&cfg.Support)
	if cfg.Support.OpenAIAPIKey == "" {
		log.Warn("OPENAI_API_KEY not set, support chat falls back to canned replies")
	}

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover()) // Add recovery middleware
	e.Use(echomiddleware.CORS())    // Add CORS middleware
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Authentication routes
	auth := e.Group("/api/auth")
	auth.POST("/signup", handler.Signup)
	auth.POST("/login", handler.Login)
	auth.POST("/forgot-password", handler.ForgotPassword)
	auth.POST("/verify-otp", handler.VerifyOTP)
	auth.GET("/me", handler.GetProfile, middleware.AuthMiddleware)

	// Admin routes - require a valid token carrying the Admin role
	admin := e.Group("/api/admin", middleware.AuthMiddleware, middleware.RequireAdmin)
	admin.GET("/users", handler.ListUsers)
	admin.PUT("/users/:id", handler.UpdateUser)
	admin.DELETE("/users/:id", handler.DeleteUser)
	admin.PUT("/users/:id/terminate", handler.TerminateUser)
	admin.PUT("/users/:id/unlock", handler.UnlockUser)
	admin.GET("/audit", handler.ListAuditLog)

	// Support chat
	e.POST("/api/support", handler.SupportChat)

	// Get server port from configuration
	port := cfg.Server.Port

	// Start server
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
