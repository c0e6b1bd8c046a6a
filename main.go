package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"quizdeck/config"
	"quizdeck/handlers"
	"quizdeck/middleware"
	"quizdeck/models"
	"quizdeck/routes"
	"quizdeck/services"
)

func main() {
	log := logrus.New()
	log.Formatter = &logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano}
	log.Out = os.Stdout

	// Load configuration
	cfg := config.Load()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Quiz{},
		&models.Question{},
	)
	if err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}

	// Optional backends
	redisClient := config.InitRedis(cfg)
	mailService := services.NewMailService(cfg, log)

	// Initialize services
	authService := services.NewAuthService(db, cfg.JWTSecret, cfg.JWTExpiry, mailService)
	quizService := services.NewQuizService(db, mailService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	quizHandler := handlers.NewQuizHandler(quizService)

	// Setup Gin router
	router := gin.Default()
	router.Use(middleware.CORS())
	router.Use(middleware.RateLimit(redisClient, cfg.RateLimitWindow, cfg.RateLimitMax, log))

	routes.SetupRoutes(
		router,
		authHandler,
		quizHandler,
		middleware.Auth(db, cfg.JWTSecret),
		middleware.OptionalAuth(db, cfg.JWTSecret),
	)

	log.WithField("port", cfg.Port).Info("server starting")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("failed to start server")
	}
}
