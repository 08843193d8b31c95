package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AscentXR/AscentXR-Business-sub002/internal/config"
	"github.com/AscentXR/AscentXR-Business-sub002/internal/handler"
	"github.com/AscentXR/AscentXR-Business-sub002/internal/middleware"
	"github.com/AscentXR/AscentXR-Business-sub002/internal/repository"
	"github.com/AscentXR/AscentXR-Business-sub002/internal/scheduler"
	"github.com/AscentXR/AscentXR-Business-sub002/internal/service"
	ws "github.com/AscentXR/AscentXR-Business-sub002/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Set up logger
	logger, err := createLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Connect to database
	db, err := connectToDB(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// WebSocket hub for pushing notifications to connected dashboards
	hub := ws.NewHub(logger)

	// Initialize repositories
	notificationRepo := repository.NewNotificationRepository(db, logger)
	alertRepo := repository.NewAlertRepository(db, logger)
	goalRepo := repository.NewGoalRepository(db, logger)
	healthRepo := repository.NewHealthRepository(db, logger)
	maintenanceRepo := repository.NewMaintenanceRepository(db, logger)

	// Initialize services
	notificationService := service.NewNotificationService(notificationRepo, hub, logger)
	alertService := service.NewAlertService(alertRepo, notificationRepo, hub, logger)
	goalService := service.NewGoalService(goalRepo, logger)
	healthService := service.NewHealthService(healthRepo, logger)

	// Initialize handlers
	notificationHandler := handler.NewNotificationHandler(notificationService, alertService, logger)
	goalHandler := handler.NewGoalHandler(goalService, logger)
	healthHandler := handler.NewHealthHandler(healthService, logger)

	// Scheduler drives the periodic alert checks and maintenance sweeps
	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()

	if cfg.Scheduler.Enabled {
		var locker scheduler.Locker
		if cfg.Redis.Enabled {
			redisClient := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer redisClient.Close()
			locker = scheduler.NewRedisLock(redisClient)
		}

		jobs := scheduler.NewScheduler(
			alertService,
			maintenanceRepo,
			locker,
			cfg.Scheduler.AlertInterval,
			cfg.Scheduler.SweepInterval,
			logger,
		)
		go jobs.Start(schedulerCtx)
	}

	// Set up HTTP server with Gin
	router := setupRouter(notificationHandler, goalHandler, healthHandler, hub, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopScheduler()

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited properly")
}

func createLogger(level string) (*zap.Logger, error) {
	// Parse log level
	var zapLevel zap.AtomicLevel
	switch level {
	case "debug":
		zapLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapLevel = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapLevel = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	// Create logger config
	config := zap.Config{
		Level:            zapLevel,
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}

func connectToDB(dbConfig config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.DBName,
		dbConfig.SSLMode,
	)

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(dbConfig.MaxOpenConns)
	db.SetMaxIdleConns(dbConfig.MaxIdleConns)
	db.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)

	return db, nil
}

func setupRouter(
	notificationHandler *handler.NotificationHandler,
	goalHandler *handler.GoalHandler,
	healthHandler *handler.HealthHandler,
	hub *ws.Hub,
	logger *zap.Logger,
) *gin.Engine {
	router := gin.New()

	// Use middlewares
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// WebSocket endpoint for live notification fan-out
	router.GET("/ws", hub.HandleConnection)

	v1 := router.Group("/api/v1")
	{
		notifications := v1.Group("/notifications")
		{
			notifications.GET("", notificationHandler.GetNotifications)
			notifications.POST("", notificationHandler.CreateNotification)
			notifications.GET("/unread-count", notificationHandler.GetUnreadCount)
			notifications.PUT("/read-all", notificationHandler.MarkAllAsRead)
			notifications.POST("/check-alerts", notificationHandler.CheckAlerts)
			notifications.GET("/:id", notificationHandler.GetNotificationByID)
			notifications.PUT("/:id/read", notificationHandler.MarkAsRead)
			notifications.DELETE("/:id", notificationHandler.DeleteNotification)
		}

		goals := v1.Group("/goals")
		{
			goals.GET("", goalHandler.GetGoals)
			goals.POST("", goalHandler.CreateGoal)
			goals.GET("/tree", goalHandler.GetTree)
			goals.GET("/:id", goalHandler.GetGoalByID)
			goals.PUT("/:id", goalHandler.UpdateGoal)
			goals.DELETE("/:id", goalHandler.DeleteGoal)
		}

		health := v1.Group("/customer-health")
		{
			health.GET("", healthHandler.GetHealthRecords)
			health.POST("", healthHandler.CreateHealthRecord)
			health.GET("/renewals", healthHandler.GetUpcomingRenewals)
			health.GET("/:id", healthHandler.GetHealthRecordByID)
			health.PUT("/:id", healthHandler.UpdateHealthRecord)
			health.POST("/:id/recalculate", healthHandler.RecalculateHealth)
			health.DELETE("/:id", healthHandler.DeleteHealthRecord)
		}
	}

	return router
}
