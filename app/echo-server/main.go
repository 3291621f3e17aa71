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

	"gigrecs/app/echo-server/router"
	"gigrecs/business/experiment"
	"gigrecs/business/recommender"
	"gigrecs/internal/middleware"
	psqlRepo "gigrecs/internal/repository/postgres"
	redisRepo "gigrecs/internal/repository/redis"
	"gigrecs/internal/rest"
	"gigrecs/pkg/config"
	"gigrecs/pkg/database"
	redisdb "gigrecs/pkg/database/redis"
	"gigrecs/pkg/logger"
	"gigrecs/pkg/metrics"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting Gig Recommendation Service", "version", cfg.App.Version)

	metrics.Init()

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	logger.Info("Database connected successfully")

	redisClient, err := redisdb.NewRedisClient(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", "error", err)
	}
	defer func() {
		_ = redisdb.CloseRedisClient(redisClient)
	}()

	// Init repo
	eventRepo := psqlRepo.NewEventRepository(db)
	trainingRepo := psqlRepo.NewTrainingRepository(db)
	feedbackRepo := psqlRepo.NewFeedbackRepository(db)
	modelRepo := psqlRepo.NewModelRepository(db)
	assignmentRepo := redisRepo.NewAssignmentRepository(redisClient)
	catalogRepo := redisRepo.NewCatalogRepository(redisClient)

	// Init service
	recSvc := recommender.NewService(eventRepo, trainingRepo, feedbackRepo, modelRepo, cfg.Model.MinTrainingSamples)
	expSvc := experiment.NewService(assignmentRepo, catalogRepo, cfg.Experiment.DefaultExperimentID, cfg.Experiment.ControlVariant)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancelStartup()

	if err := expSvc.SeedDefaultExperiment(startupCtx); err != nil {
		logger.Fatal("Failed to seed default experiment", "error", err)
	}

	// Model bootstrap is non-fatal: without a snapshot every prediction
	// degrades to popularity until a retrain succeeds.
	if err := recSvc.Load(startupCtx); err != nil {
		logger.Warn("Model bootstrap failed, serving popularity fallback", "error", err)
	}

	if cfg.Model.RetrainInterval > 0 {
		go retrainLoop(recSvc, cfg.Model.RetrainInterval)
	}

	modelVersion := func() string { return recSvc.ModelInfo().Version }

	// Init handler
	recHandler := rest.NewRecommendationHandler(recSvc, expSvc, cfg.Experiment.DefaultExperimentID, modelVersion)
	modelHandler := rest.NewModelHandler(recSvc)
	expHandler := rest.NewExperimentHandler(expSvc)
	healthHandler := rest.NewHealthHandler("ml-service", modelVersion, recSvc.Loaded)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.MetricsMiddleware())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	authRequired := middleware.AuthMiddleware(cfg.JWT.SecretKey)

	// Setup routes
	api := e.Group("/v1")
	router.SetupRecommendationRoutes(api, recHandler, authRequired)
	router.SetupModelRoutes(api, modelHandler, authRequired)
	router.SetupExperimentRoutes(api, expHandler, authRequired)
	router.SetupOpsRoutes(e, healthHandler)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}

// retrainLoop stands in for the external cron trigger.
func retrainLoop(svc *recommender.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		if _, err := svc.Retrain(ctx); err != nil {
			logger.Error("Scheduled retrain failed", "error", err)
		}
		cancel()
	}
}
