package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/comptrack/comptrack-backend/internal/data/db"
	"github.com/comptrack/comptrack-backend/internal/data/repos"
	"github.com/comptrack/comptrack-backend/internal/http/handlers"
	"github.com/comptrack/comptrack-backend/internal/http/middleware"
	"github.com/comptrack/comptrack-backend/internal/ingest"
	"github.com/comptrack/comptrack-backend/internal/observability"
	"github.com/comptrack/comptrack-backend/internal/platform/envutil"
	"github.com/comptrack/comptrack-backend/internal/platform/logger"
	"github.com/comptrack/comptrack-backend/internal/realtime"
	"github.com/comptrack/comptrack-backend/internal/realtime/bus"
	"github.com/comptrack/comptrack-backend/internal/seed"
	"github.com/comptrack/comptrack-backend/internal/server"
	"github.com/comptrack/comptrack-backend/internal/services"
)

func main() {
	// Logger
	logMode := envutil.String("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	// Tracing
	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "comptrack",
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", "dev"),
	})

	// Env
	jwtSecretKey := envutil.String("JWT_SECRET_KEY", "defaultsecret")
	accessTokenTTL := envutil.Int("ACCESS_TOKEN_TTL", 3600)
	maxUploadBytes := envutil.Int64("UPLOAD_MAX_BYTES", ingest.DefaultMaxPayloadBytes)
	batchSize := envutil.Int("INGEST_BATCH_SIZE", ingest.DefaultBatchSize)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()
	if err := db.AutoMigrateAll(thePG); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}

	// Repos
	log.Info("Setting up repos...")
	userRepo := repos.NewUserRepo(thePG, log)
	towerRepo := repos.NewTowerRepo(thePG, log)
	componentRepo := repos.NewComponentRepo(thePG, log)
	activityRepo := repos.NewActivityRepo(thePG, log)
	uploadedFileRepo := repos.NewUploadedFileRepo(thePG, log)

	// Realtime
	log.Info("Setting up realtime hub...")
	hub := realtime.NewHub(log)
	eventBus, err := bus.New(log)
	if err != nil {
		log.Error("Could not init event bus", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()
	if err := eventBus.StartForwarder(ctx, hub.Broadcast); err != nil {
		log.Error("Could not start event forwarder", "error", err)
		os.Exit(1)
	}

	// Services
	log.Info("Setting up services...")
	notifier := services.NewNotifier(log, eventBus)
	authService := services.NewAuthService(thePG, log, userRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second)
	activityService := services.NewActivityService(log, activityRepo, notifier)
	reconciler := ingest.NewReconciler(thePG, log, componentRepo, towerRepo, batchSize)
	ingestService := ingest.NewService(log, reconciler, notifier, maxUploadBytes)
	uploadService := services.NewUploadService(log, ingestService, uploadedFileRepo, activityService)
	componentService := services.NewComponentService(thePG, log, componentRepo, towerRepo, activityService, notifier)
	towerService := services.NewTowerService(log, towerRepo, activityService)
	analyticsService := services.NewAnalyticsService(log, componentRepo)

	// Seed
	if envutil.Bool("SEED_ON_START", false) {
		seeder := seed.NewSeeder(thePG, log, componentRepo, towerRepo, reconciler)
		if err := seeder.Run(ctx); err != nil {
			log.Warn("Seeding failed", "error", err)
		}
	}

	// HTTP
	router := server.NewRouter(server.RouterConfig{
		Log:            log,
		AuthMiddleware: middleware.NewAuthMiddleware(log, authService),
		Health:         handlers.NewHealthHandler(),
		Auth:           handlers.NewAuthHandler(authService),
		Components:     handlers.NewComponentHandler(log, componentService, activityService),
		Towers:         handlers.NewTowerHandler(log, towerService),
		Uploads:        handlers.NewUploadHandler(log, uploadService),
		Analytics:      handlers.NewAnalyticsHandler(log, analyticsService),
		Activities:     handlers.NewActivityHandler(log, activityService),
		Realtime:       handlers.NewRealtimeHandler(log, hub),
	})

	addr := ":" + envutil.String("PORT", "8080")
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("Server shutdown failed", "error", err)
	}
	if shutdownOTel != nil {
		if err := shutdownOTel(shutdownCtx); err != nil {
			log.Warn("Tracer shutdown failed", "error", err)
		}
	}
}
