package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"towdispatch/internal/app"
	"towdispatch/internal/blob"
	"towdispatch/internal/config"
	"towdispatch/internal/handler"
	internalRedis "towdispatch/internal/redis"
	"towdispatch/internal/repository/postgres"
	"towdispatch/internal/service"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic first so the database driver can be
	// instrumented.
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s", cfg.NewRelic.AppName)
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	blobStore, err := blob.NewS3Store(blob.S3Config{
		Region:    cfg.Blob.Region,
		Bucket:    cfg.Blob.Bucket,
		Endpoint:  cfg.Blob.Endpoint,
		AccessKey: cfg.Blob.AccessKey,
		SecretKey: cfg.Blob.SecretKey,
	})
	if err != nil {
		log.Fatalf("failed to initialize blob store: %v", err)
	}

	server := wireServer(db, redisClient, blobStore, nrApp, cfg)

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, blobStore blob.Store, nrApp *newrelic.Application, cfg *config.Config) *http.Server {
	// Redis stores.
	rateCache := internalRedis.NewRateCache(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)

	// Repositories.
	jobRepo := postgres.NewJobRepository(db)
	evidenceRepo := postgres.NewEvidenceRepository(db)
	rejectionRepo := postgres.NewRejectionRepository(db)
	rateRepo := postgres.NewRateRepository(db)

	// Services.
	notificationService := service.NewNotificationService()
	lifecycleService := service.NewLifecycleService(jobRepo, evidenceRepo, notificationService)
	evidenceService := service.NewEvidenceService(jobRepo, evidenceRepo, blobStore, lockStore)
	rejectionService := service.NewRejectionService(rejectionRepo, jobRepo, notificationService)
	rateService := service.NewRateService(rateRepo, rateCache)

	// Handlers.
	jobHandler := handler.NewJobHandler(lifecycleService)
	evidenceHandler := handler.NewEvidenceHandler(evidenceService)
	rejectionHandler := handler.NewRejectionHandler(rejectionService)
	priceHandler := handler.NewPriceHandler(rateService)

	router := app.NewRouter(app.RouterDeps{
		JobHandler:       jobHandler,
		EvidenceHandler:  evidenceHandler,
		RejectionHandler: rejectionHandler,
		PriceHandler:     priceHandler,
		RedisClient:      redisClient,
		NewRelicApp:      nrApp,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
