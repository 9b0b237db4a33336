package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"herdsnap/internal/blob"
	"herdsnap/internal/census"
	"herdsnap/internal/classifier"
	"herdsnap/internal/config"
	"herdsnap/internal/database"
	"herdsnap/internal/logger"
	"herdsnap/internal/scheduler"
	"herdsnap/internal/server"
	"herdsnap/internal/services"
	"herdsnap/internal/validator"
)

// @title           Herdsnap API
// @version         1.0
// @description     Herdsnap ingests dairy herd census exports into immutable, queryable snapshots.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	archive, err := blob.Open(ctx, appConfig.Blob())
	if err != nil {
		return fmt.Errorf("failed to open archive store: %w", err)
	}

	profile := census.DefaultProfile()
	if appConfig.CensusProfile != "" {
		if profile, err = census.LoadProfile(appConfig.CensusProfile); err != nil {
			return fmt.Errorf("failed to load census profile: %w", err)
		}
	}

	var model classifier.Classifier
	if appConfig.ClassifierURL != "" {
		model = classifier.NewHTTPClassifier(appConfig.ClassifierURL, appConfig.ClassifierTimeout)
	} else {
		log.Warn("CLASSIFIER_URL not set; rows will be stored unclassified")
	}

	// Initialize services
	db := dbManager.DB()
	snapshotService := services.NewSnapshotService(db, archive, appConfig.RowBatchSize)
	ingestService := services.NewIngestService(snapshotService, classifier.NewGateway(model, appConfig.Classifier()), archive,
		services.IngestOptions{Profile: profile, RejectionPreview: appConfig.RejectionPreview})
	animalService := services.NewAnimalQueryService(db)
	auditService := services.NewAuditService(db)

	janitor := scheduler.NewArchiveJanitor(archive, snapshotService, appConfig.ArchiveSweepEvery, appConfig.ArchiveSweepGrace)
	if err := janitor.Start(); err != nil {
		return fmt.Errorf("failed to schedule archive janitor: %w", err)
	}
	defer janitor.Stop()

	validator.Register()
	router := server.NewRouter(server.Deps{
		Snapshots:      snapshotService,
		Ingest:         ingestService,
		Animals:        animalService,
		Audit:          auditService,
		JWTSecret:      []byte(appConfig.JWTSecret),
		JWTIssuer:      appConfig.JWTIssuer,
		MetricsAPIKey:  appConfig.MetricsAPIKey,
		MaxUploadBytes: appConfig.MaxUploadBytes,
	})

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Herdsnap server on port %s (archive: %s)", appConfig.Port, archive.Driver())
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
