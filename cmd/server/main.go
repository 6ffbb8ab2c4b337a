package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/OpenNSW/tradestats/internal/config"
	"github.com/OpenNSW/tradestats/internal/database"
	"github.com/OpenNSW/tradestats/internal/ingest"
	"github.com/OpenNSW/tradestats/internal/logging"
	"github.com/OpenNSW/tradestats/internal/trade/router"
	"github.com/OpenNSW/tradestats/internal/trade/service"
	"github.com/OpenNSW/tradestats/internal/uploads"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("failed to load .env: %v", err)
	}

	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded successfully",
		"db_driver", cfg.Database.Driver,
		"db_host", cfg.Database.Host,
		"db_port", cfg.Database.Port,
		"db_name", cfg.Database.Name,
		"db_sslmode", cfg.Database.SSLMode,
	)

	slog.Info("CORS configuration",
		"allowed_origins", cfg.CORS.AllowedOrigins,
		"allowed_methods", cfg.CORS.AllowedMethods,
		"allowed_headers", cfg.CORS.AllowedHeaders,
		"allow_credentials", cfg.CORS.AllowCredentials,
		"max_age", cfg.CORS.MaxAge,
	)

	slog.Info("server configuration",
		"port", cfg.Server.Port,
		"service_url", cfg.Server.ServiceURL,
		"gin_mode", cfg.Server.GinMode,
		"max_upload_bytes", cfg.Ingest.MaxUploadBytes,
		"archive_uploads", cfg.Ingest.ArchiveUploads,
	)

	// Initialize database connection
	db, err := database.Open(&cfg.Database, logging.GormLevel(cfg.Logging.Level))
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	ctx := context.Background()

	// Perform health check
	if err := database.HealthCheck(ctx, db); err != nil {
		log.Fatalf("database health check failed: %v", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var (
		archive   *uploads.ArchiveService
		downloads *uploads.HTTPHandler
	)
	if cfg.Ingest.ArchiveUploads {
		driver, err := uploads.NewStorageFromConfig(ctx, cfg.Storage)
		if err != nil {
			log.Fatalf("failed to initialize archive storage: %v", err)
		}
		archive = uploads.NewArchiveService(driver)
		downloads = uploads.NewHTTPHandler(archive)
	}

	ingestor := ingest.NewIngestor(ingest.NewGormStore(db), nil)
	tr := router.NewTradeRouter(
		service.NewReferenceService(db),
		service.NewFactService(db),
		service.NewIngestionService(db, ingestor, archive, cfg.Ingest.MaxUploadBytes),
		downloads,
	)

	gin.SetMode(cfg.Server.GinMode)
	engine := router.NewEngine(cfg, tr, func(ctx context.Context) error {
		return database.HealthCheck(ctx, db)
	})

	// Set up graceful shutdown
	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:    serverAddr,
		Handler: engine,
	}

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		slog.Info("starting server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start server", "error", err)
			quit <- syscall.SIGTERM
		}
	}()

	// Wait for interrupt signal
	<-quit
	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// In-flight ingestions finish within the timeout; their run records are written regardless.
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	} else {
		slog.Info("server gracefully stopped")
	}

	slog.Info("server stopped")
}
