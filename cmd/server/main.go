package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/signdrop/internal/api"
	"github.com/signdrop/internal/config"
	"github.com/signdrop/internal/db"
	"github.com/signdrop/internal/pdfengine"
	"github.com/signdrop/internal/services"
	"github.com/signdrop/internal/storage"
	"github.com/signdrop/internal/store"
	"github.com/signdrop/pkg/logger"
	"github.com/signdrop/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	cfg := loadConfig()

	zapLogger, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	zap.ReplaceGlobals(zapLogger)

	config.LogConfig(zapLogger)

	var docStore store.DocumentStore
	var database *gorm.DB
	if cfg.Database.Host != "" {
		database, err = db.Initialize(cfg)
		if err != nil {
			zapLogger.Fatal("Failed to initialize database", zap.Error(err))
		}
		docStore = store.NewGormStore(database)
		zapLogger.Info("Using postgres document store", zap.String("host", cfg.Database.Host))
	} else {
		docStore = store.NewMemoryStore()
		zapLogger.Warn("No database configured, using in-memory document store")
	}

	blobs, err := storage.NewFileStore(cfg.Storage.BlobDir)
	if err != nil {
		zapLogger.Fatal("Failed to initialize blob storage", zap.Error(err))
	}

	collector := metrics.NewCollector()
	engine := pdfengine.NewPdfcpuEngine()
	workflow := services.NewWorkflow(docStore, blobs, engine, zapLogger, collector, cfg.Signing.LinkTTL)
	sessions := services.NewSessionService(cfg, zapLogger)

	router := api.NewRouter(cfg, zapLogger, collector, workflow, sessions)
	router.SetupRoutes()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Server.Port
	}
	go func() {
		if err := router.Run(":" + port); err != nil {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()
	zapLogger.Info("Server started", zap.String("port", port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	if database != nil {
		if sqlDB, err := database.DB(); err == nil {
			sqlDB.Close()
		}
	}
	zapLogger.Info("Server gracefully stopped")
}

func loadConfig() *config.Configuration {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		cfg, err := config.LoadConfig(path)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		return cfg
	}
	return config.InitializeDefaultConfig()
}
