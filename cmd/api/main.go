package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/devmeme/internal/api"
	"github.com/timmy/devmeme/internal/api/handler"
	"github.com/timmy/devmeme/internal/compositor"
	"github.com/timmy/devmeme/internal/config"
	"github.com/timmy/devmeme/internal/domain"
	"github.com/timmy/devmeme/internal/logger"
	"github.com/timmy/devmeme/internal/repository"
	"github.com/timmy/devmeme/internal/service"
	"github.com/timmy/devmeme/internal/storage"
)

func main() {
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Support CONFIG_PATH environment variable for production deployments
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		appLogger.WithError(err).Fatal("Invalid config")
	}

	ctx := context.Background()

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}
	historyRepo := repository.NewHistoryRepository(db)

	healthChecks := map[string]handler.HealthCheck{
		"history": func(ctx context.Context) error {
			_, err := historyRepo.Count(ctx)
			return err
		},
	}

	// Template assets in object storage are optional
	var objects storage.ObjectStorage
	if cfg.Storage.Enabled {
		objects, err = storage.NewStorage(cfg.GetStorageConfig())
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize storage")
		}
		healthChecks["storage"] = objects.Check
		checkTemplateAssets(ctx, objects, cfg.Generation.Templates)
	}

	font, fontName, err := compositor.LoadFont(cfg.Render.FontPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load caption font")
	}
	appLogger.WithField("font", fontName).Info("Caption font loaded")

	// objects stays a nil interface when storage is disabled
	var reader compositor.ObjectReader
	if objects != nil {
		reader = objects
	}
	loader := compositor.NewLoader(&compositor.LoaderConfig{
		FetchTimeout:   cfg.Render.FetchTimeout,
		MaxImageBytes:  cfg.Render.MaxImageBytes,
		MaxImagePixels: cfg.Render.MaxImagePixels,
	}, reader)
	exporter := compositor.NewExporter(compositor.New(loader), font)

	contentService := service.NewContentService(&service.ContentConfig{
		BaseURL:    cfg.Content.BaseURL,
		TextModel:  cfg.Content.TextModel,
		ImageModel: cfg.Content.ImageModel,
		ImageSize:  cfg.Content.ImageSize,
		APIKey:     cfg.Content.APIKey,
		Timeout:    cfg.Content.Timeout,
	})

	orchestrator := service.NewOrchestrator(contentService, historyRepo, &service.OrchestratorConfig{
		TemplateDelay: cfg.Generation.TemplateDelay,
		Templates:     cfg.Generation.Templates,
	})

	router := api.SetupRouter(cfg, &api.Dependencies{
		Orchestrator: orchestrator,
		Exporter:     exporter,
		Logger:       appLogger,
		URLs: func(ref string) string {
			return storage.DisplayURL(objects, ref)
		},
		HealthChecks: healthChecks,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}

// checkTemplateAssets warns about configured templates whose objects are missing.
func checkTemplateAssets(ctx context.Context, objects storage.ObjectStorage, templates []domain.MemeTemplate) {
	for _, t := range templates {
		bucket, key, err := storage.ParseObjectURL(t.URL)
		if err != nil || bucket != objects.Bucket() {
			continue
		}
		ok, err := objects.Exists(ctx, key)
		if err != nil {
			logger.Warn("Template asset check failed: template=%s, key=%s, error=%v", t.ID, key, err)
			continue
		}
		if !ok {
			logger.Warn("Template asset missing: template=%s, key=%s", t.ID, key)
		}
	}
}
