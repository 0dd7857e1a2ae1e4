package api

import (
	"github.com/gin-gonic/gin"
	"github.com/timmy/devmeme/internal/api/handler"
	"github.com/timmy/devmeme/internal/api/middleware"
	"github.com/timmy/devmeme/internal/compositor"
	"github.com/timmy/devmeme/internal/config"
	"github.com/timmy/devmeme/internal/logger"
	"github.com/timmy/devmeme/internal/service"
)

// Dependencies are the services the HTTP API is built on.
type Dependencies struct {
	Orchestrator *service.Orchestrator
	Exporter     *compositor.Exporter
	Logger       *logger.Logger
	URLs         handler.URLMapper
	HealthChecks map[string]handler.HealthCheck
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(cfg *config.Config, deps *Dependencies) *gin.Engine {
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	log := deps.Logger
	if log == nil {
		log = logger.GetDefault()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(cfg.Server.CORS))

	healthHandler := handler.NewHealthHandler(deps.HealthChecks)
	sessionHandler := handler.NewSessionHandler(deps.Orchestrator, &handler.SessionHandlerConfig{
		GenerationTimeout: cfg.Server.GenerationTimeout,
		MaxUploadBytes:    cfg.Render.MaxImageBytes,
		URLs:              deps.URLs,
	})
	historyHandler := handler.NewHistoryHandler(deps.Orchestrator, deps.Exporter, deps.URLs)

	r.GET("/health", healthHandler.Health)

	v1 := r.Group("/api/v1")
	{
		// Gallery
		v1.GET("/topics", sessionHandler.Topics)
		v1.GET("/templates", sessionHandler.Templates)
		v1.POST("/templates/upload", sessionHandler.UploadTemplate)

		// Session
		v1.GET("/session", sessionHandler.GetSession)
		v1.PUT("/session/mode", sessionHandler.SetMode)
		v1.PUT("/session/template", sessionHandler.SelectTemplate)
		v1.PUT("/session/description", sessionHandler.SetDescription)
		v1.POST("/session/reset", sessionHandler.Reset)

		// Generation
		v1.POST("/generate", sessionHandler.Generate)
		v1.POST("/regenerate", sessionHandler.Regenerate)

		// History
		v1.GET("/history", historyHandler.List)
		v1.POST("/history/:id/select", historyHandler.Select)
		v1.DELETE("/history/:id", historyHandler.Delete)
		v1.GET("/history/:id/download", historyHandler.Download)

		// Export
		v1.POST("/render", historyHandler.Render)
	}

	return r
}
