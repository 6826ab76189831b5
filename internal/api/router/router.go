package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/denisAlshanov/vidgrab/internal/api/handlers"
	"github.com/denisAlshanov/vidgrab/internal/api/middleware"
	"github.com/denisAlshanov/vidgrab/internal/config"
)

type Router struct {
	engine *gin.Engine
	config *config.Config
	server *http.Server
}

// NewRouter wires the HTTP surface. The presigned link endpoint is only
// registered when linkEnabled is set.
func NewRouter(cfg *config.Config, mediaHandler *handlers.MediaHandler, healthHandler *handlers.HealthHandler, infoHandler *handlers.InfoHandler, linkEnabled bool) *Router {
	// Set Gin mode
	if cfg.Server.Host == "0.0.0.0" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Add middleware
	engine.Use(gin.Recovery())
	engine.Use(middleware.CorrelationIDMiddleware())
	if cfg.CORS.Enabled {
		engine.Use(middleware.CORSMiddleware(&cfg.CORS))
	}

	engine.GET("/", infoHandler.Info)

	health := engine.Group("/")
	{
		health.GET("/health", healthHandler.Health)
		health.GET("/ready", healthHandler.Readiness)
		health.GET("/live", healthHandler.Liveness)
	}

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	engine.POST("/formats", mediaHandler.GetFormats)
	engine.POST("/download", mediaHandler.Download)
	if linkEnabled {
		engine.POST("/download/link", mediaHandler.DownloadLink)
	}

	return &Router{
		engine: engine,
		config: cfg,
	}
}

// Start blocks until the server stops. http.ErrServerClosed is returned
// after Shutdown.
func (r *Router) Start() error {
	r.server = &http.Server{
		Addr:              r.config.Server.Host + ":" + r.config.Server.Port,
		Handler:           r.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return r.server.ListenAndServe()
}

func (r *Router) Shutdown(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	return r.server.Shutdown(ctx)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
