package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/signdrop/internal/api/handlers"
	"github.com/signdrop/internal/api/middleware"
	"github.com/signdrop/internal/config"
	"github.com/signdrop/internal/services"
	"github.com/signdrop/pkg/metrics"
	"go.uber.org/zap"
)

type Router struct {
	engine         *gin.Engine
	logger         *zap.Logger
	metrics        *metrics.Collector
	authHandler    *handlers.AuthHandler
	docHandler     *handlers.DocumentHandler
	signHandler    *handlers.SigningHandler
	authMiddleware *middleware.AuthMiddleware
	reqMiddleware  *middleware.RequestMiddleware
}

func NewRouter(
	cfg *config.Configuration,
	logger *zap.Logger,
	collector *metrics.Collector,
	workflow *services.Workflow,
	sessions *services.SessionService,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	reqMiddleware := middleware.NewRequestMiddleware(logger)
	authMiddleware := middleware.NewAuthMiddleware(sessions)

	engine.Use(reqMiddleware.ProcessRequest())
	engine.Use(reqMiddleware.RecoverPanic())
	engine.Use(reqMiddleware.LoginAttemptMiddleware())

	return &Router{
		engine:         engine,
		logger:         logger,
		metrics:        collector,
		authHandler:    handlers.NewAuthHandler(sessions, reqMiddleware, logger),
		docHandler:     handlers.NewDocumentHandler(workflow, cfg.Storage.MaxUploadBytes, logger),
		signHandler:    handlers.NewSigningHandler(workflow, logger),
		authMiddleware: authMiddleware,
		reqMiddleware:  reqMiddleware,
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "up", "name": "signdrop"})
	})

	r.engine.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"counters":  r.metrics.Counters(),
			"latencies": r.metrics.Latencies(),
			"sizes":     r.metrics.Sizes(),
		})
	})

	r.engine.POST("/api/login", r.authHandler.Login)

	// Signer surface: the token in the path is the whole authorization.
	r.engine.GET("/api/document/:token", r.signHandler.Fetch)
	r.engine.POST("/api/sign/:token", r.signHandler.Submit)

	authorized := r.engine.Group("/api")
	authorized.Use(r.authMiddleware.RequireOperator())
	{
		authorized.POST("/logout", r.authHandler.Logout)
		authorized.POST("/upload", r.docHandler.Upload)
		authorized.GET("/documents", r.docHandler.List)
		authorized.GET("/documents/:id", r.docHandler.Details)
		authorized.DELETE("/documents/:id", r.docHandler.Delete)
		authorized.GET("/download/:id", r.docHandler.Download)
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

func (r *Router) Run(addr string) error {
	r.logger.Info("Starting HTTP server", zap.String("address", addr))
	return r.engine.Run(addr)
}
