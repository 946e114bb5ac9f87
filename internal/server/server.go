// Package server exposes the ingestion pipeline over HTTP: synchronous
// upload/ingest endpoints, email ingestion, an async enqueue variant, and
// the health and metrics routes.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geelink/docingest/internal/config"
	"github.com/geelink/docingest/internal/metrics"
	"github.com/geelink/docingest/internal/pipeline"
	"github.com/geelink/docingest/internal/queue"
	"github.com/geelink/docingest/internal/version"
)

// RunnerProvider builds a pipeline runner for a provider name. The app layer
// satisfies this.
type RunnerProvider interface {
	Runner(providerName string) (*pipeline.Runner, error)
}

// Enqueuer queues uploads for background ingestion. *queue.Client satisfies
// it, including as a typed nil when no broker is configured.
type Enqueuer interface {
	EnqueueDocument(ctx context.Context, p queue.DocumentIngestPayload) (string, error)
}

// Server is the HTTP front end. It owns no pipeline state; every request
// obtains a runner from the provider and hands back only run summaries.
type Server struct {
	cfg     *config.Config
	runners RunnerProvider
	queue   Enqueuer
	logger  *slog.Logger
	engine  *gin.Engine
}

// New builds the router. queueClient may be nil when no broker is
// configured; the async endpoint then rejects with 400.
func New(cfg *config.Config, runners RunnerProvider, queueClient Enqueuer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if queueClient == nil {
		queueClient = (*queue.Client)(nil)
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:     cfg,
		runners: runners,
		queue:   queueClient,
		logger:  logger.With("component", "server"),
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(s.logger))
	engine.Use(corsMiddleware(cfg.Server.Origins()))
	engine.Use(requestMetrics())

	engine.GET("/", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	engine.POST("/upload", s.handleUpload)
	engine.POST("/upload_async", s.handleUploadAsync)
	engine.POST("/ingest", s.handleIngest)
	engine.POST("/email/ingest_email", s.handleEmailIngest)

	s.engine = engine
	return s
}

// Handler returns the router for mounting on an http.Server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// handleHealth reports liveness plus identifying info.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"app_name": s.cfg.AppName,
		"version":  version.Get().Version,
		"status":   "ok",
	})
}
