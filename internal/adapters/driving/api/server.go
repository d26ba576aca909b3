package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/sheetrag/internal/logger"
)

// DefaultMaxUploadMB bounds upload request bodies when Config leaves it unset.
const DefaultMaxUploadMB = 32

// Config holds HTTP server options.
type Config struct {
	// MaxUploadMB is the largest accepted upload.
	MaxUploadMB int
}

// Server serves the HTTP API.
type Server struct {
	ports  *Ports
	engine *gin.Engine
	cfg    Config
}

// NewServer builds the router over ports.
func NewServer(ports *Ports, cfg Config) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = DefaultMaxUploadMB
	}

	if !logger.IsVerbose() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())
	engine.MaxMultipartMemory = int64(cfg.MaxUploadMB) << 20

	s := &Server{ports: ports, engine: engine, cfg: cfg}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.health)

	uploads := s.engine.Group("/uploads")
	uploads.POST("", s.limitBody(), s.upload)
	uploads.DELETE("/:id", s.deleteUpload)
	uploads.GET("/:id/search", s.search)

	s.engine.POST("/summaries", s.limitBody(), s.summarize)

	sessions := s.engine.Group("/sessions")
	sessions.POST("/:id/ask", s.ask)
	sessions.GET("/:id/history", s.history)
	sessions.DELETE("/:id/history", s.resetHistory)
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("HTTP API listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// limitBody caps the request body at the configured upload size.
func (s *Server) limitBody() gin.HandlerFunc {
	limit := int64(s.cfg.MaxUploadMB) << 20
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// requestLogger logs each request at debug level.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.With(
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		).Debugw("request", "duration", time.Since(start))
	}
}
