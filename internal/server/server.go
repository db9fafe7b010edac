package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rezonia/einvoice-extractor/internal/config"
	"github.com/rezonia/einvoice-extractor/internal/processor"
)

// Config holds server configuration
type Config struct {
	Address        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxBodyBytes   int64
	RateLimitEvery time.Duration
	RateLimitBurst int
	Concurrency    int
	PDFPassword    string
	Debug          bool
}

// ConfigFrom converts the runtime configuration into a server Config
func ConfigFrom(cfg *config.Config) *Config {
	return &Config{
		Address:        cfg.Address,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		RateLimitEvery: cfg.RateLimitEvery,
		RateLimitBurst: cfg.RateLimitBurst,
		Concurrency:    cfg.Concurrency,
		PDFPassword:    cfg.PDFPassword,
		Debug:          cfg.Debug,
	}
}

// Server represents the HTTP API server
type Server struct {
	config   *Config
	router   *gin.Engine
	pipeline *processor.Pipeline
	logger   *zap.Logger
	limiters sync.Map
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger for request logs and the extraction pipeline
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new API server
func NewServer(cfg *Config, opts ...Option) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config: withDefaults(cfg),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.pipeline = processor.NewPipeline(processor.WithLogger(s.logger))

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(s.requestID())
	s.router.Use(s.accessLog())

	s.setupRoutes()
	return s
}

func withDefaults(cfg *Config) *Config {
	c := *cfg
	defaults := config.DefaultConfig()
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = defaults.MaxBodyBytes
	}
	if c.RateLimitEvery <= 0 {
		c.RateLimitEvery = defaults.RateLimitEvery
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = defaults.RateLimitBurst
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaults.Concurrency
	}
	return &c
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.handleHealth)

	// API v1
	v1 := s.router.Group("/api/v1")
	v1.Use(s.rateLimit(), s.limitBody())
	{
		// Extract endpoints
		v1.POST("/extract/pdf", s.handleExtractPDF)
		v1.POST("/extract/xml", s.handleExtractXML)
		v1.POST("/extract/auto", s.handleExtractAuto)
		v1.POST("/extract/batch", s.handleExtractBatch)

		// Info endpoint
		v1.POST("/info", s.handleInfo)
	}
}

// Run starts the HTTP server and shuts it down gracefully when ctx is done
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("address", s.config.Address))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler returns the http.Handler for use with custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}
