package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"webhookrelay/internal/handlers"
	"webhookrelay/internal/metrics"
)

// ServerConfig contains server configuration
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	Version        string
	CORSOrigins    []string
	MetricsPath    string // empty disables /metrics
	LogLevel       string
	Webhook        handlers.WebhookConfig
}

// Server represents the relay's HTTP server
type Server struct {
	config     ServerConfig
	router     *gin.Engine
	httpServer *http.Server
	logger     zerolog.Logger
	startTime  time.Time

	placer    handlers.OrderPlacer
	collector *metrics.Collector
}

// NewServer creates the HTTP server. collector may be nil, in which case
// no metrics are recorded or exposed.
func NewServer(config ServerConfig, placer handlers.OrderPlacer, collector *metrics.Collector, logger zerolog.Logger) (*Server, error) {
	if err := validateConfig(&config); err != nil {
		return nil, err
	}
	if placer == nil {
		return nil, fmt.Errorf("order placer required")
	}

	setConfigDefaults(&config)

	if config.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &Server{
		config:    config,
		router:    gin.New(),
		logger:    logger,
		startTime: time.Now(),
		placer:    placer,
		collector: collector,
	}

	server.setupMiddleware()
	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:           net.JoinHostPort(config.Host, fmt.Sprint(config.Port)),
		Handler:        server.Handler(),
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}

	return server, nil
}

// Router returns the gin engine
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Handler returns the root handler, wrapped in CORS when origins are configured
func (s *Server) Handler() http.Handler {
	if len(s.config.CORSOrigins) == 0 {
		return s.router
	}

	c := cors.New(cors.Options{
		AllowedOrigins: s.config.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         86400,
	})
	return c.Handler(s.router)
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start starts the server on the configured address
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(listener)
}

// Serve accepts connections on listener until Shutdown is called
func (s *Server) Serve(listener net.Listener) error {
	s.logger.Info().
		Str("addr", listener.Addr().String()).
		Str("version", s.config.Version).
		Bool("mask_upstream_5xx", s.config.Webhook.MaskUpstream5xx).
		Msg("Starting webhook relay")

	return s.httpServer.Serve(listener)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().
		Dur("uptime", time.Since(s.startTime)).
		Msg("Shutting down webhook relay")
	return s.httpServer.Shutdown(ctx)
}

// setupMiddleware configures server middleware
func (s *Server) setupMiddleware() {
	// Request ID middleware (always first)
	s.router.Use(RequestIDMiddleware())
	s.router.Use(LoggerMiddleware(s.logger))
	s.router.Use(ErrorMiddleware(s.logger))

	if s.collector != nil {
		s.router.Use(metrics.MetricsMiddleware(s.collector))
	}
}

// setupRoutes configures the relay routes
func (s *Server) setupRoutes() {
	healthHandlers := handlers.NewHealthHandlers()
	s.router.GET("/", healthHandlers.Index())
	s.router.GET("/health", healthHandlers.HealthCheck())

	if s.collector != nil && s.config.MetricsPath != "" {
		s.router.GET(s.config.MetricsPath, healthHandlers.Metrics(s.collector))
	}

	// a nil *metrics.Collector must not become a non-nil interface
	var recorder handlers.RelayRecorder
	if s.collector != nil {
		recorder = s.collector
	}

	webhook := handlers.NewWebhookHandlers(s.placer, recorder, s.logger, s.config.Webhook)
	s.router.POST("/webhook", webhook.Relay())
	s.router.POST("/webhook/", webhook.Relay())
	s.router.GET("/webhook", webhook.MethodNotAllowed())

	s.router.NoRoute(NotFoundHandler())
}

// Helper functions

func validateConfig(config *ServerConfig) error {
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("invalid port number: %d", config.Port)
	}

	if config.Version == "" {
		config.Version = "unknown"
	}

	return nil
}

func setConfigDefaults(config *ServerConfig) {
	if config.ReadTimeout == 0 {
		config.ReadTimeout = 30 * time.Second
	}

	if config.WriteTimeout == 0 {
		config.WriteTimeout = 30 * time.Second
	}

	if config.IdleTimeout == 0 {
		config.IdleTimeout = 60 * time.Second
	}

	if config.MaxHeaderBytes == 0 {
		config.MaxHeaderBytes = 1 << 20 // 1 MB
	}

	if config.Webhook.MaxBodyBytes == 0 {
		config.Webhook.MaxBodyBytes = handlers.DefaultMaxBodyBytes
	}

	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
}
