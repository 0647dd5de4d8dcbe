// Package server exposes the generator over HTTP: stateless endpoints for
// single calls and session-scoped endpoints that host one controller and
// result workspace per user.
package server

import (
	"context"
	"sync"
	"time"

	"tailorkit/internal/ai"
	"tailorkit/internal/app"
	"tailorkit/internal/config"
	"tailorkit/internal/errors"
	"tailorkit/internal/observability"
	"tailorkit/internal/presentation"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Backend is the generation service as seen by health checks and
// credential rotation
type Backend interface {
	GetModelInfo(ctx context.Context) *ai.ModelInfo
	GetCircuitBreakerStats() map[string]any
	HasAPIKey() bool
	UpdateAPIKey(apiKey string)
}

// Dependencies are the collaborators the handlers call. Fetcher, Backend,
// Vault and Observability may be nil.
type Dependencies struct {
	Generator     app.Generator
	Extractor     app.Extractor
	Fetcher       app.Fetcher
	Exporter      presentation.Exporter
	Backend       Backend
	Vault         config.SecretReader
	Observability *observability.ObservabilityManager
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	TLSConfig config.TLSConfig

	// API Authentication
	APIKeys map[string]bool

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limits; uploads get MaxFileSize plus multipart overhead
	MaxRequestSize int64
	MaxFileSize    int64

	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	Sessions *SessionStore

	deps Dependencies
	om   *observability.ObservabilityManager

	// background watchers started by Start
	mu            sync.Mutex
	certs         *certReloader
	certWatcher   *config.FileWatcher
	promptWatcher *config.FileWatcher
	secretWatcher *config.SecretWatcher

	Logger *errors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	MaxFileSize    int64
	SessionTTL     time.Duration
	MaxSessions    int
	RateLimit      *config.RateLimitConfig
}

// ServerConfigFrom derives a ServerConfig from the application configuration
func ServerConfigFrom(cfg *config.Config, version string) ServerConfig {
	rateLimit := cfg.Server.RateLimit
	return ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        version,
		TLSConfig:      cfg.Server.TLS,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.Server.MaxBodySize,
		MaxFileSize:    cfg.App.MaxFileSize,
		SessionTTL:     cfg.Server.SessionTTL,
		MaxSessions:    cfg.Server.MaxSessions,
		RateLimit:      &rateLimit,
	}
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, deps Dependencies, logger *errors.Logger) *Server {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	if appCfg == nil {
		appCfg = &config.Config{}
	}

	om := deps.Observability
	if om == nil {
		// a disabled manager never fails to build
		om, _ = observability.NewObservabilityManager(observability.ObservabilityConfig{}, appCfg, logger)
	}

	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstCapacity, logger)
	}

	s := &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		MaxFileSize:    cfg.MaxFileSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		deps:           deps,
		om:             om,
		Logger:         logger,
	}

	s.Sessions = NewSessionStore(cfg.SessionTTL, cfg.MaxSessions, s.newSessionParts, om, logger)
	return s
}

func (s *Server) newSessionParts() (*app.Controller, *presentation.Workspace) {
	controller := app.NewController(s.deps.Generator, s.deps.Extractor, s.deps.Fetcher, s.Logger)
	workspace := presentation.NewWorkspace(s.deps.Exporter, s.Logger)
	return controller, workspace
}

// Close releases background resources that do not depend on Start
func (s *Server) Close() {
	s.Sessions.Close()
	s.cleanupRateLimiter()
}
