// Package server exposes the analysis service over HTTP.
package server

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"cvmatch/internal/ai"
	"cvmatch/internal/config"
	"cvmatch/internal/errors"
	"cvmatch/internal/observability"
	"cvmatch/internal/store"
)

// Options wires a Server. Service is required; Skills and Audit are nil
// when no database is configured.
type Options struct {
	Config        *config.Config
	Version       string
	Service       *ai.AnalysisService
	Skills        store.SkillLookup
	Audit         store.AuditLog
	Observability *observability.Manager
	Logger        *errors.Logger
}

// Server holds the HTTP configuration and collaborators
type Server struct {
	Host    string
	Port    string
	Version string

	AppConfig *config.Config

	// API Authentication
	APIKeys map[string]bool
	tokens  *TokenValidator

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	MaxRequestSize int64

	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	service *ai.AnalysisService
	skills  store.SkillLookup
	audit   store.AuditLog
	om      *observability.Manager
	tracer  trace.Tracer
	watcher *config.PromptWatcher

	Logger *errors.Logger
}

// NewServer creates a Server from the server section of opts.Config
func NewServer(opts Options) *Server {
	cfg := opts.Config.Server
	logger := opts.Logger
	if logger == nil {
		logger = errors.Discard()
	}

	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	rateLimit := cfg.AnalysisRateLimit
	var rateLimiter *RateLimiter
	if rateLimit.Enabled {
		rateLimiter = NewRateLimiter(rateLimit.RequestsPerMin, rateLimit.BurstCapacity, logger)
	}

	var tokens *TokenValidator
	if cfg.JWTSecret != "" {
		tokens = NewTokenValidator(cfg.JWTSecret)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        opts.Version,
		AppConfig:      opts.Config,
		APIKeys:        apiKeyMap,
		tokens:         tokens,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      &rateLimit,
		RateLimiter:    rateLimiter,
		service:        opts.Service,
		skills:         opts.Skills,
		audit:          opts.Audit,
		om:             opts.Observability,
		tracer:         opts.Observability.Tracer("cvmatch.api"),
		Logger:         logger,
	}
}

// authEnabled reports whether requests must authenticate
func (s *Server) authEnabled() bool {
	return len(s.APIKeys) > 0 || s.tokens != nil
}
