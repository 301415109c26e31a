package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"cvmatch/internal/config"
)

// PromptReloadDebounce is how long prompt file events settle before a reload
const PromptReloadDebounce = time.Second

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", net.JoinHostPort(s.Host, s.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on %s:%s: %w", s.Host, s.Port, err)
	}
	return s.Serve(ctx, listener)
}

// Serve runs the server on listener until ctx is cancelled
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.startPromptWatcher()
	if err := s.om.RegisterQuotaGauge(s.service.QuotaStatus); err != nil {
		s.Logger.LogError(err, "Failed to register quota gauge")
	}

	httpServer := &http.Server{
		Handler:      s.Routes(),
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	s.logServerInfo(listener.Addr().String())

	serverErrors := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err := <-serverErrors:
		s.cleanup()
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.Logger.Info("Shutdown requested, draining connections")
		return s.shutdown(httpServer)
	}
}

func (s *Server) shutdown(httpServer *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.cleanup()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return httpServer.Close()
	}
	s.Logger.Info("Server shutdown completed successfully")
	return nil
}

func (s *Server) cleanup() {
	if s.watcher != nil {
		if err := s.watcher.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop prompt watcher")
		}
	}
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
	}
}

// startPromptWatcher hot-reloads prompt files while the server runs
func (s *Server) startPromptWatcher() {
	store := s.AppConfig.Prompts()
	if len(store.Files()) == 0 {
		return
	}
	s.watcher = config.NewPromptWatcher(store, PromptReloadDebounce, nil, s.Logger)
	if err := s.watcher.Start(); err != nil {
		s.Logger.LogError(err, "Failed to start prompt watcher, prompts will not hot-reload")
		s.watcher = nil
	}
}

func (s *Server) logServerInfo(addr string) {
	quota := s.service.QuotaStatus()
	s.Logger.Info("Starting HTTP server",
		"address", addr,
		"version", s.Version,
		"auth_enabled", s.authEnabled(),
		"api_keys", len(s.APIKeys),
		"jwt_enabled", s.tokens != nil,
		"max_request_size", s.MaxRequestSize,
		"daily_limit", quota.Limit)

	if !s.authEnabled() {
		s.Logger.Warn("API authentication disabled, analysis endpoints are publicly accessible")
	}
	if s.RateLimiter != nil {
		s.Logger.Info("Analysis rate limiting enabled",
			"requests_per_min", s.RateLimit.RequestsPerMin,
			"burst", s.RateLimit.BurstCapacity,
			"by_ip", s.RateLimit.ByIP,
			"by_api_key", s.RateLimit.ByAPIKey)
	} else {
		s.Logger.Warn("Analysis rate limiting disabled")
	}
}
