package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cvmatch/internal/observability"
	"cvmatch/internal/server"
	"cvmatch/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start an HTTP server exposing the analysis operations.

Available endpoints:
- POST /analysis/analyze: compatibility analysis of a CV and a job description
- POST /analysis/optimize: CV rewrite, optionally grounded in a previous analysis
- GET /analysis/skill-gaps: skill gaps from cvSkills/requiredSkills or cvId/jobId
- GET /health: model availability and circuit breaker state
- GET /stats: limiter, quota and prompt file status
- GET /metrics: Prometheus metrics when observability is enabled

The server stops gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Server.Port = port
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Server.Host = host
	}

	om, err := observability.NewManager(observability.SettingsFromConfig(cfg, Version))
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := om.Shutdown(shutdownCtx); err != nil {
			logger.LogError(err, "Failed to shut down observability")
		}
	}()

	service, err := newService(ctx, cfg, logger, om)
	if err != nil {
		return fmt.Errorf("failed to create analysis service: %w", err)
	}
	defer func() { _ = service.Close() }()

	opts := server.Options{
		Config:        cfg,
		Version:       Version,
		Service:       service,
		Observability: om,
		Logger:        logger,
	}

	if cfg.Database.Enabled() {
		db, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			return err
		}
		opts.Skills = db
		opts.Audit = db
		logger.Info("Database store connected, skill lookup and audit log enabled")
	}

	return server.NewServer(opts).Start(ctx)
}
