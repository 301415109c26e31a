package cli

import (
	"context"

	"github.com/spf13/cobra"

	"cvmatch/internal/ai"
	"cvmatch/internal/common"
	"cvmatch/internal/config"
	"cvmatch/internal/errors"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = &cobra.Command{
	Use:   "cvmatch",
	Short: "Analyze and optimize CVs against job descriptions",
	Long: `cvmatch compares a CV with a job description using a generative model,
scores its ATS compatibility locally, rewrites it for the job and lists the
skills it is missing. It can also serve the same operations over HTTP.`,
	SilenceUsage: true,
}

// newService builds the analysis service the AI commands use
var newService = func(ctx context.Context, cfg *config.Config, logger *errors.Logger, metrics ai.Recorder) (*ai.AnalysisService, error) {
	return ai.NewAnalysisServiceFromConfig(ctx, cfg, logger, metrics)
}

// Execute runs the root command with cfg and logger in its context
func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	return rootCmd.ExecuteContext(ctx)
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

// addOutputFlags registers --output and --format, plus --retries for model-backed commands
func addOutputFlags(cmd *cobra.Command, cc *common.CommandConfig, withRetries bool) {
	cmd.Flags().StringVarP(&cc.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&cc.OutputFormat, "format", "", "Output format: json, text, or markdown")
	if withRetries {
		cmd.Flags().IntVar(&cc.Retries, "retries", 0, "Retry transient AI failures this many times")
	}

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return common.NewOutputHandler(nil).GetSupportedFormats(), cobra.ShellCompDirectiveNoFileComp
	})
}

// resolveFormat applies the configured default and supported formats to cc
func resolveFormat(cc *common.CommandConfig) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		format, err := common.ResolveOutputFormat(cc.OutputFormat, cfg.App.DefaultFormat, cfg.App.SupportedFormats)
		if err != nil {
			return err
		}
		cc.OutputFormat = format
		cc.MaxFileSize = cfg.App.MaxFileSize
		cc.Stdout = cmd.OutOrStdout()
		return nil
	}
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(skillGapsCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
