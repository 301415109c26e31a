package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"cvmatch/internal/common"
	"cvmatch/internal/config"
	"cvmatch/internal/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [cv-file] [job-description-file]",
	Short: "Analyze how well a CV matches a job description",
	Long: `Analyze the compatibility between a CV and a job description.

The analysis includes:
- A compatibility score from the model
- A locally computed ATS score
- Matching skills, missing skills and missing keywords
- An experience assessment
- Certification suggestions and improvement recommendations`,
	Args:    cobra.ExactArgs(2),
	PreRunE: resolveFormat(&analyzeConfig),
	RunE:    runAnalyze,
}

var analyzeConfig common.CommandConfig

func init() {
	addOutputFlags(analyzeCmd, &analyzeConfig, true)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	service, err := newService(ctx, cfg, logger, nil)
	if err != nil {
		return fmt.Errorf("failed to create analysis service: %w", err)
	}
	defer func() { _ = service.Close() }()

	createInput := func(contents []string) (types.AnalysisRequest, error) {
		return types.AnalysisRequest{CVText: contents[0], JobDescription: contents[1]}, nil
	}

	logDetails := func(input types.AnalysisRequest, cc common.CommandConfig) {
		logger.Info("Starting compatibility analysis",
			"cv_chars", len(input.CVText),
			"job_chars", len(input.JobDescription),
			"output_format", cc.OutputFormat,
			"retries", cc.Retries)
	}

	analyze := func(ctx context.Context, input types.AnalysisRequest) (*types.CompatibilityAnalysis, error) {
		return service.Analyze(ctx, input.CVText, input.JobDescription)
	}

	if err := common.RunAICommand(ctx, logger, config.OperationAnalyze, analyzeConfig, args, createInput, analyze, logDetails); err != nil {
		return fmt.Errorf("failed to analyze CV: %w", err)
	}
	logger.Info("Compatibility analysis completed successfully")
	return nil
}
