package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"cvmatch/internal/common"
	"cvmatch/internal/config"
	"cvmatch/internal/errors"
	"cvmatch/internal/types"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize [cv-file] [job-description-file]",
	Short: "Rewrite a CV for a job description",
	Long: `Rewrite a CV so it matches the job description better, without adding
experience the CV does not support.

Pass the JSON output of "cvmatch analyze --format json" with --analysis to
ground the rewrite in a previous analysis. Its keyword gaps are then used to
score the optimized CV.`,
	Args:    cobra.ExactArgs(2),
	PreRunE: resolveFormat(&optimizeConfig),
	RunE:    runOptimize,
}

var (
	optimizeConfig common.CommandConfig
	analysisFile   string
)

func init() {
	addOutputFlags(optimizeCmd, &optimizeConfig, true)
	optimizeCmd.Flags().StringVar(&analysisFile, "analysis", "", "JSON file with a previous compatibility analysis")
}

type optimizeInput struct {
	cvText         string
	jobDescription string
	analysis       *types.CompatibilityAnalysis
}

func runOptimize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	files := args
	if analysisFile != "" {
		files = append([]string{}, args[0], args[1], analysisFile)
	}

	service, err := newService(ctx, cfg, logger, nil)
	if err != nil {
		return fmt.Errorf("failed to create analysis service: %w", err)
	}
	defer func() { _ = service.Close() }()

	createInput := func(contents []string) (optimizeInput, error) {
		input := optimizeInput{cvText: contents[0], jobDescription: contents[1]}
		if len(contents) == 3 {
			analysis, err := decodeAnalysis(contents[2])
			if err != nil {
				return optimizeInput{}, err
			}
			input.analysis = analysis
		}
		return input, nil
	}

	logDetails := func(input optimizeInput, cc common.CommandConfig) {
		logger.Info("Starting CV optimization",
			"cv_chars", len(input.cvText),
			"job_chars", len(input.jobDescription),
			"has_analysis", input.analysis != nil,
			"output_format", cc.OutputFormat)
	}

	optimize := func(ctx context.Context, input optimizeInput) (*types.OptimizationResult, error) {
		return service.Optimize(ctx, input.cvText, input.jobDescription, input.analysis)
	}

	if err := common.RunAICommand(ctx, logger, config.OperationOptimize, optimizeConfig, files, createInput, optimize, logDetails); err != nil {
		return fmt.Errorf("failed to optimize CV: %w", err)
	}
	logger.Info("CV optimization completed successfully")
	return nil
}

// decodeAnalysis accepts a bare analysis or the analyze endpoint envelope
func decodeAnalysis(content string) (*types.CompatibilityAnalysis, error) {
	var envelope struct {
		Data struct {
			Analysis *types.CompatibilityAnalysis `json:"analysis"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(content), &envelope); err == nil && envelope.Data.Analysis != nil {
		return envelope.Data.Analysis, nil
	}

	var analysis types.CompatibilityAnalysis
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat, "analysis file is not valid JSON", err)
	}
	return &analysis, nil
}
