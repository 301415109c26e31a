package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cvmatch/internal/config"
	"cvmatch/internal/errors"
	"cvmatch/internal/parser"
	"cvmatch/internal/scoring"
	"cvmatch/internal/types"
)

// OperationSettings are the per-call model parameters of one operation
type OperationSettings struct {
	HasCredential bool
	Temperature   float32
	MaxTokens     int32
}

// ServiceOptions wires an AnalysisService. Provider is required.
type ServiceOptions struct {
	Provider Provider
	Analyze  OperationSettings
	Optimize OperationSettings
	Quota    *DailyQuota
	Clock    Clock
	Prompts  *PromptResolver
	Logger   *errors.Logger
	Metrics  Recorder
}

// AnalysisService runs the compatibility analysis and CV optimization pipeline.
// It keeps no per-call state apart from the daily quota and never retries.
type AnalysisService struct {
	provider Provider
	analyze  OperationSettings
	optimize OperationSettings
	quota    *DailyQuota
	clock    Clock
	prompts  *PromptResolver
	logger   *errors.Logger
	metrics  Recorder
}

// NewAnalysisService creates a service from explicit collaborators
func NewAnalysisService(opts ServiceOptions) *AnalysisService {
	s := &AnalysisService{
		provider: opts.Provider,
		analyze:  opts.Analyze,
		optimize: opts.Optimize,
		quota:    opts.Quota,
		clock:    opts.Clock,
		prompts:  opts.Prompts,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
	if s.clock == nil {
		s.clock = SystemClock{}
	}
	if s.quota == nil {
		s.quota = NewDailyQuota(100, s.clock)
	}
	if s.logger == nil {
		s.logger = errors.Discard()
	}
	return s
}

// NewAnalysisServiceFromConfig builds the configured provider and a service around it
func NewAnalysisServiceFromConfig(ctx context.Context, cfg *config.Config, logger *errors.Logger, metrics Recorder) (*AnalysisService, error) {
	analyzeCfg := cfg.GetAnalyzeConfig()
	optimizeCfg := cfg.GetOptimizeConfig()

	logger.Debug("Initializing analysis service",
		"provider", analyzeCfg.Provider,
		"analyze_model", analyzeCfg.Model,
		"optimize_model", optimizeCfg.Model,
		"daily_limit", cfg.Quota.DailyLimit)

	var provider Provider
	switch analyzeCfg.Provider {
	case "gemini":
		p, err := NewGeminiProvider(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		provider = p
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", analyzeCfg.Provider), nil)
	}

	clock := SystemClock{}
	return NewAnalysisService(ServiceOptions{
		Provider: provider,
		Analyze:  settingsFrom(analyzeCfg),
		Optimize: settingsFrom(optimizeCfg),
		Quota:    NewDailyQuota(cfg.Quota.DailyLimit, clock),
		Clock:    clock,
		Prompts:  NewPromptResolver(cfg),
		Logger:   logger,
		Metrics:  metrics,
	}), nil
}

func settingsFrom(c config.OperationAIConfig) OperationSettings {
	return OperationSettings{
		HasCredential: c.APIKey != "",
		Temperature:   *c.Temperature,
		MaxTokens:     *c.MaxTokens,
	}
}

// Analyze runs the compatibility analysis. The returned atsScore is always
// computed locally from the keyword gaps, never taken from the model.
func (s *AnalysisService) Analyze(ctx context.Context, cvText, jobDescription string) (*types.CompatibilityAnalysis, error) {
	const op = config.OperationAnalyze

	if err := s.preflight(op, s.analyze, &types.AnalysisRequest{CVText: cvText, JobDescription: jobDescription}); err != nil {
		return nil, err
	}

	raw, err := s.complete(ctx, op, s.analyze, s.prompts.System(op), s.prompts.CompatibilityPrompt(cvText, jobDescription))
	if err != nil {
		return nil, err
	}

	analysis := parser.ParseCompatibilityResponse(raw)
	if analysis.Degraded() {
		s.logger.Warn("Compatibility response could not be parsed, returning fallback", "response_length", len(raw))
		s.recordDegradation(ctx, op)
		return &analysis, nil
	}
	s.logShapeIssues(op, parser.CheckCompatibilityShape(raw))

	analysis.ATSScore = scoring.CalculateATSScore(cvText, analysis.KeywordGaps)
	s.recordScore(ctx, op, analysis.ATSScore)
	return &analysis, nil
}

// Optimize rewrites the CV for the job. analysis is optional; when present it
// is embedded in the prompt and its keyword gaps drive the recomputed atsScore.
func (s *AnalysisService) Optimize(ctx context.Context, cvText, jobDescription string, analysis *types.CompatibilityAnalysis) (*types.OptimizationResult, error) {
	const op = config.OperationOptimize

	req := &types.OptimizationRequest{CVText: cvText, JobDescription: jobDescription, AnalysisData: analysis}
	if err := s.preflight(op, s.optimize, req); err != nil {
		return nil, err
	}

	raw, err := s.complete(ctx, op, s.optimize, s.prompts.System(op), s.prompts.OptimizationPrompt(cvText, jobDescription, analysis))
	if err != nil {
		return nil, err
	}

	result := parser.ParseOptimizationResponse(raw)
	if result.Degraded() {
		s.logger.Warn("Optimization response could not be parsed, returning raw output", "response_length", len(raw))
		s.recordDegradation(ctx, op)
		return &result, nil
	}
	s.logShapeIssues(op, parser.CheckOptimizationShape(raw))

	var keywords []string
	if analysis != nil {
		keywords = analysis.KeywordGaps
	}
	result.ATSScore = scoring.CalculateATSScore(result.OptimizedCV, keywords)
	s.recordScore(ctx, op, result.ATSScore)
	return &result, nil
}

// QuotaStatus returns the daily quota counters
func (s *AnalysisService) QuotaStatus() QuotaSnapshot {
	return s.quota.Snapshot()
}

// Provider exposes the underlying provider for health checks
func (s *AnalysisService) Provider() Provider {
	return s.provider
}

// Now returns the service clock's time, used to timestamp results
func (s *AnalysisService) Now() time.Time {
	return s.clock.Now()
}

// Close releases the provider
func (s *AnalysisService) Close() error {
	if s.provider == nil {
		return nil
	}
	return s.provider.Close()
}

type validatable interface {
	Validate() error
}

// preflight checks credentials first, then input
func (s *AnalysisService) preflight(operation string, settings OperationSettings, req validatable) error {
	if !settings.HasCredential || s.provider == nil {
		return errors.NewConfigError(errors.ErrCodeMissingAPIKey,
			"AI service is not configured. Please add an AI provider API key.", nil).
			WithContext("operation", operation)
	}
	if err := req.Validate(); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			strings.Join(types.FieldErrors(err), "; "), err)
	}
	return nil
}

// complete reserves quota, calls the provider and settles the reservation
func (s *AnalysisService) complete(ctx context.Context, operation string, settings OperationSettings, system, user string) (string, error) {
	reservation, err := s.quota.Reserve()
	if err != nil {
		s.logger.Warn("Daily model call limit reached", "operation", operation)
		if s.metrics != nil {
			s.metrics.RecordQuotaRejection(ctx, operation)
		}
		return "", err
	}

	start := time.Now()
	completion, err := s.provider.Complete(ctx, CompletionRequest{
		Operation:   operation,
		System:      system,
		User:        user,
		Temperature: &settings.Temperature,
		MaxTokens:   settings.MaxTokens,
	})
	if s.metrics != nil {
		s.metrics.RecordOperation(ctx, operation, time.Since(start), err)
	}
	if err != nil {
		reservation.Release()
		return "", err
	}
	reservation.Commit()

	if s.metrics != nil && completion.Usage != nil {
		s.metrics.RecordTokenUsage(ctx, operation, completion.Usage)
	}
	s.logger.Debug("Model call completed",
		"operation", operation,
		"duration", time.Since(start),
		"response_length", len(completion.Text))
	return completion.Text, nil
}

func (s *AnalysisService) logShapeIssues(operation string, issues []parser.FieldIssue) {
	if len(issues) == 0 {
		return
	}
	messages := make([]string, 0, len(issues))
	for _, issue := range issues {
		messages = append(messages, issue.String())
	}
	s.logger.Warn("Model response deviates from the expected shape",
		"operation", operation,
		"issues", messages)
}

func (s *AnalysisService) recordDegradation(ctx context.Context, operation string) {
	if s.metrics != nil {
		s.metrics.RecordDegradation(ctx, operation)
	}
}

func (s *AnalysisService) recordScore(ctx context.Context, operation string, score int) {
	if s.metrics != nil {
		s.metrics.RecordScore(ctx, operation, score)
	}
}
