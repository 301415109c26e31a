package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"

	"cvmatch/internal/config"
	"cvmatch/internal/errors"
)

const modelCheckTimeout = 10 * time.Second

// GeminiProvider implements Provider for Google Gemini. Each operation has
// its own model, timeout and circuit breakers.
type GeminiProvider struct {
	ops    map[string]*geminiOperation
	logger *errors.Logger
}

type geminiOperation struct {
	client           *genai.Client
	model            string
	timeout          time.Duration
	useSystemPrompts bool
	breaker          *Breaker[*genai.GenerateContentResponse]
	modelBreaker     *Breaker[*genai.Model]
}

// Ensure GeminiProvider implements Provider
var _ Provider = (*GeminiProvider)(nil)

// GeminiOption customizes client construction
type GeminiOption func(*genai.ClientConfig)

// WithHTTPOptions overrides the genai HTTP options, e.g. the base URL
func WithHTTPOptions(opts genai.HTTPOptions) GeminiOption {
	return func(c *genai.ClientConfig) { c.HTTPOptions = opts }
}

// NewGeminiProvider creates clients for every operation that has an API key.
// Operations without a key are left unconfigured and fail with a config error.
func NewGeminiProvider(ctx context.Context, cfg *config.Config, logger *errors.Logger, opts ...GeminiOption) (*GeminiProvider, error) {
	g := &GeminiProvider{
		ops:    make(map[string]*geminiOperation),
		logger: logger,
	}
	clients := make(map[string]*genai.Client)

	for _, operation := range []string{config.OperationAnalyze, config.OperationOptimize} {
		opCfg := cfg.GetOperationConfig(operation)
		if opCfg.APIKey == "" {
			logger.Warn("No API key configured for operation", "operation", operation)
			continue
		}
		if opCfg.Provider != "gemini" {
			return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
				fmt.Sprintf("Unsupported AI provider: %s", opCfg.Provider), nil)
		}

		client, ok := clients[opCfg.APIKey]
		if !ok {
			clientCfg := &genai.ClientConfig{
				APIKey:     opCfg.APIKey,
				Backend:    genai.BackendGeminiAPI,
				HTTPClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
			}
			for _, opt := range opts {
				opt(clientCfg)
			}
			var err error
			client, err = genai.NewClient(ctx, clientCfg)
			if err != nil {
				return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "Failed to create Gemini client", err)
			}
			clients[opCfg.APIKey] = client
		}

		g.ops[operation] = &geminiOperation{
			client:           client,
			model:            opCfg.Model,
			timeout:          *opCfg.Timeout,
			useSystemPrompts: *opCfg.UseSystemPrompts,
			breaker:          NewCompletionBreaker[*genai.GenerateContentResponse](operation, opCfg.CircuitBreaker, logger),
			modelBreaker:     NewModelInfoBreaker[*genai.Model](operation, opCfg.CircuitBreaker, logger),
		}
		logger.Debug("Gemini operation configured",
			"operation", operation,
			"model", opCfg.Model,
			"timeout", *opCfg.Timeout,
			"circuit_breaker", opCfg.CircuitBreaker.Enabled)
	}
	return g, nil
}

// Complete sends one prompt exchange to Gemini
func (g *GeminiProvider) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	op, ok := g.ops[req.Operation]
	if !ok {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey,
			"AI provider is not configured for "+req.Operation, nil)
	}

	tracer := otel.Tracer("cvmatch.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+req.Operation)
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", op.model),
		attribute.Int("ai.max_tokens", int(req.MaxTokens)),
		attribute.Int("input.prompt_length", len(req.User)),
	)
	if req.Temperature != nil {
		span.SetAttributes(attribute.Float64("ai.temperature", float64(*req.Temperature)))
	}

	callCtx, cancel := context.WithTimeout(ctx, op.timeout)
	defer cancel()

	genCfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		MaxOutputTokens:  req.MaxTokens,
	}
	if req.Temperature != nil {
		temperature := *req.Temperature
		genCfg.Temperature = &temperature
	}
	userPrompt := req.User
	if req.System != "" {
		if op.useSystemPrompts {
			genCfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
		} else {
			userPrompt = req.System + "\n\n" + req.User
		}
	}

	result, err := op.breaker.Execute(func() (*genai.GenerateContentResponse, error) {
		resp, err := op.client.Models.GenerateContent(callCtx, op.model, genai.Text(userPrompt), genCfg)
		if err != nil {
			return nil, classifyProviderError(callCtx, req.Operation, err)
		}
		return resp, nil
	})
	if err != nil {
		err = classifyProviderError(callCtx, req.Operation, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		span.SetAttributes(attribute.Bool("success", false))
		g.logger.LogError(err, "Gemini generation failed", "operation", req.Operation, "model", op.model)
		return nil, err
	}

	completion := &Completion{Text: result.Text(), Usage: extractTokenUsage(result)}
	if u := completion.Usage; u != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", u.InputTokens),
			attribute.Int64("ai.tokens.output", u.OutputTokens),
			attribute.Int64("ai.tokens.total", u.TotalTokens),
		)
	}
	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("output.length", len(completion.Text)),
	)
	return completion, nil
}

// GetModelInfo checks the readiness and availability of an operation's model
func (g *GeminiProvider) GetModelInfo(ctx context.Context, operation string) *ModelInfo {
	op, ok := g.ops[operation]
	if !ok {
		return &ModelInfo{Name: "", Available: false, Error: "no API key configured"}
	}
	modelInfo := &ModelInfo{Name: op.model}

	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	model, err := op.modelBreaker.Execute(func() (*genai.Model, error) {
		return op.client.Models.Get(checkCtx, op.model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"operation", operation,
			"model", op.model,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	modelInfo.DisplayName = model.DisplayName
	modelInfo.Version = model.Version
	return modelInfo
}

// CircuitBreakerStats returns breaker state per operation
func (g *GeminiProvider) CircuitBreakerStats() map[string]any {
	stats := make(map[string]any, len(g.ops)+1)
	healthy := true
	for name, op := range g.ops {
		stats[name] = map[string]any{
			"ai_operations":    op.breaker.Stats(),
			"model_operations": op.modelBreaker.Stats(),
		}
		healthy = healthy && op.breaker.IsHealthy() && op.modelBreaker.IsHealthy()
	}
	stats["overall_healthy"] = healthy
	return stats
}

// Close implements Provider. The genai client holds no resources in single-shot usage.
func (g *GeminiProvider) Close() error {
	return nil
}

// classifyProviderError maps a transport or API failure onto the upstream error types
func classifyProviderError(ctx context.Context, operation string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.As(err); ok {
		return err
	}
	if isBreakerRejection(err) {
		return errors.NewUpstreamError(errors.ErrCodeUpstreamFailed,
			"AI service temporarily unavailable", err).WithContext("operation", operation)
	}
	if stderrors.Is(err, context.Canceled) {
		return err
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.NewUpstreamError(errors.ErrCodeAITimeout,
			"AI request timed out", err).WithContext("operation", operation)
	}

	code, status := providerStatus(err)
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return errors.NewUpstreamAuthError(errors.ErrCodeUpstreamAuth,
			"AI provider rejected the configured credential", err).WithContext("status", code)
	case code == http.StatusTooManyRequests || status == "RESOURCE_EXHAUSTED":
		return errors.NewUpstreamRateLimitError(errors.ErrCodeUpstreamThrottled,
			"AI provider rate limit exceeded. Please try again later.", err).WithContext("status", code)
	default:
		appErr := errors.NewUpstreamError(errors.ErrCodeUpstreamFailed, "AI request failed", err).
			WithContext("operation", operation)
		if code != 0 {
			appErr = appErr.WithContext("status", code)
		}
		return appErr
	}
}

// providerStatus extracts the HTTP code and RPC status from genai or googleapi errors
func providerStatus(err error) (int, string) {
	var apiErr genai.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Status
	}
	var apiErrPtr *genai.APIError
	if stderrors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, apiErrPtr.Status
	}
	var gErr *googleapi.Error
	if stderrors.As(err, &gErr) {
		return gErr.Code, ""
	}
	return 0, ""
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}
	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
