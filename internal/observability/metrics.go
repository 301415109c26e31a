package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"cvmatch/internal/ai"
	"cvmatch/internal/config"
	"cvmatch/internal/errors"
)

// Metrics holds the custom instruments
type Metrics struct {
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Histogram

	Scores            metric.Int64Histogram
	DegradedResponses metric.Int64Counter
	SkillGaps         metric.Int64Counter

	QuotaRejections metric.Int64Counter
	RateLimitHits   metric.Int64Counter

	meter metric.Meter
	on    config.Instruments
}

var _ ai.Recorder = (*Manager)(nil)

func newMetrics(meter metric.Meter, on config.Instruments) (*Metrics, error) {
	m := &Metrics{meter: meter, on: on}
	var err error

	if m.AIProcessingTime, err = meter.Float64Histogram("cvmatch_ai_processing_duration_seconds",
		metric.WithDescription("Time spent in model calls"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create AI processing time metric: %w", err)
	}
	if m.AIRequestCount, err = meter.Int64Counter("cvmatch_ai_requests_total",
		metric.WithDescription("Total number of model calls")); err != nil {
		return nil, fmt.Errorf("failed to create AI request count metric: %w", err)
	}
	if m.AIErrorCount, err = meter.Int64Counter("cvmatch_ai_errors_total",
		metric.WithDescription("Total number of failed model calls")); err != nil {
		return nil, fmt.Errorf("failed to create AI error count metric: %w", err)
	}
	if m.AITokenUsage, err = meter.Int64Histogram("cvmatch_ai_token_usage",
		metric.WithDescription("Token usage per model call (input, output, total)"),
		metric.WithUnit("tokens")); err != nil {
		return nil, fmt.Errorf("failed to create AI token usage metric: %w", err)
	}

	if m.Scores, err = meter.Int64Histogram("cvmatch_ats_score",
		metric.WithDescription("Locally computed ATS scores"),
		metric.WithExplicitBucketBoundaries(10, 20, 30, 40, 50, 60, 70, 80, 90, 100)); err != nil {
		return nil, fmt.Errorf("failed to create score metric: %w", err)
	}
	if m.DegradedResponses, err = meter.Int64Counter("cvmatch_degraded_responses_total",
		metric.WithDescription("Model responses replaced by the parse fallback")); err != nil {
		return nil, fmt.Errorf("failed to create degradation metric: %w", err)
	}
	if m.SkillGaps, err = meter.Int64Counter("cvmatch_skill_gaps_total",
		metric.WithDescription("Skill gaps identified")); err != nil {
		return nil, fmt.Errorf("failed to create skill gap metric: %w", err)
	}

	if m.QuotaRejections, err = meter.Int64Counter("cvmatch_quota_rejections_total",
		metric.WithDescription("Calls rejected by the daily model call limit")); err != nil {
		return nil, fmt.Errorf("failed to create quota rejection metric: %w", err)
	}
	if m.RateLimitHits, err = meter.Int64Counter("cvmatch_rate_limit_hits_total",
		metric.WithDescription("Requests rejected by the per-client rate limiter")); err != nil {
		return nil, fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}
	return m, nil
}

// RegisterQuotaGauge publishes the remaining daily model calls
func (om *Manager) RegisterQuotaGauge(snapshot func() ai.QuotaSnapshot) error {
	if !om.Enabled() || !om.metrics.on.Quota {
		return nil
	}
	_, err := om.metrics.meter.Int64ObservableGauge("cvmatch_quota_remaining",
		metric.WithDescription("Model calls left today"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			s := snapshot()
			o.Observe(int64(s.Remaining), metric.WithAttributes(attribute.Int("limit", s.Limit)))
			return nil
		}))
	return err
}

// RecordOperation implements ai.Recorder
func (om *Manager) RecordOperation(ctx context.Context, operation string, duration time.Duration, err error) {
	if !om.Enabled() || !om.metrics.on.ModelCalls {
		return
	}
	m := om.metrics
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	)
	m.AIProcessingTime.Record(ctx, duration.Seconds(), attrs)
	m.AIRequestCount.Add(ctx, 1, attrs)
	if err != nil {
		m.AIErrorCount.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("error_type", errorType(err)),
		))
	}
}

// RecordTokenUsage implements ai.Recorder
func (om *Manager) RecordTokenUsage(ctx context.Context, operation string, usage *ai.TokenUsage) {
	if usage == nil || !om.Enabled() || !om.metrics.on.TokenUsage {
		return
	}
	for _, t := range []struct {
		kind  string
		value int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
		{"total", usage.TotalTokens},
	} {
		om.metrics.AITokenUsage.Record(ctx, t.value, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("token_type", t.kind),
		))
	}
}

// RecordScore implements ai.Recorder
func (om *Manager) RecordScore(ctx context.Context, operation string, score int) {
	if !om.Enabled() || !om.metrics.on.Scores {
		return
	}
	om.metrics.Scores.Record(ctx, int64(score), metric.WithAttributes(attribute.String("operation", operation)))
}

// RecordDegradation implements ai.Recorder
func (om *Manager) RecordDegradation(ctx context.Context, operation string) {
	if !om.Enabled() || !om.metrics.on.Degradations {
		return
	}
	om.metrics.DegradedResponses.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

// RecordQuotaRejection implements ai.Recorder
func (om *Manager) RecordQuotaRejection(ctx context.Context, operation string) {
	if !om.Enabled() || !om.metrics.on.Quota {
		return
	}
	om.metrics.QuotaRejections.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

// RecordSkillGaps counts the gaps found by one resolution
func (om *Manager) RecordSkillGaps(ctx context.Context, total, highPriority int) {
	if !om.Enabled() || !om.metrics.on.SkillGaps {
		return
	}
	om.metrics.SkillGaps.Add(ctx, int64(highPriority), metric.WithAttributes(attribute.String("priority", "high")))
	om.metrics.SkillGaps.Add(ctx, int64(total-highPriority), metric.WithAttributes(attribute.String("priority", "medium")))
}

// RecordRateLimitHit counts a request rejected by the HTTP rate limiter
func (om *Manager) RecordRateLimitHit(ctx context.Context, route, keyType string) {
	if !om.Enabled() || !om.metrics.on.RateLimits {
		return
	}
	om.metrics.RateLimitHits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("route", route),
		attribute.String("key_type", keyType),
	))
}

func errorType(err error) string {
	if appErr, ok := errors.As(err); ok {
		return string(appErr.Type)
	}
	return "unknown"
}
