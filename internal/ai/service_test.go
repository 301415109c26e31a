package ai

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"cvmatch/internal/errors"
	"cvmatch/internal/parser"
	"cvmatch/internal/types"
)

const (
	testCV  = "John Doe john@x.com 555-123-4567 Experience: ... Skills: Python, SQL"
	testJob = "Backend engineer with Docker and Kubernetes"
)

const analysisResponse = `Here is the analysis:
{
  "compatibilityScore": 72,
  "atsScore": 99,
  "skillsMatching": ["Python", "SQL"],
  "skillsGaps": ["Docker"],
  "keywordGaps": ["Docker"],
  "experienceAssessment": {"relevantYears": 3, "alignment": "Medium", "gaps": []},
  "certificationSuggestions": [],
  "recommendations": [{"category": "skills", "suggestion": "Learn Docker", "impact": "high"}],
  "summary": "Solid match"
}`

type serviceFixture struct {
	svc      *AnalysisService
	provider *stubProvider
	clock    *fakeClock
	metrics  *countingRecorder
}

func newServiceFixture(t *testing.T, text string, limit int) *serviceFixture {
	t.Helper()
	clock := newFakeClock(time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local))
	provider := &stubProvider{text: text}
	metrics := &countingRecorder{}
	svc := NewAnalysisService(ServiceOptions{
		Provider: provider,
		Analyze:  OperationSettings{HasCredential: true, Temperature: 0.3, MaxTokens: 2000},
		Optimize: OperationSettings{HasCredential: true, Temperature: 0.2, MaxTokens: 3000},
		Quota:    NewDailyQuota(limit, clock),
		Clock:    clock,
		Prompts:  NewPromptResolver(nil),
		Logger:   errors.Discard(),
		Metrics:  metrics,
	})
	return &serviceFixture{svc: svc, provider: provider, clock: clock, metrics: metrics}
}

func TestAnalyzeComputesATSScoreLocally(t *testing.T) {
	f := newServiceFixture(t, analysisResponse, 100)

	analysis, err := f.svc.Analyze(context.Background(), testCV, testJob)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if analysis.ATSScore != 45 {
		t.Errorf("expected locally computed atsScore 45, got %d", analysis.ATSScore)
	}
	if analysis.CompatibilityScore != 72 {
		t.Errorf("expected compatibilityScore 72, got %d", analysis.CompatibilityScore)
	}
	if analysis.ExperienceAssessment.Alignment != types.AlignmentMedium {
		t.Errorf("expected normalized alignment, got %q", analysis.ExperienceAssessment.Alignment)
	}

	req := f.provider.lastRequest()
	if req.Temperature == nil || *req.Temperature != 0.3 || req.MaxTokens != 2000 {
		t.Errorf("unexpected model parameters: %+v", req)
	}
	if !strings.Contains(req.User, testCV) || !strings.Contains(req.User, testJob) {
		t.Error("prompt must embed the raw inputs")
	}
	if !strings.Contains(req.System, "HR consultant") {
		t.Errorf("unexpected system prompt: %q", req.System)
	}
	if got := f.svc.QuotaStatus().RequestsToday; got != 1 {
		t.Errorf("expected 1 counted request, got %d", got)
	}
	if f.metrics.tokens != 30 || len(f.metrics.scores) != 1 {
		t.Errorf("expected token and score metrics, got %+v", f.metrics)
	}
}

func TestAnalyzeDegradedResponse(t *testing.T) {
	f := newServiceFixture(t, "I cannot produce JSON today", 100)

	analysis, err := f.svc.Analyze(context.Background(), testCV, testJob)
	if err != nil {
		t.Fatalf("degraded parse must not be an error: %v", err)
	}
	if !analysis.Degraded() || analysis.Summary != parser.CompatibilityFallbackSummary {
		t.Errorf("expected fallback analysis, got %+v", analysis)
	}
	if analysis.ATSScore != 0 {
		t.Errorf("fallback keeps atsScore 0, got %d", analysis.ATSScore)
	}
	if f.metrics.degradations != 1 {
		t.Errorf("expected one degradation metric, got %d", f.metrics.degradations)
	}
	if got := f.svc.QuotaStatus().RequestsToday; got != 1 {
		t.Errorf("a completed call counts even when parsing degrades, got %d", got)
	}
}

func TestAnalyzePreconditions(t *testing.T) {
	tests := []struct {
		name     string
		creds    bool
		cv, job  string
		wantType errors.ErrorType
	}{
		{name: "missing credential wins over empty input", creds: false, cv: "", job: "", wantType: errors.ErrorTypeConfig},
		{name: "blank cv", creds: true, cv: "   ", job: testJob, wantType: errors.ErrorTypeValidation},
		{name: "blank job", creds: true, cv: testCV, job: "\n\t", wantType: errors.ErrorTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &stubProvider{text: analysisResponse}
			svc := NewAnalysisService(ServiceOptions{
				Provider: provider,
				Analyze:  OperationSettings{HasCredential: tt.creds},
			})
			_, err := svc.Analyze(context.Background(), tt.cv, tt.job)
			if !errors.IsType(err, tt.wantType) {
				t.Fatalf("expected %s error, got %v", tt.wantType, err)
			}
			if provider.calls() != 0 {
				t.Error("provider must not be called when preconditions fail")
			}
			if svc.QuotaStatus().InFlight != 0 || svc.QuotaStatus().RequestsToday != 0 {
				t.Error("quota must be untouched")
			}
		})
	}
}

func TestAnalyzeDailyLimit(t *testing.T) {
	f := newServiceFixture(t, analysisResponse, 100)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		if _, err := f.svc.Analyze(ctx, testCV, testJob); err != nil {
			t.Fatalf("call %d failed: %v", i+1, err)
		}
	}

	_, err := f.svc.Analyze(ctx, testCV, testJob)
	if !errors.IsType(err, errors.ErrorTypeRateLimit) {
		t.Fatalf("expected rate limit error on call 101, got %v", err)
	}
	if f.provider.calls() != 100 {
		t.Errorf("provider must not be invoked past the limit, got %d calls", f.provider.calls())
	}
	if f.metrics.rejections != 1 {
		t.Errorf("expected one quota rejection metric, got %d", f.metrics.rejections)
	}

	f.clock.Advance(24 * time.Hour)
	if _, err := f.svc.Analyze(ctx, testCV, testJob); err != nil {
		t.Fatalf("expected success after day rollover, got %v", err)
	}
}

func TestUpstreamErrorsPassThroughAndRelease(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType errors.ErrorType
	}{
		{"auth", errors.NewUpstreamAuthError(errors.ErrCodeUpstreamAuth, "bad key", nil), errors.ErrorTypeUpstreamAuth},
		{"throttled", errors.NewUpstreamRateLimitError(errors.ErrCodeUpstreamThrottled, "slow down", nil), errors.ErrorTypeUpstreamRateLimit},
		{"generic", errors.NewUpstreamError(errors.ErrCodeUpstreamFailed, "boom", nil), errors.ErrorTypeUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t, "", 100)
			f.provider.err = tt.err

			_, err := f.svc.Optimize(context.Background(), testCV, testJob, nil)
			if !errors.IsType(err, tt.wantType) {
				t.Fatalf("expected %s, got %v", tt.wantType, err)
			}
			snap := f.svc.QuotaStatus()
			if snap.RequestsToday != 0 || snap.InFlight != 0 {
				t.Errorf("failed call must release its reservation, got %+v", snap)
			}
		})
	}
}

func TestCancelledCallIsNotCounted(t *testing.T) {
	f := newServiceFixture(t, "", 100)
	f.provider.block = true

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Analyze(ctx, testCV, testJob)
		done <- err
	}()

	deadline := time.After(2 * time.Second)
	for f.provider.calls() == 0 {
		select {
		case <-deadline:
			t.Fatal("provider was never called")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	if got := f.svc.QuotaStatus().InFlight; got != 1 {
		t.Errorf("expected one in-flight reservation, got %d", got)
	}
	cancel()

	if err := <-done; !stderrors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	snap := f.svc.QuotaStatus()
	if snap.RequestsToday != 0 || snap.InFlight != 0 {
		t.Errorf("cancelled call must not be counted, got %+v", snap)
	}
}

func TestOptimizeWithoutAnalysis(t *testing.T) {
	response := `{"optimizedCV": "Jane Doe jane@x.com\nExperience\n- Built Go services", "changesExplanation": [], "keywordOptimizations": ["Go"], "atsScore": 97, "readabilityScore": 80}`
	f := newServiceFixture(t, response, 100)

	result, err := f.svc.Optimize(context.Background(), testCV, testJob, nil)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	// email 10 + one section 5 + short 10 + few bullets 5
	if result.ATSScore != 30 {
		t.Errorf("expected locally computed atsScore 30, got %d", result.ATSScore)
	}
	if result.ReadabilityScore != 80 {
		t.Errorf("expected readabilityScore 80, got %d", result.ReadabilityScore)
	}

	req := f.provider.lastRequest()
	if req.Temperature == nil || *req.Temperature != 0.2 || req.MaxTokens != 3000 {
		t.Errorf("unexpected model parameters: %+v", req)
	}
	if !strings.Contains(req.User, NoPriorAnalysis) {
		t.Error("prompt must state that no prior analysis is available")
	}
	if !strings.Contains(req.User, "Do not fabricate") {
		t.Error("prompt must carry the truthfulness constraint")
	}
}

func TestOptimizeUsesAnalysisKeywordGaps(t *testing.T) {
	response := `{"optimizedCV": "Docker and Kubernetes engineer", "changesExplanation": [], "keywordOptimizations": [], "atsScore": 10, "readabilityScore": 70}`
	f := newServiceFixture(t, response, 100)
	analysis := &types.CompatibilityAnalysis{KeywordGaps: []string{"Docker", "Terraform"}}

	result, err := f.svc.Optimize(context.Background(), testCV, testJob, analysis)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	// density 0.5*40 + short 10 + few bullets 5
	if result.ATSScore != 35 {
		t.Errorf("expected atsScore 35, got %d", result.ATSScore)
	}
	if !strings.Contains(f.provider.lastRequest().User, `"Terraform"`) {
		t.Error("prompt must embed the analysis JSON")
	}
}

func TestOptimizeRawFallback(t *testing.T) {
	raw := "Here is your improved CV without any JSON"
	f := newServiceFixture(t, raw, 100)

	result, err := f.svc.Optimize(context.Background(), testCV, testJob, nil)
	if err != nil {
		t.Fatalf("degraded parse must not be an error: %v", err)
	}
	if result.OptimizedCV != raw || !result.Degraded() {
		t.Errorf("expected raw output fallback, got %+v", result)
	}
	if result.ATSScore != 0 || result.ReadabilityScore != 0 {
		t.Errorf("fallback scores must be 0, got %d/%d", result.ATSScore, result.ReadabilityScore)
	}
}
