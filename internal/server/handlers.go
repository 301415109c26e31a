package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"cvmatch/internal/config"
	"cvmatch/internal/skills"
	"cvmatch/internal/store"
	"cvmatch/internal/types"
)

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "api.analyze")
	defer span.End()

	var req types.AnalysisRequest
	if err := parseJSONRequest(r, &req); err != nil {
		span.SetAttributes(attribute.String("error.type", "validation"))
		s.writeError(w, r, err)
		return
	}
	span.SetAttributes(
		attribute.Int("request.cv_length", len(req.CVText)),
		attribute.Int("request.job_length", len(req.JobDescription)),
	)

	analysis, err := s.service.Analyze(ctx, req.CVText, req.JobDescription)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "analysis failed")
		s.writeError(w, r, err)
		return
	}

	analyzedAt := s.service.Now()
	s.recordAudit(ctx, store.AnalysisEvent(analysis, analyzedAt))
	span.SetAttributes(
		attribute.Int("compatibility_score", analysis.CompatibilityScore),
		attribute.Int("ats_score", analysis.ATSScore),
		attribute.Bool("degraded", analysis.Degraded()),
	)

	writeJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Message: "CV analysis completed successfully",
		Data: map[string]any{
			"analysis": AnalysisPayload{CompatibilityAnalysis: analysis, AnalyzedAt: analyzedAt},
		},
	})
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "api.optimize")
	defer span.End()

	var req types.OptimizationRequest
	if err := parseJSONRequest(r, &req); err != nil {
		span.SetAttributes(attribute.String("error.type", "validation"))
		s.writeError(w, r, err)
		return
	}
	span.SetAttributes(
		attribute.Int("request.cv_length", len(req.CVText)),
		attribute.Int("request.job_length", len(req.JobDescription)),
		attribute.Bool("request.has_analysis", req.AnalysisData != nil),
	)

	result, err := s.service.Optimize(ctx, req.CVText, req.JobDescription, req.AnalysisData)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "optimization failed")
		s.writeError(w, r, err)
		return
	}

	original := 0
	if req.AnalysisData != nil {
		original = req.AnalysisData.ATSScore
	}
	optimizedAt := s.service.Now()
	s.recordAudit(ctx, store.OptimizationEvent(result, original, optimizedAt))
	span.SetAttributes(
		attribute.Int("ats_score.original", original),
		attribute.Int("ats_score.new", result.ATSScore),
		attribute.Bool("degraded", result.Degraded()),
	)

	writeJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Message: "CV optimization completed successfully",
		Data: map[string]any{
			"optimization": OptimizationPayload{
				OptimizationResult: result,
				OptimizedAt:        optimizedAt,
				OriginalATSScore:   original,
				NewATSScore:        result.ATSScore,
				Improvement:        result.ATSScore - original,
			},
		},
	})
}

func (s *Server) handleSkillGaps(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "api.skill_gaps")
	defer span.End()

	query := r.URL.Query()
	cvID, jobID := strings.TrimSpace(query.Get("cvId")), strings.TrimSpace(query.Get("jobId"))

	var cvSkills, requiredSkills []string
	switch {
	case cvID != "" || jobID != "":
		if cvID == "" || jobID == "" {
			writeErrorEnvelope(w, http.StatusBadRequest, "Both cvId and jobId are required", CodeValidation)
			return
		}
		if s.skills == nil {
			writeErrorEnvelope(w, http.StatusNotImplemented, "Skill lookup by id requires a configured database", CodeNotImplemented)
			return
		}
		var err error
		cvSkills, requiredSkills, err = store.ResolveSkills(ctx, s.skills, cvID, jobID)
		if err != nil {
			span.RecordError(err)
			s.writeError(w, r, err)
			return
		}
	default:
		cvSkills = splitList(query["cvSkills"])
		requiredSkills = splitList(query["requiredSkills"])
	}

	gaps := skills.IdentifySkillGaps(cvSkills, requiredSkills)
	summary := skills.Summarize(gaps)
	s.om.RecordSkillGaps(ctx, summary.TotalGaps, summary.HighPriorityGaps)
	span.SetAttributes(
		attribute.Int("skill_gaps.total", summary.TotalGaps),
		attribute.Int("skill_gaps.high_priority", summary.HighPriorityGaps),
	)

	writeJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Data:    types.SkillGapReport{SkillGaps: gaps, Summary: summary},
	})
}

// splitList accepts repeated values and comma separated values alike
func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for item := range strings.SplitSeq(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

// recordAudit writes an audit event. Failures are logged, never returned.
func (s *Server) recordAudit(ctx context.Context, event store.Event) {
	if s.audit == nil {
		return
	}
	if sub := subject(ctx); sub != "" {
		event.Details["subject"] = sub
	}
	if err := s.audit.Record(ctx, event); err != nil {
		s.Logger.LogError(err, "Failed to record audit event",
			"action", event.Action,
			"request_id", requestID(ctx))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	timeout := s.AppConfig.Observability.HealthTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	provider := s.service.Provider()
	models := make(map[string]any, 2)
	healthy := true
	for _, op := range []string{config.OperationAnalyze, config.OperationOptimize} {
		if provider == nil {
			models[op] = map[string]any{"available": false, "error": "no provider configured"}
			healthy = false
			continue
		}
		info := provider.GetModelInfo(ctx, op)
		models[op] = info
		healthy = healthy && info.Available
	}

	response := map[string]any{
		"status":    "healthy",
		"service":   "cvmatch",
		"version":   s.Version,
		"ai_models": models,
	}
	if reporter, ok := provider.(interface{ CircuitBreakerStats() map[string]any }); ok {
		response["circuit_breakers"] = reporter.CircuitBreakerStats()
	}

	status := http.StatusOK
	if !healthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "cvmatch",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"auth_enabled":           s.authEnabled(),
		},
		"quota": s.service.QuotaStatus(),
	}

	limiter := LimiterStats{}
	if s.RateLimiter != nil {
		limiter = s.RateLimiter.Stats()
		limiter.ByIP = s.RateLimit.ByIP
		limiter.ByAPIKey = s.RateLimit.ByAPIKey
	}
	response["rate_limiting"] = limiter

	prompts := map[string]any{"watching": false, "files": s.AppConfig.Prompts().Files()}
	if s.watcher != nil {
		prompts["watching"] = s.watcher.IsRunning()
		prompts["files"] = s.watcher.WatchedFiles()
	}
	response["prompts"] = prompts

	writeJSON(w, http.StatusOK, response)
}
