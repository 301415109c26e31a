package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"time"

	"cvmatch/internal/errors"
	"cvmatch/internal/types"
)

// Stable error codes of the HTTP envelope
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeDailyLimit      = "DAILY_LIMIT_EXCEEDED"
	CodeAIService       = "AI_SERVICE_ERROR"
	CodeTooManyRequests = "TOO_MANY_REQUESTS"
	CodeNotFound        = "NOT_FOUND"
	CodeNotImplemented  = "NOT_IMPLEMENTED"
	CodeInternal        = "INTERNAL_ERROR"
)

// SuccessResponse wraps every successful analysis response
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
}

// ErrorResponse is the failure envelope
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// AnalysisPayload is a compatibility analysis stamped with its completion time
type AnalysisPayload struct {
	*types.CompatibilityAnalysis
	AnalyzedAt time.Time `json:"analyzedAt"`
}

// OptimizationPayload is a CV rewrite with the before and after ATS scores
type OptimizationPayload struct {
	*types.OptimizationResult
	OptimizedAt      time.Time `json:"optimizedAt"`
	OriginalATSScore int       `json:"originalAtsScore"`
	NewATSScore      int       `json:"newAtsScore"`
	Improvement      int       `json:"improvement"`
}

// statusFor maps an error onto the HTTP status and envelope code
func statusFor(err error) (int, string, string) {
	appErr, ok := errors.As(err)
	if !ok {
		return http.StatusInternalServerError, CodeInternal, "Internal server error"
	}
	switch appErr.Type {
	case errors.ErrorTypeValidation:
		return http.StatusBadRequest, CodeValidation, appErr.Message
	case errors.ErrorTypeRateLimit:
		return http.StatusTooManyRequests, CodeDailyLimit, appErr.Message
	case errors.ErrorTypeConfig,
		errors.ErrorTypeUpstream,
		errors.ErrorTypeUpstreamAuth,
		errors.ErrorTypeUpstreamRateLimit:
		return http.StatusServiceUnavailable, CodeAIService, appErr.Message
	case errors.ErrorTypeNotFound:
		return http.StatusNotFound, CodeNotFound, appErr.Message
	default:
		return http.StatusInternalServerError, CodeInternal, "Internal server error"
	}
}

// writeError logs err and writes its envelope
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.Logger.LogError(err, "Request failed",
			"endpoint", r.URL.Path,
			"status", status,
			"request_id", requestID(r.Context()))
	} else {
		s.Logger.Info("Request rejected",
			"endpoint", r.URL.Path,
			"status", status,
			"code", code,
			"request_id", requestID(r.Context()))
	}
	writeErrorEnvelope(w, status, message, code)
}

func writeErrorEnvelope(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{Success: false, Message: message, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// parseJSONRequest decodes a JSON body into v. Failures are validation errors.
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "content-type must be application/json", err)
	}

	body, err := io.ReadAll(r.Body)
	defer func() {
		if cerr := r.Body.Close(); cerr != nil {
			log.Printf("Failed to close request body: %v", cerr)
		}
	}()
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return errors.NewValidationError(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("request body too large (limit is %d bytes)", maxBytesErr.Limit), err)
		}
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "failed to read request body", err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "request body is not valid JSON", err)
	}
	return nil
}
