package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"
)

func TestIsType(t *testing.T) {
	tests := []struct {
		name string
		err  error
		typ  ErrorType
		want bool
	}{
		{"direct match", NewRateLimitError(ErrCodeDailyLimitExceeded, "limit", nil), ErrorTypeRateLimit, true},
		{"wrapped match", fmt.Errorf("call: %w", NewUpstreamError(ErrCodeUpstreamFailed, "boom", nil)), ErrorTypeUpstream, true},
		{"other type", NewConfigError(ErrCodeMissingAPIKey, "no key", nil), ErrorTypeValidation, false},
		{"plain error", fmt.Errorf("plain"), ErrorTypeInternal, false},
		{"nil", nil, ErrorTypeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsType(tt.err, tt.typ); got != tt.want {
				t.Errorf("IsType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsUpstream(t *testing.T) {
	for _, err := range []error{
		NewUpstreamError("X", "x", nil),
		NewUpstreamAuthError("X", "x", nil),
		NewUpstreamRateLimitError("X", "x", nil),
	} {
		if !IsUpstream(err) {
			t.Errorf("IsUpstream(%v) = false", err)
		}
	}
	if IsUpstream(NewRateLimitError("X", "x", nil)) {
		t.Error("local quota error must not count as upstream")
	}
}

func TestAppErrorMessage(t *testing.T) {
	cause := fmt.Errorf("dial tcp: refused")
	err := NewUpstreamError(ErrCodeUpstreamFailed, "model call failed", cause)

	want := "UPSTREAM_FAILED: model call failed (caused by: dial tcp: refused)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap() should return the cause")
	}
}

func TestLogErrorIncludesContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, slog.LevelDebug)

	err := NewValidationError(ErrCodeInvalidRequest, "cvText is required", nil).WithContext("field", "cvText")
	logger.LogError(err, "request rejected", "request_id", "abc")

	var entry map[string]any
	if jsonErr := json.Unmarshal(buf.Bytes(), &entry); jsonErr != nil {
		t.Fatalf("log output is not JSON: %v", jsonErr)
	}
	if entry["error_type"] != string(ErrorTypeValidation) {
		t.Errorf("error_type = %v", entry["error_type"])
	}
	if entry["field"] != "cvText" || entry["request_id"] != "abc" {
		t.Errorf("missing context attributes: %v", entry)
	}
}

func TestParseLevel(t *testing.T) {
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
	if lvl, err := ParseLevel("warn"); err != nil || lvl != slog.LevelWarn {
		t.Errorf("ParseLevel(warn) = %v, %v", lvl, err)
	}
}
