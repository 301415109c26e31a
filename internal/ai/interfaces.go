package ai

import (
	"context"
	"time"
)

// Provider is a generative text backend. Implementations classify their
// failures into the upstream error types of the errors package.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
	GetModelInfo(ctx context.Context, operation string) *ModelInfo
	Close() error
}

// CompletionRequest is a single system+user prompt exchange.
// A nil Temperature leaves the provider default in place.
type CompletionRequest struct {
	Operation   string
	System      string
	User        string
	Temperature *float32
	MaxTokens   int32
}

// Completion is the raw model output
type Completion struct {
	Text  string
	Usage *TokenUsage
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// Clock supplies the current time for quota rollover and result timestamps
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Recorder receives per-operation measurements. Metrics may be nil.
type Recorder interface {
	RecordOperation(ctx context.Context, operation string, duration time.Duration, err error)
	RecordTokenUsage(ctx context.Context, operation string, usage *TokenUsage)
	RecordScore(ctx context.Context, operation string, score int)
	RecordDegradation(ctx context.Context, operation string)
	RecordQuotaRejection(ctx context.Context, operation string)
}
