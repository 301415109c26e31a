package ai

import (
	"context"
	"sync"
	"time"
)

// fakeClock is a settable clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// stubProvider returns canned text or an error and records every request
type stubProvider struct {
	mu       sync.Mutex
	text     string
	err      error
	block    bool
	requests []CompletionRequest
}

func (p *stubProvider) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	text, err, block := p.text, p.err, p.block
	p.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return &Completion{Text: text, Usage: &TokenUsage{InputTokens: 10, OutputTokens: 20, TotalTokens: 30}}, nil
}

func (p *stubProvider) GetModelInfo(ctx context.Context, operation string) *ModelInfo {
	return &ModelInfo{Name: "stub-" + operation, Available: true}
}

func (p *stubProvider) Close() error { return nil }

func (p *stubProvider) lastRequest() CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.requests) == 0 {
		return CompletionRequest{}
	}
	return p.requests[len(p.requests)-1]
}

func (p *stubProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// countingRecorder counts metric callbacks
type countingRecorder struct {
	mu           sync.Mutex
	operations   int
	degradations int
	rejections   int
	tokens       int64
	scores       []int
}

func (r *countingRecorder) RecordOperation(ctx context.Context, operation string, d time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.operations++
}

func (r *countingRecorder) RecordTokenUsage(ctx context.Context, operation string, usage *TokenUsage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens += usage.TotalTokens
}

func (r *countingRecorder) RecordScore(ctx context.Context, operation string, score int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scores = append(r.scores, score)
}

func (r *countingRecorder) RecordDegradation(ctx context.Context, operation string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.degradations++
}

func (r *countingRecorder) RecordQuotaRejection(ctx context.Context, operation string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejections++
}
