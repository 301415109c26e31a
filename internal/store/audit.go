package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cvmatch/internal/types"
)

// Audit actions
const (
	ActionCVAnalyzed  = "CV_ANALYZED"
	ActionCVOptimized = "CV_OPTIMIZED"
)

// Event is one audit log entry
type Event struct {
	ID        uuid.UUID      `json:"id"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details"`
	CreatedAt time.Time      `json:"createdAt"`
}

// AuditLog records completed operations
type AuditLog interface {
	Record(ctx context.Context, event Event) error
}

// AnalysisEvent describes a finished compatibility analysis
func AnalysisEvent(analysis *types.CompatibilityAnalysis, at time.Time) Event {
	return Event{
		ID:     uuid.New(),
		Action: ActionCVAnalyzed,
		Details: map[string]any{
			"compatibilityScore": analysis.CompatibilityScore,
			"atsScore":           analysis.ATSScore,
			"keywordGaps":        len(analysis.KeywordGaps),
			"degraded":           analysis.Degraded(),
		},
		CreatedAt: at,
	}
}

// OptimizationEvent describes a finished CV rewrite
func OptimizationEvent(result *types.OptimizationResult, originalATSScore int, at time.Time) Event {
	return Event{
		ID:     uuid.New(),
		Action: ActionCVOptimized,
		Details: map[string]any{
			"originalAtsScore": originalATSScore,
			"newAtsScore":      result.ATSScore,
			"improvement":      result.ATSScore - originalATSScore,
			"degraded":         result.Degraded(),
		},
		CreatedAt: at,
	}
}

// Record inserts an audit event
func (s *PostgresStore) Record(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	details, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal audit details: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO audit_logs (id, action, details, created_at) VALUES ($1, $2, $3, $4)`,
		event.ID, event.Action, details, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record audit event %s: %w", event.Action, err)
	}
	return nil
}
