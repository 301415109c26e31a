package types

import (
	"testing"
)

func TestAnalysisRequestValidate(t *testing.T) {
	tests := []struct {
		name       string
		req        AnalysisRequest
		wantErr    bool
		wantFields []string
	}{
		{
			name: "valid request",
			req:  AnalysisRequest{CVText: "Jane Doe, engineer", JobDescription: "Backend engineer"},
		},
		{
			name:       "missing cv",
			req:        AnalysisRequest{JobDescription: "Backend engineer"},
			wantErr:    true,
			wantFields: []string{"cvText is required"},
		},
		{
			name:       "whitespace only",
			req:        AnalysisRequest{CVText: "   \n\t", JobDescription: "  "},
			wantErr:    true,
			wantFields: []string{"cvText is required", "jobDescription is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			got := FieldErrors(err)
			if len(got) != len(tt.wantFields) {
				t.Fatalf("FieldErrors() = %v, want %v", got, tt.wantFields)
			}
			for i := range got {
				if got[i] != tt.wantFields[i] {
					t.Errorf("FieldErrors()[%d] = %q, want %q", i, got[i], tt.wantFields[i])
				}
			}
		})
	}
}

func TestOptimizationRequestAnalysisOptional(t *testing.T) {
	req := OptimizationRequest{CVText: "cv", JobDescription: "job"}
	if err := req.Validate(); err != nil {
		t.Errorf("analysisData should be optional, got %v", err)
	}
}

func TestDegraded(t *testing.T) {
	a := CompatibilityAnalysis{}
	if a.Degraded() {
		t.Error("zero analysis should not be degraded")
	}
	a.Error = ParseErrorMarker
	if !a.Degraded() {
		t.Error("analysis with error marker should be degraded")
	}
}
