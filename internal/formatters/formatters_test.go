package formatters

import (
	"encoding/json"
	"strings"
	"testing"

	"cvmatch/internal/scoring"
	"cvmatch/internal/skills"
	"cvmatch/internal/types"
)

func sampleAnalysis() types.CompatibilityAnalysis {
	return types.CompatibilityAnalysis{
		CompatibilityScore: 72,
		ATSScore:           45,
		SkillsMatching:     []string{"Python", "SQL"},
		SkillsGaps:         []string{"Docker"},
		KeywordGaps:        []string{"Kubernetes"},
		ExperienceAssessment: types.ExperienceAssessment{
			RelevantYears: 4.5,
			Alignment:     "medium",
			Gaps:          []string{"No cloud experience"},
		},
		CertificationSuggestions: []types.CertificationSuggestion{
			{Name: "CKA", Priority: "high", Reason: "Kubernetes is required"},
		},
		Recommendations: []types.Recommendation{
			{Category: "skills", Suggestion: "Learn Docker", Impact: "high"},
		},
		Summary: "Solid backend profile",
	}
}

func TestFormatAnalysis(t *testing.T) {
	registry := NewFormatterRegistry()
	analysis := sampleAnalysis()

	tests := []struct {
		format string
		want   []string
	}{
		{"text", []string{"Compatibility Score: 72/100", "ATS Score: 45/100", "  - Docker", "CKA [high]", "1. [skills, impact high] Learn Docker", "Relevant years: 4.5"}},
		{"markdown", []string{"# Compatibility Analysis", "| Compatibility | 72/100 |", "- Kubernetes", "| CKA | high | Kubernetes is required |"}},
		{"json", []string{`"compatibilityScore": 72`, `"keywordGaps": [`}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			out, err := registry.Format(&analysis, tt.format)
			if err != nil {
				t.Fatalf("Format failed: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestFormatDegradedResults(t *testing.T) {
	registry := NewFormatterRegistry()

	analysis := types.CompatibilityAnalysis{Error: types.ParseErrorMarker}
	out, err := registry.Format(analysis, "text")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Warning: "+types.ParseErrorMarker) {
		t.Errorf("degraded analysis should carry a warning:\n%s", out)
	}

	result := types.OptimizationResult{OptimizedCV: "raw model output", Error: types.ParseErrorMarker}
	out, err = registry.Format(&result, "markdown")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "raw model output") || !strings.Contains(out, "**Warning:**") {
		t.Errorf("degraded optimization should show the raw text and a warning:\n%s", out)
	}
}

func TestFormatOptimization(t *testing.T) {
	result := types.OptimizationResult{
		OptimizedCV:          "Jane Doe\nSkills: Go, Docker",
		ChangesExplanation:   []types.ChangeExplanation{{Section: "Skills", Changes: "Added Docker", Reasoning: "Listed in the job"}},
		KeywordOptimizations: []string{"Docker"},
		ATSScore:             80,
		ReadabilityScore:     75,
	}
	out, err := NewFormatterRegistry().Format(result, "text")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"=== OPTIMIZED CV ===", "Skills: Go, Docker", "ATS Score: 80/100", "1. Skills", "Reasoning: Listed in the job"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatSkillGaps(t *testing.T) {
	gaps := skills.IdentifySkillGaps([]string{"React"}, []string{"react", "AWS", "Figma"})
	report := types.SkillGapReport{SkillGaps: gaps, Summary: skills.Summarize(gaps)}

	out, err := NewFormatterRegistry().Format(report, "markdown")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "| AWS | technical | high | AWS Certified Solutions Architect, AWS Certified Developer |") {
		t.Errorf("missing AWS row:\n%s", out)
	}
	if !strings.Contains(out, "**Total gaps:** 2") {
		t.Errorf("missing summary:\n%s", out)
	}

	empty := types.SkillGapReport{SkillGaps: []types.SkillGapEntry{}}
	out, err = NewFormatterRegistry().Format(empty, "text")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No skill gaps found.") {
		t.Errorf("empty report should say so:\n%s", out)
	}
}

func TestFormatScore(t *testing.T) {
	b := scoring.Breakdown("jane@x.com Experience Skills", []string{"Go", "Rust"})
	out, err := NewFormatterRegistry().Format(&b, "text")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Missing keywords: Go, Rust") {
		t.Errorf("missing keyword list:\n%s", out)
	}
}

func TestJSONRoundTripsAnyType(t *testing.T) {
	out, err := NewFormatterRegistry().Format(map[string]int{"total": 3}, "json")
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]int
	if err := json.Unmarshal([]byte(out), &decoded); err != nil || decoded["total"] != 3 {
		t.Fatalf("unexpected json output %q: %v", out, err)
	}
}

func TestUnknownFormat(t *testing.T) {
	registry := NewFormatterRegistry()
	if _, err := registry.Format(sampleAnalysis(), "xml"); err == nil {
		t.Fatal("expected an error for an unregistered format")
	}
	if _, err := registry.Format(map[string]int{}, "text"); err == nil {
		t.Fatal("text has no generic formatter")
	}
	if got := registry.GetSupportedFormats(); strings.Join(got, ",") != "json,markdown,text" {
		t.Errorf("GetSupportedFormats() = %v", got)
	}
}
