package parser

import (
	"strings"

	"cvmatch/internal/types"
)

// ApplyCompatibilityDefaults fills every missing field of a partially decoded
// analysis. The input is not modified.
func ApplyCompatibilityDefaults(a types.CompatibilityAnalysis) types.CompatibilityAnalysis {
	a.CompatibilityScore = clampScore(a.CompatibilityScore)
	a.ATSScore = clampScore(a.ATSScore)
	a.SkillsMatching = stringsOrEmpty(a.SkillsMatching)
	a.SkillsGaps = stringsOrEmpty(a.SkillsGaps)
	a.KeywordGaps = stringsOrEmpty(a.KeywordGaps)

	a.ExperienceAssessment.Gaps = stringsOrEmpty(a.ExperienceAssessment.Gaps)
	a.ExperienceAssessment.Alignment = strings.ToLower(strings.TrimSpace(a.ExperienceAssessment.Alignment))
	if a.ExperienceAssessment.Alignment == "" {
		a.ExperienceAssessment.Alignment = types.AlignmentLow
	}
	if a.ExperienceAssessment.RelevantYears < 0 {
		a.ExperienceAssessment.RelevantYears = 0
	}

	certs := make([]types.CertificationSuggestion, len(a.CertificationSuggestions))
	copy(certs, a.CertificationSuggestions)
	a.CertificationSuggestions = certs

	recs := make([]types.Recommendation, len(a.Recommendations))
	copy(recs, a.Recommendations)
	a.Recommendations = recs
	return a
}

// ApplyOptimizationDefaults fills every missing field of a partially decoded
// optimization. The input is not modified.
func ApplyOptimizationDefaults(o types.OptimizationResult) types.OptimizationResult {
	o.ATSScore = clampScore(o.ATSScore)
	o.ReadabilityScore = clampScore(o.ReadabilityScore)
	o.KeywordOptimizations = stringsOrEmpty(o.KeywordOptimizations)
	changes := make([]types.ChangeExplanation, len(o.ChangesExplanation))
	copy(changes, o.ChangesExplanation)
	o.ChangesExplanation = changes
	return o
}

func stringsOrEmpty(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func clampScore(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
