package types

// Alignment values for ExperienceAssessment.
const (
	AlignmentHigh   = "high"
	AlignmentMedium = "medium"
	AlignmentLow    = "low"
)

// ParseErrorMarker is set in the Error field of a result recovered by the parser fallback.
const ParseErrorMarker = "Response parsing error"

// ExperienceAssessment describes how the candidate's experience lines up with the role
type ExperienceAssessment struct {
	RelevantYears float64  `json:"relevantYears"`
	Alignment     string   `json:"alignment"` // "high", "medium" or "low"
	Gaps          []string `json:"gaps"`
}

// CertificationSuggestion is a certification the model recommends pursuing
type CertificationSuggestion struct {
	Name     string `json:"name"`
	Priority string `json:"priority"`
	Reason   string `json:"reason"`
}

// Recommendation is a single improvement suggestion
type Recommendation struct {
	Category   string `json:"category"` // "skills", "experience", "format" or "content"
	Suggestion string `json:"suggestion"`
	Impact     string `json:"impact"`
}

// CompatibilityAnalysis represents the result of comparing a CV against a job description
type CompatibilityAnalysis struct {
	CompatibilityScore       int                       `json:"compatibilityScore"`
	ATSScore                 int                       `json:"atsScore"`
	SkillsMatching           []string                  `json:"skillsMatching"`
	SkillsGaps               []string                  `json:"skillsGaps"`
	KeywordGaps              []string                  `json:"keywordGaps"`
	ExperienceAssessment     ExperienceAssessment      `json:"experienceAssessment"`
	CertificationSuggestions []CertificationSuggestion `json:"certificationSuggestions"`
	Recommendations          []Recommendation          `json:"recommendations"`
	Summary                  string                    `json:"summary"`
	Error                    string                    `json:"error,omitempty"`
}

// Degraded reports whether the analysis came from the parse fallback.
func (a *CompatibilityAnalysis) Degraded() bool {
	return a.Error != ""
}

// ChangeExplanation documents one section edit made during optimization
type ChangeExplanation struct {
	Section   string `json:"section"`
	Changes   string `json:"changes"`
	Reasoning string `json:"reasoning"`
}

// OptimizationResult represents the ATS-optimized rewrite of a CV
type OptimizationResult struct {
	OptimizedCV          string              `json:"optimizedCV"`
	ChangesExplanation   []ChangeExplanation `json:"changesExplanation"`
	KeywordOptimizations []string            `json:"keywordOptimizations"`
	ATSScore             int                 `json:"atsScore"`
	ReadabilityScore     int                 `json:"readabilityScore"`
	Error                string              `json:"error,omitempty"`
}

// Degraded reports whether the optimization came from the parse fallback.
func (o *OptimizationResult) Degraded() bool {
	return o.Error != ""
}

// Skill categories
const (
	CategoryTechnical  = "technical"
	CategoryAnalytical = "analytical"
	CategoryManagement = "management"
	CategoryMarketing  = "marketing"
	CategoryOther      = "other"
)

// SkillGapEntry is a required skill missing from the CV
type SkillGapEntry struct {
	Skill                    string   `json:"skill"`
	Category                 string   `json:"category"`
	Priority                 string   `json:"priority"` // "high" or "medium"
	CertificationSuggestions []string `json:"certificationSuggestions"`
}

// SkillGapSummary aggregates a list of skill gaps
type SkillGapSummary struct {
	TotalGaps                  int `json:"totalGaps"`
	HighPriorityGaps           int `json:"highPriorityGaps"`
	CertificationOpportunities int `json:"certificationOpportunities"`
}

// SkillGapReport is the skill gap list with its summary
type SkillGapReport struct {
	SkillGaps []SkillGapEntry `json:"skillGaps"`
	Summary   SkillGapSummary `json:"summary"`
}
