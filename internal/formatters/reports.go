package formatters

import (
	"fmt"
	"strings"

	"cvmatch/internal/scoring"
	"cvmatch/internal/types"
)

// AnalysisTextFormatter renders a compatibility analysis as plain text
type AnalysisTextFormatter struct{}

func (f *AnalysisTextFormatter) Format(data any) (string, error) {
	a, ok := data.(types.CompatibilityAnalysis)
	if !ok {
		return "", fmt.Errorf("expected CompatibilityAnalysis, got %T", data)
	}

	var out strings.Builder
	out.WriteString("=== COMPATIBILITY ANALYSIS ===\n\n")
	if a.Degraded() {
		fmt.Fprintf(&out, "Warning: %s\n\n", a.Error)
	}
	fmt.Fprintf(&out, "Compatibility Score: %d/100\n", a.CompatibilityScore)
	fmt.Fprintf(&out, "ATS Score: %d/100\n\n", a.ATSScore)

	writeTextList(&out, "Matching Skills", a.SkillsMatching)
	writeTextList(&out, "Skill Gaps", a.SkillsGaps)
	writeTextList(&out, "Missing Keywords", a.KeywordGaps)

	out.WriteString("=== EXPERIENCE ===\n")
	fmt.Fprintf(&out, "Relevant years: %g\n", a.ExperienceAssessment.RelevantYears)
	fmt.Fprintf(&out, "Alignment: %s\n", a.ExperienceAssessment.Alignment)
	for _, gap := range a.ExperienceAssessment.Gaps {
		fmt.Fprintf(&out, "  - %s\n", gap)
	}
	out.WriteString("\n")

	if len(a.CertificationSuggestions) > 0 {
		out.WriteString("=== CERTIFICATIONS ===\n")
		for _, c := range a.CertificationSuggestions {
			fmt.Fprintf(&out, "  - %s [%s] %s\n", c.Name, c.Priority, c.Reason)
		}
		out.WriteString("\n")
	}
	if len(a.Recommendations) > 0 {
		out.WriteString("=== RECOMMENDATIONS ===\n")
		for i, r := range a.Recommendations {
			fmt.Fprintf(&out, "%d. [%s, impact %s] %s\n", i+1, r.Category, r.Impact, r.Suggestion)
		}
		out.WriteString("\n")
	}

	out.WriteString("=== SUMMARY ===\n")
	out.WriteString(a.Summary)
	out.WriteString("\n")
	return out.String(), nil
}

func (f *AnalysisTextFormatter) SupportedType() string { return TypeAnalysis }

// AnalysisMarkdownFormatter renders a compatibility analysis as markdown
type AnalysisMarkdownFormatter struct{}

func (f *AnalysisMarkdownFormatter) Format(data any) (string, error) {
	a, ok := data.(types.CompatibilityAnalysis)
	if !ok {
		return "", fmt.Errorf("expected CompatibilityAnalysis, got %T", data)
	}

	var out strings.Builder
	out.WriteString("# Compatibility Analysis\n\n")
	if a.Degraded() {
		fmt.Fprintf(&out, "> **Warning:** %s\n\n", a.Error)
	}
	out.WriteString("| Metric | Score |\n|---|---|\n")
	fmt.Fprintf(&out, "| Compatibility | %d/100 |\n", a.CompatibilityScore)
	fmt.Fprintf(&out, "| ATS | %d/100 |\n\n", a.ATSScore)

	writeMarkdownList(&out, "Matching Skills", a.SkillsMatching)
	writeMarkdownList(&out, "Skill Gaps", a.SkillsGaps)
	writeMarkdownList(&out, "Missing Keywords", a.KeywordGaps)

	out.WriteString("## Experience\n\n")
	fmt.Fprintf(&out, "**Relevant years:** %g  \n", a.ExperienceAssessment.RelevantYears)
	fmt.Fprintf(&out, "**Alignment:** %s\n\n", a.ExperienceAssessment.Alignment)
	for _, gap := range a.ExperienceAssessment.Gaps {
		fmt.Fprintf(&out, "- %s\n", gap)
	}
	if len(a.ExperienceAssessment.Gaps) > 0 {
		out.WriteString("\n")
	}

	if len(a.CertificationSuggestions) > 0 {
		out.WriteString("## Certifications\n\n| Certification | Priority | Reason |\n|---|---|---|\n")
		for _, c := range a.CertificationSuggestions {
			fmt.Fprintf(&out, "| %s | %s | %s |\n", c.Name, c.Priority, c.Reason)
		}
		out.WriteString("\n")
	}
	if len(a.Recommendations) > 0 {
		out.WriteString("## Recommendations\n\n")
		for i, r := range a.Recommendations {
			fmt.Fprintf(&out, "%d. **%s** (impact: %s): %s\n", i+1, r.Category, r.Impact, r.Suggestion)
		}
		out.WriteString("\n")
	}

	out.WriteString("## Summary\n\n")
	out.WriteString(a.Summary)
	out.WriteString("\n")
	return out.String(), nil
}

func (f *AnalysisMarkdownFormatter) SupportedType() string { return TypeAnalysis }

// OptimizationTextFormatter renders a CV rewrite as plain text
type OptimizationTextFormatter struct{}

func (f *OptimizationTextFormatter) Format(data any) (string, error) {
	o, ok := data.(types.OptimizationResult)
	if !ok {
		return "", fmt.Errorf("expected OptimizationResult, got %T", data)
	}

	var out strings.Builder
	out.WriteString("=== OPTIMIZED CV ===\n\n")
	if o.Degraded() {
		fmt.Fprintf(&out, "Warning: %s\n\n", o.Error)
	}
	out.WriteString(o.OptimizedCV)
	out.WriteString("\n\n")

	out.WriteString("=== SCORES ===\n")
	fmt.Fprintf(&out, "ATS Score: %d/100\n", o.ATSScore)
	fmt.Fprintf(&out, "Readability Score: %d/100\n\n", o.ReadabilityScore)

	if len(o.ChangesExplanation) > 0 {
		out.WriteString("=== CHANGES ===\n")
		for i, c := range o.ChangesExplanation {
			fmt.Fprintf(&out, "%d. %s\n   Changes: %s\n   Reasoning: %s\n", i+1, c.Section, c.Changes, c.Reasoning)
		}
		out.WriteString("\n")
	}
	writeTextList(&out, "Keyword Optimizations", o.KeywordOptimizations)
	return out.String(), nil
}

func (f *OptimizationTextFormatter) SupportedType() string { return TypeOptimization }

// OptimizationMarkdownFormatter renders a CV rewrite as markdown
type OptimizationMarkdownFormatter struct{}

func (f *OptimizationMarkdownFormatter) Format(data any) (string, error) {
	o, ok := data.(types.OptimizationResult)
	if !ok {
		return "", fmt.Errorf("expected OptimizationResult, got %T", data)
	}

	var out strings.Builder
	out.WriteString("# Optimized CV\n\n")
	if o.Degraded() {
		fmt.Fprintf(&out, "> **Warning:** %s\n\n", o.Error)
	}
	out.WriteString("```\n")
	out.WriteString(o.OptimizedCV)
	out.WriteString("\n```\n\n")

	fmt.Fprintf(&out, "**ATS Score:** %d/100  \n**Readability Score:** %d/100\n\n", o.ATSScore, o.ReadabilityScore)

	if len(o.ChangesExplanation) > 0 {
		out.WriteString("## Changes\n\n")
		for _, c := range o.ChangesExplanation {
			fmt.Fprintf(&out, "### %s\n\n%s\n\n*%s*\n\n", c.Section, c.Changes, c.Reasoning)
		}
	}
	writeMarkdownList(&out, "Keyword Optimizations", o.KeywordOptimizations)
	return out.String(), nil
}

func (f *OptimizationMarkdownFormatter) SupportedType() string { return TypeOptimization }

// SkillGapTextFormatter renders the skill gap report as plain text
type SkillGapTextFormatter struct{}

func (f *SkillGapTextFormatter) Format(data any) (string, error) {
	r, ok := data.(types.SkillGapReport)
	if !ok {
		return "", fmt.Errorf("expected SkillGapReport, got %T", data)
	}

	var out strings.Builder
	out.WriteString("=== SKILL GAPS ===\n\n")
	if len(r.SkillGaps) == 0 {
		out.WriteString("No skill gaps found.\n")
	}
	for i, g := range r.SkillGaps {
		fmt.Fprintf(&out, "%d. %s (%s, %s priority)\n", i+1, g.Skill, g.Category, g.Priority)
		for _, cert := range g.CertificationSuggestions {
			fmt.Fprintf(&out, "   - %s\n", cert)
		}
	}
	out.WriteString("\n=== SUMMARY ===\n")
	fmt.Fprintf(&out, "Total gaps: %d\n", r.Summary.TotalGaps)
	fmt.Fprintf(&out, "High priority: %d\n", r.Summary.HighPriorityGaps)
	fmt.Fprintf(&out, "Certification opportunities: %d\n", r.Summary.CertificationOpportunities)
	return out.String(), nil
}

func (f *SkillGapTextFormatter) SupportedType() string { return TypeSkillGaps }

// SkillGapMarkdownFormatter renders the skill gap report as a markdown table
type SkillGapMarkdownFormatter struct{}

func (f *SkillGapMarkdownFormatter) Format(data any) (string, error) {
	r, ok := data.(types.SkillGapReport)
	if !ok {
		return "", fmt.Errorf("expected SkillGapReport, got %T", data)
	}

	var out strings.Builder
	out.WriteString("# Skill Gaps\n\n")
	if len(r.SkillGaps) == 0 {
		out.WriteString("No skill gaps found.\n\n")
	} else {
		out.WriteString("| Skill | Category | Priority | Certifications |\n|---|---|---|---|\n")
		for _, g := range r.SkillGaps {
			fmt.Fprintf(&out, "| %s | %s | %s | %s |\n", g.Skill, g.Category, g.Priority,
				strings.Join(g.CertificationSuggestions, ", "))
		}
		out.WriteString("\n")
	}
	fmt.Fprintf(&out, "**Total gaps:** %d, **high priority:** %d, **certification opportunities:** %d\n",
		r.Summary.TotalGaps, r.Summary.HighPriorityGaps, r.Summary.CertificationOpportunities)
	return out.String(), nil
}

func (f *SkillGapMarkdownFormatter) SupportedType() string { return TypeSkillGaps }

// ScoreTextFormatter renders the ATS score breakdown as plain text
type ScoreTextFormatter struct{}

func (f *ScoreTextFormatter) Format(data any) (string, error) {
	b, ok := data.(scoring.ScoreBreakdown)
	if !ok {
		return "", fmt.Errorf("expected ScoreBreakdown, got %T", data)
	}

	var out strings.Builder
	out.WriteString("=== ATS SCORE ===\n\n")
	fmt.Fprintf(&out, "Total: %d/100\n\n", b.Total)
	fmt.Fprintf(&out, "Keywords:  %5.1f (%d of %d found)\n", b.KeywordScore, b.KeywordsFound, b.KeywordsTotal)
	fmt.Fprintf(&out, "Email:     %5.1f\n", b.EmailScore)
	fmt.Fprintf(&out, "Phone:     %5.1f\n", b.PhoneScore)
	fmt.Fprintf(&out, "Sections:  %5.1f (%s)\n", b.SectionScore, strings.Join(b.Sections, ", "))
	fmt.Fprintf(&out, "Length:    %5.1f\n", b.LengthScore)
	fmt.Fprintf(&out, "Bullets:   %5.1f (%d found)\n", b.BulletScore, b.BulletCount)
	if len(b.MissingKeywords) > 0 {
		fmt.Fprintf(&out, "\nMissing keywords: %s\n", strings.Join(b.MissingKeywords, ", "))
	}
	return out.String(), nil
}

func (f *ScoreTextFormatter) SupportedType() string { return TypeScore }

// ScoreMarkdownFormatter renders the ATS score breakdown as a markdown table
type ScoreMarkdownFormatter struct{}

func (f *ScoreMarkdownFormatter) Format(data any) (string, error) {
	b, ok := data.(scoring.ScoreBreakdown)
	if !ok {
		return "", fmt.Errorf("expected ScoreBreakdown, got %T", data)
	}

	var out strings.Builder
	fmt.Fprintf(&out, "# ATS Score: %d/100\n\n", b.Total)
	out.WriteString("| Factor | Points | Detail |\n|---|---|---|\n")
	fmt.Fprintf(&out, "| Keywords | %.1f | %d of %d found |\n", b.KeywordScore, b.KeywordsFound, b.KeywordsTotal)
	fmt.Fprintf(&out, "| Email | %.1f | |\n", b.EmailScore)
	fmt.Fprintf(&out, "| Phone | %.1f | |\n", b.PhoneScore)
	fmt.Fprintf(&out, "| Sections | %.1f | %s |\n", b.SectionScore, strings.Join(b.Sections, ", "))
	fmt.Fprintf(&out, "| Length | %.1f | |\n", b.LengthScore)
	fmt.Fprintf(&out, "| Bullets | %.1f | %d found |\n", b.BulletScore, b.BulletCount)
	writeMarkdownListTail(&out, "Missing Keywords", b.MissingKeywords)
	return out.String(), nil
}

func (f *ScoreMarkdownFormatter) SupportedType() string { return TypeScore }

func writeTextList(out *strings.Builder, title string, items []string) {
	fmt.Fprintf(out, "%s:\n", title)
	if len(items) == 0 {
		out.WriteString("  (none)\n\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(out, "  - %s\n", item)
	}
	out.WriteString("\n")
}

func writeMarkdownList(out *strings.Builder, title string, items []string) {
	fmt.Fprintf(out, "## %s\n\n", title)
	if len(items) == 0 {
		out.WriteString("None.\n\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(out, "- %s\n", item)
	}
	out.WriteString("\n")
}

func writeMarkdownListTail(out *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	out.WriteString("\n")
	writeMarkdownList(out, title, items)
}
