// Package skills finds the required skills a CV is missing and ranks them.
package skills

import (
	"strings"

	"cvmatch/internal/types"
)

type categoryTable struct {
	name   string
	skills []string
}

// Lookup order matters: "sql" and "python" resolve to technical before analytical.
var categories = []categoryTable{
	{types.CategoryTechnical, []string{"javascript", "python", "java", "react", "node.js", "sql", "aws", "docker"}},
	{types.CategoryAnalytical, []string{"excel", "sql", "tableau", "python", "r", "statistics"}},
	{types.CategoryManagement, []string{"project management", "leadership", "agile", "scrum"}},
	{types.CategoryMarketing, []string{"google analytics", "sem", "social media", "content marketing"}},
}

var highPriority = map[string]bool{
	"javascript":         true,
	"python":             true,
	"react":              true,
	"node.js":            true,
	"aws":                true,
	"sql":                true,
	"project management": true,
	"google analytics":   true,
	"excel":              true,
}

var certifications = map[string][]string{
	"aws":                {"AWS Certified Solutions Architect", "AWS Certified Developer"},
	"google analytics":   {"Google Analytics Individual Qualification", "Google Ads Certification"},
	"project management": {"PMP Certification", "Scrum Master Certification"},
	"microsoft office":   {"Microsoft Office Specialist"},
	"salesforce":         {"Salesforce Administrator", "Salesforce Developer"},
	"sql":                {"Oracle Database Certification", "Microsoft SQL Server Certification"},
	"digital marketing":  {"Google Ads Certification", "HubSpot Content Marketing"},
	"data analysis":      {"Google Data Analytics Certificate", "IBM Data Science Certificate"},
}

// IdentifySkillGaps returns the entries of requiredSkills that no CV skill covers,
// in requiredSkills order. A CV skill covers a required skill when either one
// contains the other, ignoring case.
func IdentifySkillGaps(cvSkills, requiredSkills []string) []types.SkillGapEntry {
	have := make([]string, 0, len(cvSkills))
	for _, s := range cvSkills {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			have = append(have, s)
		}
	}

	gaps := make([]types.SkillGapEntry, 0)
	for _, required := range requiredSkills {
		want := strings.ToLower(strings.TrimSpace(required))
		if want == "" || covered(want, have) {
			continue
		}
		gaps = append(gaps, types.SkillGapEntry{
			Skill:                    required,
			Category:                 Category(want),
			Priority:                 Priority(want),
			CertificationSuggestions: Certifications(want),
		})
	}
	return gaps
}

func covered(want string, have []string) bool {
	for _, h := range have {
		if strings.Contains(h, want) || strings.Contains(want, h) {
			return true
		}
	}
	return false
}

// Category returns the vocabulary a skill belongs to, or "other".
func Category(skill string) string {
	skill = strings.ToLower(skill)
	for _, c := range categories {
		for _, s := range c.skills {
			if s == skill {
				return c.name
			}
		}
	}
	return types.CategoryOther
}

// Priority is "high" for in-demand skills and "medium" otherwise.
func Priority(skill string) string {
	if highPriority[strings.ToLower(skill)] {
		return "high"
	}
	return "medium"
}

// Certifications returns a copy of the certifications mapped to skill.
func Certifications(skill string) []string {
	certs := certifications[strings.ToLower(skill)]
	out := make([]string, len(certs))
	copy(out, certs)
	return out
}

// Summarize counts gaps and high priority gaps. Certification opportunities
// is the total number of suggested certifications across all gaps.
func Summarize(gaps []types.SkillGapEntry) types.SkillGapSummary {
	summary := types.SkillGapSummary{TotalGaps: len(gaps)}
	for _, g := range gaps {
		if g.Priority == "high" {
			summary.HighPriorityGaps++
		}
		summary.CertificationOpportunities += len(g.CertificationSuggestions)
	}
	return summary
}
