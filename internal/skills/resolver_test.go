package skills

import (
	"testing"

	"cvmatch/internal/types"
)

func gapNames(gaps []types.SkillGapEntry) []string {
	names := make([]string, len(gaps))
	for i, g := range gaps {
		names[i] = g.Skill
	}
	return names
}

func TestIdentifySkillGaps(t *testing.T) {
	tests := []struct {
		name     string
		cv       []string
		required []string
		want     []string
	}{
		{"bidirectional containment", []string{"React", "Node.js"}, []string{"react", "python", "node"}, []string{"python"}},
		{"no required skills", []string{"Go"}, []string{}, []string{}},
		{"nil inputs", nil, nil, []string{}},
		{"empty cv keeps order", nil, []string{"SQL", "Docker", "Excel"}, []string{"SQL", "Docker", "Excel"}},
		{"cv skill contained in required", []string{"sql"}, []string{"PostgreSQL"}, []string{}},
		{"blank entries ignored", []string{"  "}, []string{"", "AWS"}, []string{"AWS"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IdentifySkillGaps(tt.cv, tt.required)
			if got == nil {
				t.Fatal("IdentifySkillGaps() returned nil, want empty slice")
			}
			names := gapNames(got)
			if len(names) != len(tt.want) {
				t.Fatalf("gaps = %v, want %v", names, tt.want)
			}
			for i := range names {
				if names[i] != tt.want[i] {
					t.Errorf("gaps[%d] = %q, want %q", i, names[i], tt.want[i])
				}
			}
		})
	}
}

func TestGapClassification(t *testing.T) {
	tests := []struct {
		skill        string
		category     string
		priority     string
		certificates int
	}{
		{"SQL", types.CategoryTechnical, "high", 2},
		{"Python", types.CategoryTechnical, "high", 0},
		{"Tableau", types.CategoryAnalytical, "medium", 0},
		{"Excel", types.CategoryAnalytical, "high", 0},
		{"Project Management", types.CategoryManagement, "high", 2},
		{"Google Analytics", types.CategoryMarketing, "high", 2},
		{"Salesforce", types.CategoryOther, "medium", 2},
		{"Kubernetes", types.CategoryOther, "medium", 0},
	}

	for _, tt := range tests {
		t.Run(tt.skill, func(t *testing.T) {
			gaps := IdentifySkillGaps(nil, []string{tt.skill})
			if len(gaps) != 1 {
				t.Fatalf("expected one gap, got %d", len(gaps))
			}
			g := gaps[0]
			if g.Category != tt.category {
				t.Errorf("Category = %q, want %q", g.Category, tt.category)
			}
			if g.Priority != tt.priority {
				t.Errorf("Priority = %q, want %q", g.Priority, tt.priority)
			}
			if len(g.CertificationSuggestions) != tt.certificates {
				t.Errorf("CertificationSuggestions = %v, want %d entries", g.CertificationSuggestions, tt.certificates)
			}
			if g.CertificationSuggestions == nil {
				t.Error("CertificationSuggestions must not be nil")
			}
		})
	}
}

func TestCertificationsReturnsCopy(t *testing.T) {
	certs := Certifications("aws")
	certs[0] = "changed"
	if Certifications("aws")[0] != "AWS Certified Solutions Architect" {
		t.Error("Certifications leaked the shared table")
	}
}

func TestSummarize(t *testing.T) {
	gaps := IdentifySkillGaps([]string{"Go"}, []string{"AWS", "Kubernetes", "Python", "Salesforce"})
	got := Summarize(gaps)
	want := types.SkillGapSummary{TotalGaps: 4, HighPriorityGaps: 2, CertificationOpportunities: 4}
	if got != want {
		t.Errorf("Summarize() = %+v, want %+v", got, want)
	}
}
