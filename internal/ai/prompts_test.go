package ai

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cvmatch/internal/config"
	"cvmatch/internal/parser"
	"cvmatch/internal/types"
)

func TestBuildCompatibilityPrompt(t *testing.T) {
	cv := "CV with 100% effort and {braces}"
	job := "Job needing Go"
	prompt := BuildCompatibilityPrompt(cv, job)

	for _, want := range []string{cv, job, `"compatibilityScore": number`, `"keywordGaps"`, `"alignment": "high|medium|low"`} {
		if !strings.Contains(prompt, want) {
			t.Errorf("compatibility prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "%!") {
		t.Error("prompt contains a formatting error")
	}
}

func TestBuildOptimizationPrompt(t *testing.T) {
	t.Run("without analysis", func(t *testing.T) {
		prompt := BuildOptimizationPrompt("my cv", "the job", nil)
		for _, want := range []string{"my cv", "the job", NoPriorAnalysis, "Do not fabricate", `"optimizedCV"`} {
			if !strings.Contains(prompt, want) {
				t.Errorf("optimization prompt missing %q", want)
			}
		}
	})

	t.Run("with analysis", func(t *testing.T) {
		analysis := &types.CompatibilityAnalysis{CompatibilityScore: 64, KeywordGaps: []string{"Kubernetes"}}
		prompt := BuildOptimizationPrompt("my cv", "the job", analysis)
		if !strings.Contains(prompt, `"compatibilityScore": 64`) || !strings.Contains(prompt, `"Kubernetes"`) {
			t.Error("optimization prompt must embed the analysis JSON")
		}
		if strings.Contains(prompt, NoPriorAnalysis) {
			t.Error("prompt must not claim a missing analysis")
		}
	})
}

// The example JSON in the prompts has to decode with the parser.
func TestPromptShapesMatchParser(t *testing.T) {
	compat := parser.ParseCompatibilityResponse(strings.ReplaceAll(compatibilityShape, "number", "1"))
	if compat.Degraded() {
		t.Error("compatibility shape block does not parse")
	}
	opt := parser.ParseOptimizationResponse(strings.ReplaceAll(optimizationShape, "number", "1"))
	if opt.Degraded() || opt.OptimizedCV != "full_optimized_cv_text" {
		t.Errorf("optimization shape block does not parse: %+v", opt)
	}
}

func TestPromptResolverPriority(t *testing.T) {
	dir := t.TempDir()
	systemFile := filepath.Join(dir, "system.optimize.md")
	if err := os.WriteFile(systemFile, []byte("file system prompt"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		AI: config.AIConfig{
			CustomPrompts: config.PromptConfig{
				SystemPrompts: config.PromptPair{Analyze: "inline analyze system", OptimizeFile: systemFile},
				UserPrompts:   config.PromptPair{Analyze: "Custom template. CV={{cv}} JOB={{job}}"},
			},
		},
	}
	loaded, err := config.LoadPromptStore(cfg)
	if err != nil {
		t.Fatalf("LoadPromptStore failed: %v", err)
	}

	r := &PromptResolver{store: loaded, inline: map[string]config.PromptConfig{
		config.OperationAnalyze:  cfg.GetAnalyzeConfig().CustomPrompts,
		config.OperationOptimize: cfg.GetOptimizeConfig().CustomPrompts,
	}}

	if got := r.System(config.OperationAnalyze); got != "inline analyze system" {
		t.Errorf("expected inline system prompt, got %q", got)
	}
	if got := r.System(config.OperationOptimize); got != "file system prompt" {
		t.Errorf("expected file system prompt, got %q", got)
	}
	if got := r.UserTemplate(config.OperationOptimize); got != DefaultUserPrompts.Optimize {
		t.Error("expected default optimize template")
	}

	prompt := r.CompatibilityPrompt("the cv", "the job")
	if !strings.HasPrefix(prompt, "Custom template. CV=the cv JOB=the job") {
		t.Errorf("custom template not applied: %q", prompt)
	}
	if !strings.Contains(prompt, `"compatibilityScore": number`) {
		t.Error("custom template must still get the JSON shape block")
	}
}

func TestCustomTemplateRendering(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     []string
	}{
		{
			name:     "literal percent",
			template: "Aim for a 100% match.\nCV: {{cv}}\nJob: {{job}}",
			want:     []string{"Aim for a 100% match.", "CV: the cv", "Job: the job"},
		},
		{
			name:     "missing job placeholder",
			template: "Review this CV: {{cv}}",
			want:     []string{"Review this CV: the cv", "**JOB DESCRIPTION:**\nthe job"},
		},
		{
			name:     "no placeholders",
			template: "Compare the documents below.",
			want:     []string{"Compare the documents below.", "**CV TEXT:**\nthe cv", "**JOB DESCRIPTION:**\nthe job"},
		},
		{
			name:     "printf verbs are plain text",
			template: "%s %d {{cv}} {{job}}",
			want:     []string{"%s %d the cv the job"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt := buildCompatibilityPrompt(tt.template, "the cv", "the job")
			for _, want := range tt.want {
				if !strings.Contains(prompt, want) {
					t.Errorf("prompt missing %q:\n%s", want, prompt)
				}
			}
			if strings.Contains(prompt, "%!") {
				t.Errorf("prompt contains a formatting error:\n%s", prompt)
			}
		})
	}
}

func TestOptimizationTemplateWithoutAnalysisPlaceholder(t *testing.T) {
	analysis := &types.CompatibilityAnalysis{KeywordGaps: []string{"Kubernetes"}}
	prompt := buildOptimizationPrompt("Rewrite {{cv}} for {{job}}", "my cv", "the job", analysis)
	if !strings.HasPrefix(prompt, "Rewrite my cv for the job") {
		t.Errorf("template not rendered: %q", prompt)
	}
	if !strings.Contains(prompt, "**ANALYSIS DATA:**") || !strings.Contains(prompt, `"Kubernetes"`) {
		t.Error("analysis must be appended when the template has no placeholder")
	}
}

func TestInputsContainingPlaceholders(t *testing.T) {
	cv := "My CV mentions {{job}} literally"
	prompt := BuildCompatibilityPrompt(cv, "the job")
	if !strings.Contains(prompt, cv) {
		t.Error("placeholder text inside an input must be embedded verbatim")
	}
}

func TestNilPromptResolverUsesDefaults(t *testing.T) {
	var r *PromptResolver
	if r.System(config.OperationAnalyze) != DefaultSystemPrompts.Analyze {
		t.Error("nil resolver must return the default analyze system prompt")
	}
	if r.System(config.OperationOptimize) != DefaultSystemPrompts.Optimize {
		t.Error("nil resolver must return the default optimize system prompt")
	}
	if r.OptimizationPrompt("cv", "job", nil) != BuildOptimizationPrompt("cv", "job", nil) {
		t.Error("nil resolver must build the default optimization prompt")
	}
}

func TestResolvePrompt(t *testing.T) {
	tests := []struct {
		file, inline, def, want string
	}{
		{"file", "inline", "default", "file"},
		{"", "inline", "default", "inline"},
		{"", "", "default", "default"},
	}
	for _, tt := range tests {
		if got := resolvePrompt(tt.file, tt.inline, tt.def); got != tt.want {
			t.Errorf("resolvePrompt(%q, %q, %q) = %q, want %q", tt.file, tt.inline, tt.def, got, tt.want)
		}
	}
}
