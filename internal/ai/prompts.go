package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"cvmatch/internal/config"
	"cvmatch/internal/types"
)

// OperationPrompts holds the system instruction and user template for one operation
type OperationPrompts struct {
	Analyze  string
	Optimize string
}

// DefaultSystemPrompts provides the default system instructions
var DefaultSystemPrompts = OperationPrompts{
	Analyze: `You are an expert HR consultant and career counselor specializing in CV optimization and job matching.

You provide detailed, actionable feedback that helps candidates improve their job application success rate:
- Compare the CV against the job requirements skill by skill
- Assess relevant experience honestly, including gaps
- Recommend certifications and improvements with a clear priority`,

	Optimize: `You are an expert ATS optimization specialist and professional resume writer.

Your goal is to rewrite CVs to maximize ATS compatibility while keeping them readable and professional.
Focus on keyword optimization, quantified achievements and industry-specific terminology.
You never invent experience, skills or credentials that the original CV does not support.`,
}

// Placeholders substituted into user prompt templates
const (
	PlaceholderCV       = "{{cv}}"
	PlaceholderJob      = "{{job}}"
	PlaceholderAnalysis = "{{analysis}}"
)

// DefaultUserPrompts provides the default user prompt templates.
// Analyze uses {{cv}} and {{job}}; Optimize also uses {{analysis}}.
var DefaultUserPrompts = OperationPrompts{
	Analyze: `Please analyze the compatibility between this CV and job description and provide a comprehensive assessment.

**CV TEXT:**
{{cv}}

**JOB DESCRIPTION:**
{{job}}

**ANALYSIS REQUIRED:**

1. **COMPATIBILITY SCORE (0-100)**: overall match with detailed reasoning
2. **SKILL ANALYSIS**: skills in the CV that match the requirements, and critical skills that are missing
3. **EXPERIENCE ALIGNMENT**: relevant experience, gaps or misalignments, and years of relevant experience
4. **KEYWORD ANALYSIS**: important keywords from the job description that the CV does not contain
5. **CERTIFICATION SUGGESTIONS**: certifications named in the job description or common for the role, each with a priority
6. **IMPROVEMENT RECOMMENDATIONS**: areas to strengthen, restructuring suggestions and achievements to quantify`,

	Optimize: `Based on the compatibility analysis, please optimize this CV to better match the job requirements while keeping it ATS compatible and professionally readable.

**ORIGINAL CV:**
{{cv}}

**TARGET JOB:**
{{job}}

**ANALYSIS DATA:**
{{analysis}}

**OPTIMIZATION REQUIREMENTS:**

1. **ATS OPTIMIZATION**: work missing keywords naturally into the CV
2. **SKILL EMPHASIS**: emphasize the relevant skills the candidate actually has
3. **ACHIEVEMENT QUANTIFICATION**: add metrics where the original supports them
4. **PROFESSIONAL FORMATTING**: keep a clean, scannable structure
5. **KEYWORD DENSITY**: optimize for ATS without keyword stuffing

**GUIDELINES:**
- Keep the same general structure and length
- Use action verbs and natural language
- Optimize for both ATS and human readers`,
}

// NoPriorAnalysis stands in for the analysis JSON when none was supplied
const NoPriorAnalysis = "No prior analysis available. Infer the gaps from the CV and job description."

const truthfulnessConstraint = `**TRUTHFULNESS:** Maintain truthfulness. Do not fabricate experience, skills, employers, dates or credentials. Every statement in the optimized CV must be supported by the original CV.`

const compatibilityShape = `**RESPONSE FORMAT:** Respond with valid JSON exactly in the following shape and nothing else:
{
  "compatibilityScore": number,
  "skillsMatching": ["skill1", "skill2"],
  "skillsGaps": ["missing_skill1", "missing_skill2"],
  "keywordGaps": ["keyword1", "keyword2"],
  "experienceAssessment": {
    "relevantYears": number,
    "alignment": "high|medium|low",
    "gaps": ["gap1", "gap2"]
  },
  "certificationSuggestions": [
    {
      "name": "certification_name",
      "priority": "high|medium|low",
      "reason": "explanation"
    }
  ],
  "recommendations": [
    {
      "category": "skills|experience|format|content",
      "suggestion": "specific_recommendation",
      "impact": "high|medium|low"
    }
  ],
  "summary": "Overall assessment summary"
}`

const optimizationShape = `**RESPONSE FORMAT:** Respond with valid JSON exactly in the following shape and nothing else:
{
  "optimizedCV": "full_optimized_cv_text",
  "changesExplanation": [
    {
      "section": "section_name",
      "changes": "description_of_changes",
      "reasoning": "why_these_changes_help"
    }
  ],
  "keywordOptimizations": ["keyword1", "keyword2"],
  "atsScore": number,
  "readabilityScore": number
}`

// BuildCompatibilityPrompt builds the analysis prompt from the default template
func BuildCompatibilityPrompt(cvText, jobDescription string) string {
	return buildCompatibilityPrompt(DefaultUserPrompts.Analyze, cvText, jobDescription)
}

// BuildOptimizationPrompt builds the rewrite prompt from the default template.
// analysis may be nil.
func BuildOptimizationPrompt(cvText, jobDescription string, analysis *types.CompatibilityAnalysis) string {
	return buildOptimizationPrompt(DefaultUserPrompts.Optimize, cvText, jobDescription, analysis)
}

func buildCompatibilityPrompt(template, cvText, jobDescription string) string {
	return joinSections(renderTemplate(template, []templateField{
		{PlaceholderCV, "CV TEXT", cvText},
		{PlaceholderJob, "JOB DESCRIPTION", jobDescription},
	}), compatibilityShape)
}

func buildOptimizationPrompt(template, cvText, jobDescription string, analysis *types.CompatibilityAnalysis) string {
	return joinSections(
		renderTemplate(template, []templateField{
			{PlaceholderCV, "ORIGINAL CV", cvText},
			{PlaceholderJob, "TARGET JOB", jobDescription},
			{PlaceholderAnalysis, "ANALYSIS DATA", analysisContext(analysis)},
		}),
		truthfulnessConstraint,
		optimizationShape,
	)
}

type templateField struct {
	placeholder string
	heading     string
	value       string
}

// renderTemplate substitutes every placeholder in a single pass, so inputs
// containing placeholder text or '%' are embedded verbatim. A field whose
// placeholder the template omits is appended as its own section.
func renderTemplate(template string, fields []templateField) string {
	pairs := make([]string, 0, 2*len(fields))
	var missing []string
	for _, f := range fields {
		pairs = append(pairs, f.placeholder, f.value)
		if !strings.Contains(template, f.placeholder) {
			missing = append(missing, fmt.Sprintf("**%s:**\n%s", f.heading, f.value))
		}
	}
	rendered := strings.NewReplacer(pairs...).Replace(template)
	if len(missing) == 0 {
		return rendered
	}
	return strings.Join(append([]string{strings.TrimRight(rendered, "\n")}, missing...), "\n\n")
}

func analysisContext(analysis *types.CompatibilityAnalysis) string {
	if analysis == nil {
		return NoPriorAnalysis
	}
	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return NoPriorAnalysis
	}
	return string(data)
}

func joinSections(sections ...string) string {
	return strings.Join(sections, "\n\n") + "\n"
}

// PromptResolver picks system prompts and user templates per operation.
// Sources in priority order: prompt file, inline configuration, built-in default.
type PromptResolver struct {
	store  *config.PromptStore
	inline map[string]config.PromptConfig
}

// NewPromptResolver reads inline prompts from cfg and file prompts from its prompt store.
// A nil cfg yields the built-in defaults.
func NewPromptResolver(cfg *config.Config) *PromptResolver {
	r := &PromptResolver{inline: make(map[string]config.PromptConfig)}
	if cfg == nil {
		return r
	}
	r.store = cfg.Prompts()
	r.inline[config.OperationAnalyze] = cfg.GetAnalyzeConfig().CustomPrompts
	r.inline[config.OperationOptimize] = cfg.GetOptimizeConfig().CustomPrompts
	return r
}

// System returns the system instruction for an operation
func (r *PromptResolver) System(operation string) string {
	fromFile := r.loaded(operation).System
	fromConfig, _ := r.inlinePrompts(operation)
	return resolvePrompt(fromFile, fromConfig, defaultFor(DefaultSystemPrompts, operation))
}

// UserTemplate returns the user prompt template for an operation
func (r *PromptResolver) UserTemplate(operation string) string {
	fromFile := r.loaded(operation).User
	_, fromConfig := r.inlinePrompts(operation)
	return resolvePrompt(fromFile, fromConfig, defaultFor(DefaultUserPrompts, operation))
}

// CompatibilityPrompt builds the analysis prompt from the resolved template
func (r *PromptResolver) CompatibilityPrompt(cvText, jobDescription string) string {
	return buildCompatibilityPrompt(r.UserTemplate(config.OperationAnalyze), cvText, jobDescription)
}

// OptimizationPrompt builds the rewrite prompt from the resolved template
func (r *PromptResolver) OptimizationPrompt(cvText, jobDescription string, analysis *types.CompatibilityAnalysis) string {
	return buildOptimizationPrompt(r.UserTemplate(config.OperationOptimize), cvText, jobDescription, analysis)
}

func (r *PromptResolver) loaded(operation string) config.LoadedPrompts {
	if r == nil {
		return config.LoadedPrompts{}
	}
	return r.store.Get(operation)
}

func (r *PromptResolver) inlinePrompts(operation string) (string, string) {
	if r == nil {
		return "", ""
	}
	return r.inline[operation].InlinePrompts(operation)
}

func defaultFor(p OperationPrompts, operation string) string {
	if operation == config.OperationOptimize {
		return p.Optimize
	}
	return p.Analyze
}

// resolvePrompt returns the first non-empty candidate in priority order
func resolvePrompt(loadedFromFile, fromConfig, fromDefault string) string {
	if loadedFromFile != "" {
		return loadedFromFile
	}
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}
