package formatters

import (
	"encoding/json"
	"fmt"
	"slices"

	"cvmatch/internal/scoring"
	"cvmatch/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// Data type names used as registry keys
const (
	TypeAnalysis     = "CompatibilityAnalysis"
	TypeOptimization = "OptimizationResult"
	TypeSkillGaps    = "SkillGapReport"
	TypeScore        = "ScoreBreakdown"
	TypeAny          = "any"
)

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// GlobalRegistry holds the built-in formatters
var GlobalRegistry = NewFormatterRegistry()

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", TypeAny, &JSONFormatter{})
	registry.RegisterFormatter("text", TypeAnalysis, &AnalysisTextFormatter{})
	registry.RegisterFormatter("markdown", TypeAnalysis, &AnalysisMarkdownFormatter{})
	registry.RegisterFormatter("text", TypeOptimization, &OptimizationTextFormatter{})
	registry.RegisterFormatter("markdown", TypeOptimization, &OptimizationMarkdownFormatter{})
	registry.RegisterFormatter("text", TypeSkillGaps, &SkillGapTextFormatter{})
	registry.RegisterFormatter("markdown", TypeSkillGaps, &SkillGapMarkdownFormatter{})
	registry.RegisterFormatter("text", TypeScore, &ScoreTextFormatter{})
	registry.RegisterFormatter("markdown", TypeScore, &ScoreMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter. Pointers to the known
// result types are formatted like their values.
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	data = deref(data)
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters[TypeAny]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	slices.Sort(formats)
	return formats
}

func deref(data any) any {
	switch v := data.(type) {
	case *types.CompatibilityAnalysis:
		if v != nil {
			return *v
		}
	case *types.OptimizationResult:
		if v != nil {
			return *v
		}
	case *types.SkillGapReport:
		if v != nil {
			return *v
		}
	case *scoring.ScoreBreakdown:
		if v != nil {
			return *v
		}
	}
	return data
}

func getDataType(data any) string {
	switch data.(type) {
	case types.CompatibilityAnalysis:
		return TypeAnalysis
	case types.OptimizationResult:
		return TypeOptimization
	case types.SkillGapReport:
		return TypeSkillGaps
	case scoring.ScoreBreakdown:
		return TypeScore
	default:
		return TypeAny
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return TypeAny
}
