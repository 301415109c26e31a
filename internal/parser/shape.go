package parser

import (
	"embed"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// FieldIssue is a single shape problem found in a model response.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (f FieldIssue) String() string {
	return fmt.Sprintf("%s: %s", f.Field, f.Message)
}

var (
	schemaOnce    sync.Once
	compatSchema  *gojsonschema.Schema
	optimizSchema *gojsonschema.Schema
	schemaErr     error
)

func loadSchemas() {
	compatSchema, schemaErr = compileSchema("schemas/compatibility.json")
	if schemaErr != nil {
		return
	}
	optimizSchema, schemaErr = compileSchema("schemas/optimization.json")
}

func compileSchema(name string) (*gojsonschema.Schema, error) {
	data, err := schemaFS.ReadFile(name)
	if err != nil {
		return nil, err
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return schema, nil
}

// CheckCompatibilityShape reports where the JSON span of raw deviates from the
// expected analysis shape. Issues are advisory; parsing still applies defaults.
func CheckCompatibilityShape(raw string) []FieldIssue {
	schemaOnce.Do(loadSchemas)
	return checkShape(compatSchema, raw)
}

// CheckOptimizationShape is CheckCompatibilityShape for optimization responses.
func CheckOptimizationShape(raw string) []FieldIssue {
	schemaOnce.Do(loadSchemas)
	return checkShape(optimizSchema, raw)
}

func checkShape(schema *gojsonschema.Schema, raw string) []FieldIssue {
	if schemaErr != nil {
		return []FieldIssue{{Field: "(schema)", Message: schemaErr.Error()}}
	}
	span, ok := ExtractJSONSpan(raw)
	if !ok {
		return []FieldIssue{{Field: "(root)", Message: "no JSON object found"}}
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(span))
	if err != nil {
		return []FieldIssue{{Field: "(root)", Message: err.Error()}}
	}
	if result.Valid() {
		return nil
	}

	issues := make([]FieldIssue, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		issues = append(issues, FieldIssue{Field: e.Field(), Message: e.Description()})
	}
	return issues
}
