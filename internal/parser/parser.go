// Package parser recovers structured results from free-form model output.
//
// Parsing is two-stage: locate the candidate JSON span, then decode it field by
// field. A span that is not a JSON object yields a fallback object with an error
// marker instead of an error. A field whose value cannot be converted keeps its
// default and the rest of the object is kept.
package parser

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"cvmatch/internal/types"
)

// Fallback texts
const (
	CompatibilityFallbackSummary = "Analysis parsing failed. Please try again."
	OptimizationFallbackChanges  = "Unable to parse detailed changes"
	OptimizationFallbackReason   = "Response parsing error occurred"
)

// ExtractJSONSpan returns the text from the first '{' to the last '}'.
func ExtractJSONSpan(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return "", false
	}
	return raw[start : end+1], true
}

// ParseCompatibilityResponse never fails; malformed output gives the fallback analysis.
func ParseCompatibilityResponse(raw string) types.CompatibilityAnalysis {
	var parsed types.CompatibilityAnalysis
	if err := decodeSpan(raw, &parsed); err != nil {
		return CompatibilityFallback()
	}
	parsed.Error = ""
	return ApplyCompatibilityDefaults(parsed)
}

// ParseOptimizationResponse never fails; malformed output gives the fallback
// result carrying the raw text as the optimized CV.
func ParseOptimizationResponse(raw string) types.OptimizationResult {
	var parsed types.OptimizationResult
	if err := decodeSpan(raw, &parsed); err != nil {
		return OptimizationFallback(raw)
	}
	if strings.TrimSpace(parsed.OptimizedCV) == "" {
		return OptimizationFallback(raw)
	}
	parsed.Error = ""
	return ApplyOptimizationDefaults(parsed)
}

// CompatibilityFallback is the degraded analysis returned on parse failure.
func CompatibilityFallback() types.CompatibilityAnalysis {
	a := ApplyCompatibilityDefaults(types.CompatibilityAnalysis{})
	a.Summary = CompatibilityFallbackSummary
	a.Error = types.ParseErrorMarker
	return a
}

// OptimizationFallback is the degraded optimization returned on parse failure.
func OptimizationFallback(raw string) types.OptimizationResult {
	return types.OptimizationResult{
		OptimizedCV: raw,
		ChangesExplanation: []types.ChangeExplanation{{
			Section:   "general",
			Changes:   OptimizationFallbackChanges,
			Reasoning: OptimizationFallbackReason,
		}},
		KeywordOptimizations: []string{},
		Error:                types.ParseErrorMarker,
	}
}

func decodeSpan(raw string, out any) (err error) {
	// mapstructure walks arbitrary model output through reflection
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decode panic: %v", r)
		}
	}()

	span, ok := ExtractJSONSpan(raw)
	if !ok {
		return fmt.Errorf("no JSON object in response")
	}

	var generic map[string]any
	if err := json.Unmarshal([]byte(span), &generic); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.DecodeHookFuncValue(lenientValue),
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(generic)
}

var leadingNumber = regexp.MustCompile(`^\s*[-+]?\d+(\.\d+)?`)

// lenientValue replaces a value that cannot be decoded into its target with
// something that can: numeric prefixes for numbers ("85%", "3-5"), otherwise
// the target's zero value.
func lenientValue(from, to reflect.Value) (any, error) {
	target := to.Type()
	switch target.Kind() {
	case reflect.Struct:
		if from.Kind() != reflect.Map {
			return map[string]any{}, nil
		}
	case reflect.Slice:
		if from.Kind() == reflect.Map {
			return []any{}, nil
		}
		if from.Kind() != reflect.Slice && target.Elem().Kind() == reflect.Struct {
			return []any{}, nil
		}
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		if mapstructure.WeakDecode(from.Interface(), reflect.New(target).Interface()) == nil {
			break
		}
		if isNumber(target.Kind()) && from.Kind() == reflect.String {
			if prefix := leadingNumber.FindString(from.String()); prefix != "" {
				if n, err := strconv.ParseFloat(strings.TrimSpace(prefix), 64); err == nil {
					return n, nil
				}
			}
		}
		return reflect.Zero(target).Interface(), nil
	}
	return from.Interface(), nil
}

func isNumber(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Float64
}
