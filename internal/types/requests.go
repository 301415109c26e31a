package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// AnalysisRequest is the input for a compatibility analysis
type AnalysisRequest struct {
	CVText         string `json:"cvText" validate:"required,notblank"`
	JobDescription string `json:"jobDescription" validate:"required,notblank"`
}

// Validate validates the AnalysisRequest using the validator.
func (r *AnalysisRequest) Validate() error {
	return validate.Struct(r)
}

// OptimizationRequest is the input for a CV rewrite. AnalysisData is optional.
type OptimizationRequest struct {
	CVText         string                 `json:"cvText" validate:"required,notblank"`
	JobDescription string                 `json:"jobDescription" validate:"required,notblank"`
	AnalysisData   *CompatibilityAnalysis `json:"analysisData,omitempty"`
}

// Validate validates the OptimizationRequest using the validator.
func (r *OptimizationRequest) Validate() error {
	return validate.Struct(r)
}

// SkillGapRequest holds the two already-resolved skill lists.
type SkillGapRequest struct {
	CVSkills       []string `json:"cvSkills"`
	RequiredSkills []string `json:"requiredSkills"`
}

// FieldErrors flattens validator errors into "field: rule" messages.
func FieldErrors(err error) []string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		if err == nil {
			return nil
		}
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fieldName(fe.Field())+" is required")
	}
	return out
}

func fieldName(structField string) string {
	switch structField {
	case "CVText":
		return "cvText"
	case "JobDescription":
		return "jobDescription"
	}
	return structField
}
