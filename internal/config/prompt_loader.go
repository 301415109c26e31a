package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// LoadPromptStore collects the prompt files named in the configuration,
// validates that they exist and loads their content.
func LoadPromptStore(c *Config) (*PromptStore, error) {
	files := c.collectPromptFiles()
	if err := validatePromptFiles(files); err != nil {
		return nil, fmt.Errorf("prompt file validation failed: %w", err)
	}

	store := NewPromptStore(files)
	if err := store.Reload(); err != nil {
		return nil, err
	}

	if n := store.Count(); n == 0 {
		log.Println("[CONFIG] No custom prompts loaded - using built-in defaults")
	} else {
		log.Printf("[CONFIG] Total custom prompts loaded: %d", n)
	}
	return store, nil
}

// collectPromptFiles resolves operation-specific prompt files first and
// falls back to the global ones.
func (c *Config) collectPromptFiles() []promptFile {
	var files []promptFile
	add := func(path, operation, typ string) {
		if path != "" {
			files = append(files, promptFile{Path: path, Operation: operation, Type: typ})
		}
	}

	analyze := c.GetAnalyzeConfig().CustomPrompts
	add(analyze.SystemPrompts.AnalyzeFile, OperationAnalyze, "system")
	add(analyze.UserPrompts.AnalyzeFile, OperationAnalyze, "user")

	optimize := c.GetOptimizeConfig().CustomPrompts
	add(optimize.SystemPrompts.OptimizeFile, OperationOptimize, "system")
	add(optimize.UserPrompts.OptimizeFile, OperationOptimize, "user")

	return files
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func loadPromptFromFile(filePath, promptType, operation string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", promptType, operation, filePath, err)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s %s prompt file not found: %s", promptType, operation, absPath)
		}
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, operation, absPath, err)
	}

	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, operation, absPath)
	}

	log.Printf("[CONFIG] Loaded %s %s prompt from file: %s (%d characters)",
		promptType, operation, absPath, len(trimmedContent))

	return trimmedContent, nil
}

// validatePromptFiles validates that prompt files exist before loading
func validatePromptFiles(files []promptFile) error {
	var validationErrors []string
	for _, f := range files {
		absPath, err := filepath.Abs(f.Path)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s %s prompt: %s", f.Type, f.Operation, f.Path))
			continue
		}
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("%s %s prompt file not found: %s", f.Type, f.Operation, absPath))
		}
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("%s", strings.Join(validationErrors, "\n"))
	}
	return nil
}
