package config

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		timeout := c.AI.Timeout
		opCfg.Timeout = &timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.Temperature == nil {
		temperature := c.AI.Temperature
		opCfg.Temperature = &temperature
	}
	if opCfg.MaxTokens == nil {
		maxTokens := c.AI.MaxTokens
		opCfg.MaxTokens = &maxTokens
	}
	if opCfg.UseSystemPrompts == nil {
		useSystem := c.AI.UseSystemPrompts
		opCfg.UseSystemPrompts = &useSystem
	}
}

// GetAnalyzeConfig returns the AI configuration for compatibility analysis with fallback to global config
func (c *Config) GetAnalyzeConfig() OperationAIConfig {
	config := c.AI.Analyze
	c.applyOperationDefaults(&config)

	inheritPrompt(&config.CustomPrompts.SystemPrompts.Analyze, c.AI.CustomPrompts.SystemPrompts.Analyze)
	inheritPrompt(&config.CustomPrompts.UserPrompts.Analyze, c.AI.CustomPrompts.UserPrompts.Analyze)
	inheritPrompt(&config.CustomPrompts.SystemPrompts.AnalyzeFile, c.AI.CustomPrompts.SystemPrompts.AnalyzeFile)
	inheritPrompt(&config.CustomPrompts.UserPrompts.AnalyzeFile, c.AI.CustomPrompts.UserPrompts.AnalyzeFile)

	return config
}

// GetOptimizeConfig returns the AI configuration for CV optimization with fallback to global config
func (c *Config) GetOptimizeConfig() OperationAIConfig {
	config := c.AI.Optimize
	c.applyOperationDefaults(&config)

	inheritPrompt(&config.CustomPrompts.SystemPrompts.Optimize, c.AI.CustomPrompts.SystemPrompts.Optimize)
	inheritPrompt(&config.CustomPrompts.UserPrompts.Optimize, c.AI.CustomPrompts.UserPrompts.Optimize)
	inheritPrompt(&config.CustomPrompts.SystemPrompts.OptimizeFile, c.AI.CustomPrompts.SystemPrompts.OptimizeFile)
	inheritPrompt(&config.CustomPrompts.UserPrompts.OptimizeFile, c.AI.CustomPrompts.UserPrompts.OptimizeFile)

	return config
}

// GetOperationConfig dispatches to the per-operation getters.
func (c *Config) GetOperationConfig(operation string) OperationAIConfig {
	if operation == OperationOptimize {
		return c.GetOptimizeConfig()
	}
	return c.GetAnalyzeConfig()
}

// InlinePrompts returns the configured inline system and user prompt for an operation.
func (p PromptConfig) InlinePrompts(operation string) (system, user string) {
	if operation == OperationOptimize {
		return p.SystemPrompts.Optimize, p.UserPrompts.Optimize
	}
	return p.SystemPrompts.Analyze, p.UserPrompts.Analyze
}

// HasAPIKey reports whether any credential is configured for the model.
func (c *Config) HasAPIKey() bool {
	return c.GetAnalyzeConfig().APIKey != "" || c.GetOptimizeConfig().APIKey != ""
}

func inheritPrompt(target *string, global string) {
	if *target == "" {
		*target = global
	}
}
