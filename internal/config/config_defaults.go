package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// AI Configuration - Global defaults
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.temperature", 0.3)
	v.SetDefault("ai.maxTokens", 2000)
	v.SetDefault("ai.useSystemPrompts", true)

	// Compatibility analysis: low temperature, bounded output
	v.SetDefault("ai.analyze.temperature", 0.3)
	v.SetDefault("ai.analyze.maxTokens", 2000)

	// Optimization rewrites the whole CV, so it gets more room and a longer timeout
	v.SetDefault("ai.optimize.temperature", 0.2)
	v.SetDefault("ai.optimize.maxTokens", 3000)
	v.SetDefault("ai.optimize.timeout", 90*time.Second)

	for _, op := range []string{OperationAnalyze, OperationOptimize} {
		v.SetDefault("ai."+op+".circuitBreaker.enabled", true)
		v.SetDefault("ai."+op+".circuitBreaker.maxRequests", 3)
		v.SetDefault("ai."+op+".circuitBreaker.interval", 60*time.Second)
		v.SetDefault("ai."+op+".circuitBreaker.timeout", 60*time.Second)
		v.SetDefault("ai."+op+".circuitBreaker.minRequests", 3)
		v.SetDefault("ai."+op+".circuitBreaker.failureThreshold", 0.6)
	}

	// Daily model call quota
	v.SetDefault("quota.dailyLimit", 100)

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 120*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.maxRequestSize", 1024*1024)
	v.SetDefault("server.apiKeys", []string{})
	v.SetDefault("server.jwtSecret", "")
	v.SetDefault("server.analysisRateLimit.enabled", true)
	v.SetDefault("server.analysisRateLimit.requestsPerMin", 3)
	v.SetDefault("server.analysisRateLimit.burstCapacity", 3)
	v.SetDefault("server.analysisRateLimit.byIP", true)
	v.SetDefault("server.analysisRateLimit.byAPIKey", false)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 1024*1024) // 1MB

	// Database Configuration
	v.SetDefault("database.url", "")
	v.SetDefault("database.maxConns", 5)
	v.SetDefault("database.connectTimeout", 5*time.Second)

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.mount", "secret")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.geminiKey", "")
	v.SetDefault("vault.secrets.jwtSecret", "")
	v.SetDefault("vault.secrets.database", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "cvmatch")
	v.SetDefault("observability.serviceVersion", "")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.prettyPrint", true)
	v.SetDefault("observability.metricsInterval", 15*time.Second)
	v.SetDefault("observability.healthTimeout", 15*time.Second)

	for _, group := range []string{"modelCalls", "tokenUsage", "scores", "degradations", "skillGaps", "quota", "rateLimits"} {
		v.SetDefault("observability.instruments."+group, true)
	}

	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "")

	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}
