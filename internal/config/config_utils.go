package config

import (
	"log"
	"os"
	"strings"
)

// envOverride is an environment variable reported in the startup summary
type envOverride struct {
	name   string
	secret bool
}

var reportedEnv = []envOverride{
	{"CVMATCH_AI_APIKEY", true},
	{"CVMATCH_AI_PROVIDER", false},
	{"CVMATCH_AI_MODEL", false},
	{"CVMATCH_QUOTA_DAILYLIMIT", false},
	{"CVMATCH_SERVER_HOST", false},
	{"CVMATCH_SERVER_PORT", false},
	{"CVMATCH_SERVER_APIKEYS", true},
	{"CVMATCH_SERVER_JWTSECRET", true},
	{"CVMATCH_DATABASE_URL", true},
	{"CVMATCH_APP_LOGLEVEL", false},
	{"CVMATCH_VAULT_ENABLED", false},
	{"GEMINI_API_KEY", true},
}

// applyFallbacks fills values viper leaves empty
func (c *Config) applyFallbacks() {
	if len(c.Server.APIKeys) == 0 {
		c.Server.APIKeys = splitAndTrim(os.Getenv("CVMATCH_SERVER_APIKEYS"))
	}
	// GEMINI_API_KEY is the provider SDK's own variable
	if c.AI.APIKey == "" {
		c.AI.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	obs := &c.Observability
	if obs.ServiceInstance == "" {
		obs.ServiceInstance = obs.ServiceName + "-1"
		if host, err := os.Hostname(); err == nil {
			obs.ServiceInstance = obs.ServiceName + "-" + host
		}
	}
	// debug logging also prints spans and metrics
	if c.App.LogLevel == "debug" {
		obs.ConsoleOutput = true
	}
}

// splitAndTrim splits a comma separated list, dropping blank entries
func splitAndTrim(value string) []string {
	var out []string
	for part := range strings.SplitSeq(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// logConfigurationSources prints where the configuration came from and the
// values that shape a run, with secrets masked
func (c *Config) logConfigurationSources(configFileUsed string) {
	source := configFileUsed
	if source == "" {
		source = "none, built-in defaults"
	}
	log.Printf("[CONFIG] Config file: %s", source)

	set := 0
	for _, env := range reportedEnv {
		value, ok := os.LookupEnv(env.name)
		if !ok || value == "" {
			continue
		}
		if env.secret {
			value = "***MASKED***"
		}
		log.Printf("[CONFIG] Env %s=%s", env.name, value)
		set++
	}
	if set == 0 {
		log.Println("[CONFIG] Env: no CVMATCH_* overrides")
	}

	credential := "missing"
	if c.HasAPIKey() {
		credential = "configured"
	}
	log.Printf("[CONFIG] Provider %s, model %q (analyze %q, optimize %q), API key %s",
		c.AI.Provider, c.AI.Model, c.AI.Analyze.Model, c.AI.Optimize.Model, credential)
	log.Printf("[CONFIG] Daily model call limit %d, listen %s:%s, log level %s",
		c.Quota.DailyLimit, c.Server.Host, c.Server.Port, c.App.LogLevel)
	log.Printf("[CONFIG] Database store %t, vault %t, observability %t",
		c.Database.Enabled(), c.Vault.Enabled, c.Observability.Enabled)
}
