package config

import (
	stderrors "errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Operation names shared by config, prompts and metrics
const (
	OperationAnalyze  = "analyze"
	OperationOptimize = "optimize"
)

// Config holds all application configuration
// API Key Precedence Order:
// 1. Vault (if configured) - Highest priority
// 2. Config File values
// 3. Environment Variables (CVMATCH_AI_APIKEY, etc.)
// 4. Default values - Lowest priority
type Config struct {
	AI            AIConfig            `mapstructure:"ai"`
	Quota         QuotaConfig         `mapstructure:"quota"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Observability ObservabilityConfig `mapstructure:"observability"`

	prompts *PromptStore
}

// AIConfig holds AI service configuration
type AIConfig struct {
	Provider         string        `mapstructure:"provider"`
	Model            string        `mapstructure:"model"`
	Timeout          time.Duration `mapstructure:"timeout"`
	APIKey           string        `mapstructure:"apiKey"`
	Temperature      float32       `mapstructure:"temperature"`
	MaxTokens        int32         `mapstructure:"maxTokens"`
	UseSystemPrompts bool          `mapstructure:"useSystemPrompts"`
	CustomPrompts    PromptConfig  `mapstructure:"customPrompts"`

	Analyze  OperationAIConfig `mapstructure:"analyze"`
	Optimize OperationAIConfig `mapstructure:"optimize"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// OperationAIConfig holds AI configuration for specific operations.
// Pointer fields are nil when unset so the global value can apply.
type OperationAIConfig struct {
	Provider         string               `mapstructure:"provider"`
	Model            string               `mapstructure:"model"`
	Timeout          *time.Duration       `mapstructure:"timeout"`
	APIKey           string               `mapstructure:"apiKey"`
	Temperature      *float32             `mapstructure:"temperature"`
	MaxTokens        *int32               `mapstructure:"maxTokens"`
	UseSystemPrompts *bool                `mapstructure:"useSystemPrompts"`
	CustomPrompts    PromptConfig         `mapstructure:"customPrompts"`
	CircuitBreaker   CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// PromptConfig holds configuration for customizable prompts
type PromptConfig struct {
	SystemPrompts PromptPair `mapstructure:"systemPrompts"`
	UserPrompts   PromptPair `mapstructure:"userPrompts"`
}

// PromptPair holds inline prompt text and prompt file paths per operation
type PromptPair struct {
	Analyze      string `mapstructure:"analyze"`
	AnalyzeFile  string `mapstructure:"analyzeFile"`
	Optimize     string `mapstructure:"optimize"`
	OptimizeFile string `mapstructure:"optimizeFile"`
}

// QuotaConfig bounds how many model calls the process makes per calendar day
type QuotaConfig struct {
	DailyLimit int `mapstructure:"dailyLimit"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout    time.Duration `mapstructure:"idleTimeout"`
	MaxRequestSize int64         `mapstructure:"maxRequestSize"`

	// API Authentication
	APIKeys   []string `mapstructure:"apiKeys"`   // Valid API keys for authentication
	JWTSecret string   `mapstructure:"jwtSecret"` // HS256 secret of the external auth service

	// Per-client limiter on the analysis routes
	AnalysisRateLimit RateLimitConfig `mapstructure:"analysisRateLimit"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool `mapstructure:"enabled"`        // Enable/disable rate limiting
	RequestsPerMin int  `mapstructure:"requestsPerMin"` // Requests allowed per minute
	BurstCapacity  int  `mapstructure:"burstCapacity"`  // Burst capacity for token bucket
	ByIP           bool `mapstructure:"byIP"`           // Enable per-IP rate limiting
	ByAPIKey       bool `mapstructure:"byAPIKey"`       // Enable per-API-key rate limiting
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
}

// DatabaseConfig configures the optional PostgreSQL store
type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConns       int32         `mapstructure:"maxConns"`
	ConnectTimeout time.Duration `mapstructure:"connectTimeout"`
}

// Enabled reports whether a database URL was configured.
func (d DatabaseConfig) Enabled() bool {
	return strings.TrimSpace(d.URL) != ""
}

// ObservabilityConfig controls tracing, metrics and their exporters
type ObservabilityConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	ServiceName     string `mapstructure:"serviceName"`
	ServiceVersion  string `mapstructure:"serviceVersion"`
	ServiceInstance string `mapstructure:"serviceInstance"`
	// ConsoleOutput writes spans and metrics to stdout instead of exporting them
	ConsoleOutput bool    `mapstructure:"consoleOutput"`
	PrettyPrint   bool    `mapstructure:"prettyPrint"`
	SampleRate    float64 `mapstructure:"sampleRate"`

	MetricsInterval time.Duration `mapstructure:"metricsInterval"`
	// HealthTimeout bounds the model check behind /health
	HealthTimeout time.Duration `mapstructure:"healthTimeout"`

	Instruments Instruments      `mapstructure:"instruments"`
	Prometheus  PrometheusConfig `mapstructure:"prometheus"`
	OTLP        OTLPConfig       `mapstructure:"otlp"`
}

// Instruments switches groups of cvmatch metrics on or off
type Instruments struct {
	ModelCalls   bool `mapstructure:"modelCalls"` // call counts, errors and latency
	TokenUsage   bool `mapstructure:"tokenUsage"`
	Scores       bool `mapstructure:"scores"`
	Degradations bool `mapstructure:"degradations"`
	SkillGaps    bool `mapstructure:"skillGaps"`
	Quota        bool `mapstructure:"quota"`
	RateLimits   bool `mapstructure:"rateLimits"`
}

// AllInstruments enables every metric group
func AllInstruments() Instruments {
	return Instruments{
		ModelCalls:   true,
		TokenUsage:   true,
		Scores:       true,
		Degradations: true,
		SkillGaps:    true,
		Quota:        true,
		RateLimits:   true,
	}
}

// PrometheusConfig exposes the metrics registry. An empty Port serves it
// on the API listener.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig points the trace and metric exporters at a collector
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// searchPaths are tried in order when no config file is named
var searchPaths = []string{"/etc/cvmatch/", "$HOME/.cvmatch", "."}

// newViper returns a viper with cvmatch defaults and CVMATCH_* env binding
func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("CVMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig looks for config.yaml on the search paths. A missing file is
// fine; defaults and the environment still apply.
func LoadConfig() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case stderrors.As(err, &notFound):
		return decode(v, "")
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return decode(v, v.ConfigFileUsed())
}

// LoadConfigFile loads configuration from an explicit file path
func LoadConfigFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return decode(v, path)
}

func decode(v *viper.Viper, configFileUsed string) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()
	config.logConfigurationSources(configFileUsed)

	store, err := LoadPromptStore(&config)
	if err != nil {
		return nil, fmt.Errorf("failed to load custom prompts from files: %w", err)
	}
	config.prompts = store

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// Prompts returns the prompt file store. Never nil.
func (c *Config) Prompts() *PromptStore {
	if c.prompts == nil {
		c.prompts = NewPromptStore(nil)
	}
	return c.prompts
}

// Validate reports every invalid setting at once. A missing AI API key is
// allowed here and reported when an operation first needs the model.
func (c *Config) Validate() error {
	var problems []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Errorf(format, args...))
		}
	}

	check(c.AI.Timeout > 0, "ai timeout must be positive, got %s", c.AI.Timeout)
	check(c.Quota.DailyLimit > 0, "quota dailyLimit must be positive, got %d", c.Quota.DailyLimit)
	check(c.Server.Port != "", "server port is required")
	if rl := c.Server.AnalysisRateLimit; rl.Enabled {
		check(rl.RequestsPerMin > 0 && rl.BurstCapacity > 0,
			"server analysisRateLimit needs positive requestsPerMin and burstCapacity when enabled")
	}
	check(slices.Contains(c.App.SupportedFormats, c.App.DefaultFormat),
		"default format %q is not one of %v", c.App.DefaultFormat, c.App.SupportedFormats)

	return stderrors.Join(problems...)
}
