package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/vault/api"

	"cvmatch/internal/errors"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`
	// Mount is the KV v2 engine mount, "secret" by default
	Mount string `mapstructure:"mount"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets are KV v2 paths below the mount. An empty path is skipped.
type VaultSecrets struct {
	GeminiKey string `mapstructure:"geminiKey"` // key "api_key"
	APIKeys   string `mapstructure:"apiKeys"`   // key "keys", comma separated
	JWTSecret string `mapstructure:"jwtSecret"` // key "secret"
	Database  string `mapstructure:"database"`  // key "url"
}

// Secrets is everything cvmatch reads from Vault
type Secrets struct {
	GeminiKey   string
	APIKeys     string
	JWTSecret   string
	DatabaseURL string
}

// SecretReader reads a single string field of a KV v2 secret
type SecretReader interface {
	ReadString(ctx context.Context, path, key string) (string, error)
}

type secretField struct {
	name   string
	path   string
	key    string
	target *string
}

// fields binds each configured path and key to its Secrets field
func (s *Secrets) fields(paths VaultSecrets) []secretField {
	return []secretField{
		{"Gemini API key", paths.GeminiKey, "api_key", &s.GeminiKey},
		{"API keys", paths.APIKeys, "keys", &s.APIKeys},
		{"JWT secret", paths.JWTSecret, "secret", &s.JWTSecret},
		{"database URL", paths.Database, "url", &s.DatabaseURL},
	}
}

// FetchSecrets reads every configured secret; the first failure aborts.
func FetchSecrets(ctx context.Context, reader SecretReader, paths VaultSecrets, logger *errors.Logger) (Secrets, error) {
	var s Secrets
	for _, f := range s.fields(paths) {
		if f.path == "" {
			continue
		}
		value, err := reader.ReadString(ctx, f.path, f.key)
		if err != nil {
			return Secrets{}, fmt.Errorf("failed to load %s from vault: %w", f.name, err)
		}
		if value == "" {
			logger.Warn("Empty secret in Vault", "secret", f.name, "path", f.path)
			continue
		}
		*f.target = value
		logger.Debug("Secret loaded from Vault", "secret", f.name, "path", f.path, "value", maskSecret(value))
	}
	return s, nil
}

// Apply copies the non-empty secrets into cfg. The Gemini key fills every
// operation that has no key of its own.
func (s Secrets) Apply(cfg *Config) {
	if s.GeminiKey != "" {
		cfg.AI.APIKey = s.GeminiKey
		for _, op := range []*OperationAIConfig{&cfg.AI.Analyze, &cfg.AI.Optimize} {
			if op.APIKey == "" {
				op.APIKey = s.GeminiKey
			}
		}
	}
	if keys := splitAndTrim(s.APIKeys); len(keys) > 0 {
		cfg.Server.APIKeys = keys
	}
	if s.JWTSecret != "" {
		cfg.Server.JWTSecret = s.JWTSecret
	}
	if s.DatabaseURL != "" {
		cfg.Database.URL = s.DatabaseURL
	}
}

// ApplyVaultSecrets loads the configured secrets into cfg when Vault is enabled
func ApplyVaultSecrets(ctx context.Context, cfg *Config, logger *errors.Logger) error {
	if !cfg.Vault.Enabled {
		logger.Debug("Vault integration disabled, skipping secret loading")
		return nil
	}

	client, err := NewVaultClient(ctx, cfg.Vault, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}
	secrets, err := FetchSecrets(ctx, client, cfg.Vault.Secrets, logger)
	if err != nil {
		return err
	}
	secrets.Apply(cfg)
	logger.Info("Secrets applied from Vault",
		"gemini_key", secrets.GeminiKey != "",
		"api_keys", len(splitAndTrim(secrets.APIKeys)),
		"jwt_secret", secrets.JWTSecret != "",
		"database_url", secrets.DatabaseURL != "")
	return nil
}

// VaultClient reads KV v2 secrets
type VaultClient struct {
	kv     *api.KVv2
	logger *errors.Logger
}

var _ SecretReader = (*VaultClient)(nil)

// NewVaultClient connects to Vault and checks that it is reachable
func NewVaultClient(ctx context.Context, cfg VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	apiCfg := api.DefaultConfig()
	if cfg.Address != "" {
		apiCfg.Address = cfg.Address
	}
	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	token, err := resolveVaultToken(cfg)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().HealthWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to vault at %s: %w", apiCfg.Address, err)
	}
	if health.Sealed {
		return nil, fmt.Errorf("vault at %s is sealed", apiCfg.Address)
	}
	logger.Info("Connected to Vault",
		"address", apiCfg.Address,
		"version", health.Version,
		"token", maskSecret(token))

	mount := cfg.Mount
	if mount == "" {
		mount = "secret"
	}
	return &VaultClient{kv: client.KVv2(mount), logger: logger}, nil
}

// ReadString implements SecretReader
func (vc *VaultClient) ReadString(ctx context.Context, path, key string) (string, error) {
	secret, err := vc.kv.Get(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret %s: %w", path, err)
	}
	raw, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("key %q not found in secret %s", key, path)
	}
	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("key %q in secret %s is %T, not a string", key, path, raw)
	}
	return value, nil
}

// resolveVaultToken prefers the inline token over the token file
func resolveVaultToken(cfg VaultConfig) (string, error) {
	token := cfg.Token
	if token == "" && cfg.TokenFile != "" {
		data, err := os.ReadFile(cfg.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(data))
	}
	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// maskSecret keeps the first and last four characters of long values
func maskSecret(value string) string {
	switch {
	case len(value) > 8:
		return value[:4] + "****" + value[len(value)-4:]
	case len(value) > 0:
		return "****"
	}
	return ""
}
