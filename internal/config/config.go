package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kevin07696/merchant-gateway/internal/adapters/ports"
	"github.com/kevin07696/merchant-gateway/internal/domain"
)

// optionPrefix marks environment variables that become processor options
const optionPrefix = "GATEWAY_OPT_"

// Config holds all gatewayctl configuration
type Config struct {
	Gateway GatewayConfig
	Secrets SecretsConfig
	Logger  LoggerConfig
}

// GatewayConfig selects a processor and the mode it runs in
type GatewayConfig struct {
	Processor   string             // Registry identifier, e.g. "psigate"
	Mode        domain.Mode        // live or test
	TestOutcome domain.TestOutcome // Only honored in test mode
	Timeout     time.Duration      // Per-operation timeout
	Options     ports.Options      // Processor credentials, from GATEWAY_OPT_<KEY>
}

// SecretsConfig selects the backend that resolves "secret:" option values
type SecretsConfig struct {
	Backend   string // local, vault, aws or gcp
	LocalPath string

	VaultAddress   string
	VaultToken     string
	VaultRoleID    string
	VaultSecretID  string
	VaultMountPath string
	VaultKVVersion string

	AWSRegion   string
	AWSEndpoint string

	GCPProjectID string

	CacheTTL time.Duration
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// LoadFromEnv loads and validates configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg, err := ReadEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadEnv reads environment variables without checking required fields, so
// callers can apply overrides before Validate
func ReadEnv() (*Config, error) {
	mode, err := domain.ParseMode(getEnv("GATEWAY_MODE", string(domain.ModeLive)))
	if err != nil {
		return nil, fmt.Errorf("GATEWAY_MODE: %w", err)
	}
	outcome, err := domain.ParseTestOutcome(os.Getenv("GATEWAY_TEST_OUTCOME"))
	if err != nil {
		return nil, fmt.Errorf("GATEWAY_TEST_OUTCOME: %w", err)
	}

	cfg := &Config{
		Gateway: GatewayConfig{
			Processor:   strings.ToLower(getEnv("GATEWAY_PROCESSOR", "")),
			Mode:        mode,
			TestOutcome: outcome,
			Timeout:     getEnvAsDuration("GATEWAY_TIMEOUT", 30*time.Second),
			Options:     optionsFromEnv(os.Environ()),
		},
		Secrets: SecretsConfig{
			Backend:        strings.ToLower(getEnv("SECRETS_BACKEND", "local")),
			LocalPath:      getEnv("SECRETS_LOCAL_PATH", "./secrets"),
			VaultAddress:   getEnv("VAULT_ADDR", ""),
			VaultToken:     getEnv("VAULT_TOKEN", ""),
			VaultRoleID:    getEnv("VAULT_ROLE_ID", ""),
			VaultSecretID:  getEnv("VAULT_SECRET_ID", ""),
			VaultMountPath: getEnv("VAULT_MOUNT_PATH", "secret"),
			VaultKVVersion: getEnv("VAULT_KV_VERSION", "v2"),
			AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
			AWSEndpoint:    getEnv("AWS_SECRETS_ENDPOINT", ""),
			GCPProjectID:   getEnv("GCP_PROJECT_ID", ""),
			CacheTTL:       time.Duration(getEnvAsInt("SECRET_CACHE_TTL_MINUTES", 5)) * time.Minute,
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	return cfg, nil
}

// Validate checks required fields
func (c *Config) Validate() error {
	if c.Gateway.Processor == "" {
		return fmt.Errorf("GATEWAY_PROCESSOR is required")
	}
	if c.Gateway.Timeout <= 0 {
		return fmt.Errorf("GATEWAY_TIMEOUT must be positive")
	}
	return nil
}

// optionsFromEnv collects GATEWAY_OPT_<KEY>=value pairs, lowercasing KEY
func optionsFromEnv(environ []string) ports.Options {
	opts := make(ports.Options)
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, optionPrefix) {
			continue
		}
		name := strings.ToLower(strings.TrimPrefix(key, optionPrefix))
		if name == "" {
			continue
		}
		opts[name] = value
	}
	return opts
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go durations ("45s") or a bare number of seconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
