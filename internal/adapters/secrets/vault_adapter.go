package secrets

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"

	"github.com/kevin07696/merchant-gateway/internal/adapters/ports"
)

// VaultConfig contains configuration for HashiCorp Vault adapter
type VaultConfig struct {
	Address string

	// "token" or "approle"
	AuthMethod string
	Token      string
	RoleID     string
	SecretID   string

	Namespace string // Vault Enterprise only

	// KV secrets engine mount and version ("v1" or "v2")
	MountPath string
	KVVersion string

	CacheTTL    time.Duration
	EnableCache bool

	TLSSkipVerify bool
}

// DefaultVaultConfig returns token auth against a KV v2 engine mounted at "secret"
func DefaultVaultConfig(address string) *VaultConfig {
	return &VaultConfig{
		Address:     address,
		AuthMethod:  "token",
		MountPath:   "secret",
		KVVersion:   "v2",
		CacheTTL:    DefaultCacheTTL,
		EnableCache: true,
	}
}

// kvReader is satisfied by both vault.KVv1 and vault.KVv2
type kvReader interface {
	Get(ctx context.Context, secretPath string) (*vault.KVSecret, error)
}

// VaultAdapter reads processor credentials from a Vault KV engine.
// A reference is "path" or "path#field"; the field defaults to "value".
type VaultAdapter struct {
	kv     kvReader
	config *VaultConfig
	logger *zap.Logger
	cache  *secretCache
}

var _ ports.SecretManagerAdapter = (*VaultAdapter)(nil)

// NewVaultAdapter creates and authenticates a HashiCorp Vault adapter
func NewVaultAdapter(ctx context.Context, cfg *VaultConfig, logger *zap.Logger) (*VaultAdapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address
	if cfg.TLSSkipVerify {
		if err := vaultConfig.ConfigureTLS(&vault.TLSConfig{Insecure: true}); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	if err := authenticateVault(ctx, client, cfg); err != nil {
		return nil, fmt.Errorf("failed to authenticate with Vault: %w", err)
	}

	var kv kvReader
	switch cfg.KVVersion {
	case "", "v2":
		kv = client.KVv2(cfg.MountPath)
	case "v1":
		kv = client.KVv1(cfg.MountPath)
	default:
		return nil, fmt.Errorf("unsupported KV version: %s", cfg.KVVersion)
	}

	logger.Info("Vault adapter initialized",
		zap.String("address", cfg.Address),
		zap.String("auth_method", cfg.AuthMethod),
		zap.String("mount_path", cfg.MountPath),
		zap.String("kv_version", cfg.KVVersion),
	)

	return &VaultAdapter{
		kv:     kv,
		config: cfg,
		logger: logger,
		cache:  newSecretCache(cfg.EnableCache, cfg.CacheTTL),
	}, nil
}

func authenticateVault(ctx context.Context, client *vault.Client, cfg *VaultConfig) error {
	switch cfg.AuthMethod {
	case "", "token":
		if cfg.Token == "" {
			return fmt.Errorf("token is required for token auth")
		}
		client.SetToken(cfg.Token)
		return nil

	case "approle":
		if cfg.RoleID == "" || cfg.SecretID == "" {
			return fmt.Errorf("role_id and secret_id are required for AppRole auth")
		}
		resp, err := client.Logical().WriteWithContext(ctx, "auth/approle/login", map[string]interface{}{
			"role_id":   cfg.RoleID,
			"secret_id": cfg.SecretID,
		})
		if err != nil {
			return fmt.Errorf("AppRole login failed: %w", err)
		}
		if resp == nil || resp.Auth == nil {
			return fmt.Errorf("AppRole login returned no auth info")
		}
		client.SetToken(resp.Auth.ClientToken)
		return nil

	default:
		return fmt.Errorf("unsupported auth method: %s", cfg.AuthMethod)
	}
}

// GetSecret resolves ref, e.g. "merchant-gateway/psigate#passphrase"
func (a *VaultAdapter) GetSecret(ctx context.Context, ref string) (*ports.Secret, error) {
	if cached := a.cache.get(ref); cached != nil {
		a.logger.Debug("Secret retrieved from cache", zap.String("ref", ref))
		return cached, nil
	}

	path, field, _ := splitRef(ref)
	startTime := time.Now()
	kvSecret, err := a.kv.Get(ctx, path)
	if err != nil {
		if errors.Is(err, vault.ErrSecretNotFound) {
			return nil, fmt.Errorf("secret not found: %s", path)
		}
		a.logger.Error("Failed to retrieve secret from Vault",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to read secret from Vault: %w", err)
	}
	if kvSecret == nil || kvSecret.Data == nil {
		// KV v2 returns metadata without data for deleted versions
		return nil, fmt.Errorf("secret not found: %s", path)
	}

	a.logger.Info("Secret retrieved from Vault",
		zap.String("path", path),
		zap.String("field", field),
		zap.Duration("elapsed", time.Since(startTime)),
	)

	value, metadata := selectField(kvSecret.Data, field)
	if value == "" {
		return nil, fmt.Errorf("secret %s has no %q field", path, field)
	}

	version := "1"
	if kvSecret.VersionMetadata != nil {
		version = strconv.Itoa(kvSecret.VersionMetadata.Version)
	}

	result := &ports.Secret{
		Value:    value,
		Version:  version,
		Metadata: metadata,
	}
	a.cache.set(ref, result)
	return result, nil
}
