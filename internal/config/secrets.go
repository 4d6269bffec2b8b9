package config

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kevin07696/merchant-gateway/internal/adapters/ports"
	"github.com/kevin07696/merchant-gateway/internal/adapters/secrets"
	pkgerrors "github.com/kevin07696/merchant-gateway/pkg/errors"
)

// SecretPrefix marks an option value that names a secret path instead of holding the value
const SecretPrefix = "secret:"

// NewSecretManager initializes the backend named by cfg.Backend
func NewSecretManager(ctx context.Context, cfg SecretsConfig, logger *zap.Logger) (ports.SecretManagerAdapter, error) {
	switch cfg.Backend {
	case "", "local":
		logger.Warn("Using local file secret manager - NOT for production use!",
			zap.String("path", cfg.LocalPath),
		)
		return secrets.NewLocalSecretManager(cfg.LocalPath, logger), nil

	case "vault":
		if cfg.VaultAddress == "" {
			return nil, fmt.Errorf("VAULT_ADDR is required when SECRETS_BACKEND=vault")
		}
		vc := secrets.DefaultVaultConfig(cfg.VaultAddress)
		vc.Token = cfg.VaultToken
		if cfg.VaultRoleID != "" {
			vc.AuthMethod = "approle"
			vc.RoleID = cfg.VaultRoleID
			vc.SecretID = cfg.VaultSecretID
		}
		vc.MountPath = cfg.VaultMountPath
		vc.KVVersion = cfg.VaultKVVersion
		vc.CacheTTL = cfg.CacheTTL
		return secrets.NewVaultAdapter(ctx, vc, logger)

	case "aws":
		ac := secrets.DefaultAWSSecretsManagerConfig(cfg.AWSRegion)
		ac.Endpoint = cfg.AWSEndpoint
		ac.CacheTTL = cfg.CacheTTL
		return secrets.NewAWSSecretsManagerAdapter(ctx, ac, logger)

	case "gcp":
		return secrets.NewGCPSecretManager(ctx, cfg.GCPProjectID, logger)

	default:
		return nil, fmt.Errorf("unknown SECRETS_BACKEND %q", cfg.Backend)
	}
}

// ResolveOptions returns a copy of opts with every "secret:<path>" value replaced
// by the secret read from sm. A failed lookup is a ConfigurationError naming the key.
func ResolveOptions(ctx context.Context, processor string, opts ports.Options, sm ports.SecretManagerAdapter) (ports.Options, error) {
	out := opts.Clone()

	// Sorted so the first failure reported is stable
	keys := make([]string, 0, len(out))
	for k := range out {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		path, ok := strings.CutPrefix(strings.TrimSpace(out[key]), SecretPrefix)
		if !ok {
			continue
		}
		if sm == nil {
			return nil, fmt.Errorf("%w: no secret manager configured", pkgerrors.NewConfigurationError(processor, key))
		}
		secret, err := sm.GetSecret(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", pkgerrors.NewConfigurationError(processor, key), err)
		}
		out[key] = secret.Value
	}
	return out, nil
}
