package secrets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/kevin07696/merchant-gateway/internal/adapters/ports"
)

// LocalSecretManager reads secrets from files under a base directory.
// Development only.
type LocalSecretManager struct {
	basePath string
	logger   *zap.Logger
}

var _ ports.SecretManagerAdapter = (*LocalSecretManager)(nil)

// NewLocalSecretManager creates a new local filesystem secret manager
func NewLocalSecretManager(basePath string, logger *zap.Logger) *LocalSecretManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalSecretManager{
		basePath: basePath,
		logger:   logger,
	}
}

// GetSecret reads basePath/path for ref "path" or "path#field". The file is
// either plain text or a JSON object; JSON files yield the selected field.
func (m *LocalSecretManager) GetSecret(ctx context.Context, ref string) (*ports.Secret, error) {
	secretPath, field, explicit := splitRef(ref)
	filePath := filepath.Join(m.basePath, filepath.Clean("/"+secretPath))

	m.logger.Debug("Reading secret from filesystem",
		zap.String("path", secretPath),
		zap.String("field", field),
	)

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("secret not found: %s", secretPath)
		}
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}

	if doc, ok := decodeDocument(data); ok {
		value, metadata := selectField(doc, field)
		if value == "" {
			return nil, fmt.Errorf("secret %s has no %q field", secretPath, field)
		}
		return &ports.Secret{Value: value, Version: "v1", Metadata: metadata}, nil
	}
	if explicit {
		return nil, fmt.Errorf("secret %s is not a JSON object, cannot select %q", secretPath, field)
	}

	value := strings.TrimSpace(string(data))
	if value == "" {
		return nil, fmt.Errorf("empty secret value in file %s", filePath)
	}
	return &ports.Secret{
		Value:   value,
		Version: "v1",
	}, nil
}
