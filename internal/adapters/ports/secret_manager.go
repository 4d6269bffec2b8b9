package ports

import (
	"context"
)

// Secret represents a retrieved secret with metadata
type Secret struct {
	Value    string            // The secret value (e.g., a processor passphrase)
	Version  string            // Secret version identifier
	Metadata map[string]string // Additional secret metadata
}

// SecretManagerAdapter resolves processor credentials that are kept out of
// plain configuration. Backends: local files, HashiCorp Vault, AWS Secrets
// Manager and GCP Secret Manager.
type SecretManagerAdapter interface {
	// GetSecret retrieves the latest version of a secret by its path/name
	GetSecret(ctx context.Context, path string) (*Secret, error)
}
