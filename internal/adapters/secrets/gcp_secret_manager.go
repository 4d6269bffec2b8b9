package secrets

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"go.uber.org/zap"

	"github.com/kevin07696/merchant-gateway/internal/adapters/ports"
)

// GCPSecretManager implements ports.SecretManagerAdapter for Google Cloud Secret Manager
type GCPSecretManager struct {
	client    *secretmanager.Client
	projectID string
	logger    *zap.Logger
	cache     *secretCache
}

var _ ports.SecretManagerAdapter = (*GCPSecretManager)(nil)

// NewGCPSecretManager creates a new GCP Secret Manager adapter with in-memory caching.
// Credentials come from GOOGLE_APPLICATION_CREDENTIALS, workload identity or
// default application credentials.
func NewGCPSecretManager(ctx context.Context, projectID string, logger *zap.Logger) (*GCPSecretManager, error) {
	if projectID == "" {
		return nil, fmt.Errorf("GCP project ID is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCP Secret Manager client: %w", err)
	}

	logger.Info("GCP Secret Manager initialized", zap.String("project_id", projectID))

	return &GCPSecretManager{
		client:    client,
		projectID: projectID,
		logger:    logger,
		cache:     newSecretCache(true, DefaultCacheTTL),
	}, nil
}

// Close closes the GCP Secret Manager client
func (sm *GCPSecretManager) Close() error {
	return sm.client.Close()
}

// GetSecret resolves ref, "name[@version][#field]". The version defaults to
// latest; a field requires the payload to be a JSON object.
func (sm *GCPSecretManager) GetSecret(ctx context.Context, ref string) (*ports.Secret, error) {
	if cached := sm.cache.get(ref); cached != nil {
		sm.logger.Debug("Secret cache hit", zap.String("ref", ref))
		return cached, nil
	}

	path, field, explicit := splitRef(ref)
	name, version, pinned := strings.Cut(path, "@")
	if !pinned || version == "" {
		version = "latest"
	}

	secretName := SecretVersionName(sm.projectID, name, version)
	result, err := sm.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		sm.logger.Error("Failed to access GCP secret",
			zap.String("secret_name", secretName),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to access GCP secret %s: %w", name, err)
	}

	payload := result.GetPayload().GetData()
	value := string(payload)
	metadata := map[string]string{}
	if explicit {
		doc, ok := decodeDocument(payload)
		if !ok {
			return nil, fmt.Errorf("secret %s is not a JSON object, cannot select %q", name, field)
		}
		value, metadata = selectField(doc, field)
		if value == "" {
			return nil, fmt.Errorf("secret %s has no %q field", name, field)
		}
	}
	metadata["gcp_project_id"] = sm.projectID
	metadata["gcp_secret"] = name

	secret := &ports.Secret{
		Value:    value,
		Version:  extractVersionFromName(result.GetName()),
		Metadata: metadata,
	}
	sm.cache.set(ref, secret)

	sm.logger.Info("Secret fetched from GCP and cached",
		zap.String("secret", name),
		zap.String("version", secret.Version),
	)
	return secret, nil
}

// SecretVersionName builds the fully qualified secret version resource name
func SecretVersionName(projectID, path, version string) string {
	return fmt.Sprintf("projects/%s/secrets/%s/versions/%s", projectID, path, version)
}

// extractVersionFromName returns the trailing segment of a version resource name
func extractVersionFromName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 && i < len(name)-1 {
		return name[i+1:]
	}
	return "unknown"
}
