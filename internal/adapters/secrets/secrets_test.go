package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kevin07696/merchant-gateway/internal/adapters/ports"
)

func writeSecretFile(t *testing.T, dir, path, content string) {
	t.Helper()
	full := filepath.Join(dir, path)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o700))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
}

func TestLocalSecretManager_GetSecret(t *testing.T) {
	dir := t.TempDir()
	writeSecretFile(t, dir, "psigate/passphrase", "psigate1234\n")
	writeSecretFile(t, dir, "epx/mac_key", `{"value":"k3y","tags":{"owner":"payments"}}`)
	writeSecretFile(t, dir, "empty", "  \n")
	writeSecretFile(t, dir, "psigate/creds.json", `{"store_id":"teststore","passphrase":"psigate1234"}`)

	sm := NewLocalSecretManager(dir, zap.NewNop())
	ctx := context.Background()

	secret, err := sm.GetSecret(ctx, "psigate/passphrase")
	require.NoError(t, err)
	assert.Equal(t, "psigate1234", secret.Value)

	secret, err = sm.GetSecret(ctx, "epx/mac_key")
	require.NoError(t, err)
	assert.Equal(t, "k3y", secret.Value)
	assert.Equal(t, "payments", secret.Metadata["owner"])

	secret, err = sm.GetSecret(ctx, "psigate/creds.json#passphrase")
	require.NoError(t, err)
	assert.Equal(t, "psigate1234", secret.Value)
	assert.Equal(t, "teststore", secret.Metadata["store_id"])

	_, err = sm.GetSecret(ctx, "psigate/creds.json#tac")
	assert.EqualError(t, err, `secret psigate/creds.json has no "tac" field`)

	_, err = sm.GetSecret(ctx, "psigate/passphrase#value2")
	assert.ErrorContains(t, err, "is not a JSON object")

	_, err = sm.GetSecret(ctx, "missing")
	assert.EqualError(t, err, "secret not found: missing")

	_, err = sm.GetSecret(ctx, "empty")
	assert.ErrorContains(t, err, "empty secret value")
}

func TestLocalSecretManager_StaysUnderBasePath(t *testing.T) {
	parent := t.TempDir()
	base := filepath.Join(parent, "secrets")
	require.NoError(t, os.MkdirAll(base, 0o700))
	writeSecretFile(t, parent, "outside", "leaked")

	sm := NewLocalSecretManager(base, zap.NewNop())
	_, err := sm.GetSecret(context.Background(), "../outside")
	assert.EqualError(t, err, "secret not found: ../outside")
}

func TestSplitRef(t *testing.T) {
	path, field, explicit := splitRef("merchant-gateway/psigate#passphrase")
	assert.Equal(t, "merchant-gateway/psigate", path)
	assert.Equal(t, "passphrase", field)
	assert.True(t, explicit)

	path, field, explicit = splitRef("merchant-gateway/psigate#")
	assert.Equal(t, "merchant-gateway/psigate", path)
	assert.Equal(t, DefaultField, field)
	assert.False(t, explicit)

	_, field, explicit = splitRef("epx/mac")
	assert.Equal(t, DefaultField, field)
	assert.False(t, explicit)
}

func TestSecretCache(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cache := newSecretCache(true, time.Minute)
	cache.now = func() time.Time { return now }

	cache.set("a", &ports.Secret{Value: "1"})
	require.NotNil(t, cache.get("a"))

	now = now.Add(2 * time.Minute)
	assert.Nil(t, cache.get("a"), "expired entry must be evicted")

	disabled := newSecretCache(false, time.Minute)
	disabled.set("a", &ports.Secret{Value: "1"})
	assert.Nil(t, disabled.get("a"))
}

func newVaultServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestVaultAdapter_GetSecretKVv2(t *testing.T) {
	var reads int32
	srv := newVaultServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "root-token", r.Header.Get("X-Vault-Token"))
		switch r.URL.Path {
		case "/v1/secret/data/psigate/passphrase":
			atomic.AddInt32(&reads, 1)
			writeJSON(w, http.StatusOK, map[string]any{
				"data": map[string]any{
					"data": map[string]any{"value": "psigate1234", "owner": "payments"},
					"metadata": map[string]any{
						"version":       3,
						"created_time":  "2026-01-01T00:00:00Z",
						"deletion_time": "",
						"destroyed":     false,
					},
				},
			})
		default:
			writeJSON(w, http.StatusNotFound, map[string]any{"errors": []string{}})
		}
	})

	cfg := DefaultVaultConfig(srv.URL)
	cfg.Token = "root-token"
	adapter, err := NewVaultAdapter(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	secret, err := adapter.GetSecret(context.Background(), "psigate/passphrase")
	require.NoError(t, err)
	assert.Equal(t, "psigate1234", secret.Value)
	assert.Equal(t, "3", secret.Version)
	assert.Equal(t, "payments", secret.Metadata["owner"])

	// Second read is served from cache
	_, err = adapter.GetSecret(context.Background(), "psigate/passphrase")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&reads))

	_, err = adapter.GetSecret(context.Background(), "psigate/missing")
	assert.EqualError(t, err, "secret not found: psigate/missing")

	secret, err = adapter.GetSecret(context.Background(), "psigate/passphrase#owner")
	require.NoError(t, err)
	assert.Equal(t, "payments", secret.Value)
	assert.Equal(t, "psigate1234", secret.Metadata["value"])
}

func TestVaultAdapter_KVv1WithAppRole(t *testing.T) {
	srv := newVaultServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/auth/approle/login":
			writeJSON(w, http.StatusOK, map[string]any{
				"auth": map[string]any{"client_token": "approle-token"},
			})
		case "/v1/kv/epx/tac":
			assert.Equal(t, "approle-token", r.Header.Get("X-Vault-Token"))
			writeJSON(w, http.StatusOK, map[string]any{
				"data": map[string]any{"value": "tac-value"},
			})
		default:
			writeJSON(w, http.StatusNotFound, map[string]any{"errors": []string{}})
		}
	})

	cfg := DefaultVaultConfig(srv.URL)
	cfg.AuthMethod = "approle"
	cfg.RoleID = "role"
	cfg.SecretID = "secret"
	cfg.MountPath = "kv"
	cfg.KVVersion = "v1"
	cfg.EnableCache = false

	adapter, err := NewVaultAdapter(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	secret, err := adapter.GetSecret(context.Background(), "epx/tac")
	require.NoError(t, err)
	assert.Equal(t, "tac-value", secret.Value)
	assert.Equal(t, "1", secret.Version)
}

func TestVaultAdapter_AuthConfigErrors(t *testing.T) {
	cfg := DefaultVaultConfig("http://127.0.0.1:8200")
	_, err := NewVaultAdapter(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, "token is required")

	cfg.AuthMethod = "kerberos"
	_, err = NewVaultAdapter(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, "unsupported auth method: kerberos")

	cfg.AuthMethod = "token"
	cfg.Token = "root-token"
	cfg.KVVersion = "v3"
	_, err = NewVaultAdapter(context.Background(), cfg, zap.NewNop())
	assert.EqualError(t, err, "unsupported KV version: v3")
}

type fakeSecretsManager struct {
	calls  int
	values map[string]string
}

func (f *fakeSecretsManager) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	v, ok := f.values[aws.ToString(in.SecretId)]
	if !ok {
		return nil, errors.New("ResourceNotFoundException")
	}
	return &secretsmanager.GetSecretValueOutput{
		ARN:          aws.String("arn:aws:secretsmanager:us-east-1:123:secret:" + aws.ToString(in.SecretId)),
		SecretString: aws.String(v),
		VersionId:    aws.String("v-1"),
	}, nil
}

func TestAWSSecretsManagerAdapter_GetSecret(t *testing.T) {
	fake := &fakeSecretsManager{values: map[string]string{
		"merchant-gateway/psigate": "psigate1234",
		"merchant-gateway/epx":     `{"mac_key":"k3y","cust_nbr":"9001"}`,
	}}
	adapter := newAWSSecretsManagerAdapter(fake, DefaultAWSSecretsManagerConfig("us-east-1"), zap.NewNop())

	secret, err := adapter.GetSecret(context.Background(), "merchant-gateway/psigate")
	require.NoError(t, err)
	assert.Equal(t, "psigate1234", secret.Value)
	assert.Equal(t, "v-1", secret.Version)
	assert.Contains(t, secret.Metadata["arn"], "merchant-gateway/psigate")

	_, err = adapter.GetSecret(context.Background(), "merchant-gateway/psigate")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.calls)

	_, err = adapter.GetSecret(context.Background(), "nope")
	assert.ErrorContains(t, err, "failed to get secret nope")

	secret, err = adapter.GetSecret(context.Background(), "merchant-gateway/epx#mac_key")
	require.NoError(t, err)
	assert.Equal(t, "k3y", secret.Value)
	assert.Equal(t, "9001", secret.Metadata["cust_nbr"])

	_, err = adapter.GetSecret(context.Background(), "merchant-gateway/psigate#passphrase")
	assert.ErrorContains(t, err, "is not a JSON object")
}

func TestSecretVersionName(t *testing.T) {
	assert.Equal(t, "projects/p1/secrets/psigate-passphrase/versions/latest",
		SecretVersionName("p1", "psigate-passphrase", "latest"))
	assert.Equal(t, "7", extractVersionFromName("projects/p1/secrets/s/versions/7"))
	assert.Equal(t, "unknown", extractVersionFromName("broken/"))
}
