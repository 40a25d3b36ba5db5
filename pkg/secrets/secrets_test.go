package secrets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"rvsync/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const kvResponse = `{
  "request_id": "1",
  "lease_id": "",
  "renewable": false,
  "lease_duration": 0,
  "data": {
    "data": {"jwt_secret": "from-vault"},
    "metadata": {
      "created_time": "2026-01-01T00:00:00Z",
      "custom_metadata": null,
      "deletion_time": "",
      "destroyed": false,
      "version": 1
    }
  }
}`

func newVault(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/v1/secret/data/rvsync" || r.Header.Get("X-Vault-Token") != "root" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(kvResponse))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestVaultManager_ReadsAndCaches(t *testing.T) {
	srv, hits := newVault(t)

	m, err := NewVaultManager(VaultConfig{Address: srv.URL, Token: "root", SecretsPath: "secret/data/rvsync"}, logger.Nop())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		v, err := m.GetSecret(context.Background(), "jwt_secret")
		require.NoError(t, err)
		assert.Equal(t, "from-vault", v)
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestVaultManager_FallsBackToEnvironment(t *testing.T) {
	srv, _ := newVault(t)
	t.Setenv("DB_PASSWORD", "from-env")

	m, err := NewVaultManager(VaultConfig{Address: srv.URL, Token: "root", SecretsPath: "secret/data/rvsync"}, logger.Nop())
	require.NoError(t, err)

	v, err := m.GetSecret(context.Background(), "db_password")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)

	_, err = m.GetSecret(context.Background(), "missing_everywhere")
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestNewVaultManager_RequiresAddressAndToken(t *testing.T) {
	_, err := NewVaultManager(VaultConfig{Token: "x"}, logger.Nop())
	assert.ErrorIs(t, err, ErrNoVaultAddress)

	_, err = NewVaultManager(VaultConfig{Address: "http://127.0.0.1:8200"}, logger.Nop())
	assert.ErrorIs(t, err, ErrNoVaultToken)
}

func TestNewManager_DisabledUsesEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")

	m, err := NewManager(VaultConfig{Enabled: false}, logger.Nop())
	require.NoError(t, err)

	assert.Equal(t, "env-secret", GetSecretWithDefault(context.Background(), m, "jwt-secret", "fallback", logger.Nop()))
	assert.Equal(t, "fallback", GetSecretWithDefault(context.Background(), m, "nope", "fallback", logger.Nop()))
}

func TestSplitKVPath(t *testing.T) {
	tests := []struct {
		in, mount, path string
	}{
		{"secret/data/rvsync", "secret", "rvsync"},
		{"/kv/data/team/app/", "kv", "team/app"},
		{"secret/rvsync", "secret", "rvsync"},
		{"secret", "secret", ""},
	}
	for _, tt := range tests {
		mount, path := splitKVPath(tt.in)
		assert.Equal(t, tt.mount, mount, tt.in)
		assert.Equal(t, tt.path, path, tt.in)
	}
}
