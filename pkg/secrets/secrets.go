package secrets

import (
	"context"
	"errors"
	"os"
	"strings"

	"rvsync/backend/pkg/logger"
)

// Common errors
var (
	ErrSecretNotFound = errors.New("secret not found")
	ErrNoVaultToken   = errors.New("no vault token provided")
	ErrNoVaultAddress = errors.New("no vault address provided")
)

// Manager provides access to secrets from various sources
type Manager interface {
	// GetSecret retrieves a secret by key
	GetSecret(ctx context.Context, key string) (string, error)
}

// NewManager returns a Vault-backed manager when cfg.Enabled, otherwise one
// that reads the environment only.
func NewManager(cfg VaultConfig, log *logger.Logger) (Manager, error) {
	if !cfg.Enabled {
		return EnvManager{}, nil
	}
	return NewVaultManager(cfg, log)
}

// GetSecretWithDefault retrieves a secret, or defaultValue when it cannot be resolved
func GetSecretWithDefault(ctx context.Context, m Manager, key, defaultValue string, log *logger.Logger) string {
	value, err := m.GetSecret(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrSecretNotFound) {
			log.Warn("Failed to get secret, using default value", "key", key, "error", err.Error())
		}
		return defaultValue
	}
	return value
}

// EnvManager resolves secrets from environment variables
type EnvManager struct{}

// GetSecret maps "jwt_secret" or "jwt-secret" to JWT_SECRET
func (EnvManager) GetSecret(_ context.Context, key string) (string, error) {
	value := os.Getenv(envKey(key))
	if value == "" {
		return "", ErrSecretNotFound
	}
	return value, nil
}

func envKey(key string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(key))
}
