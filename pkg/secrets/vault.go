package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rvsync/backend/pkg/cache"
	"rvsync/backend/pkg/logger"

	vault "github.com/hashicorp/vault/api"
)

// VaultConfig holds configuration for Vault client
type VaultConfig struct {
	Address    string
	Token      string
	Namespace  string
	Timeout    time.Duration
	MaxRetries int
	// SecretsPath is the full KV v2 path, e.g. secret/data/rvsync
	SecretsPath string
	Enabled     bool
	Cache       cache.Options
}

// VaultManager reads secrets from one KV v2 entry, falling back to the environment
type VaultManager struct {
	client *vault.Client
	mount  string
	path   string
	cache  *cache.Cache[string]
	env    EnvManager
	log    *logger.Logger
}

// NewVaultManager creates a new Vault manager instance
func NewVaultManager(cfg VaultConfig, log *logger.Logger) (*VaultManager, error) {
	if cfg.Address == "" {
		return nil, ErrNoVaultAddress
	}
	if cfg.Token == "" {
		return nil, ErrNoVaultToken
	}
	if cfg.SecretsPath == "" {
		cfg.SecretsPath = "secret/data/rvsync"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Cache.TTL <= 0 {
		cfg.Cache.TTL = 5 * time.Minute
	}

	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address
	vaultConfig.Timeout = cfg.Timeout
	vaultConfig.MaxRetries = cfg.MaxRetries

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(cfg.Token)
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	mount, path := splitKVPath(cfg.SecretsPath)
	return &VaultManager{
		client: client,
		mount:  mount,
		path:   path,
		cache:  cache.New[string](cfg.Cache),
		log:    log.WithComponent("secrets"),
	}, nil
}

// splitKVPath turns "secret/data/app" into the mount "secret" and the path "app"
func splitKVPath(full string) (mount, path string) {
	full = strings.Trim(full, "/")
	mount, rest, found := strings.Cut(full, "/")
	if !found {
		return mount, ""
	}
	return mount, strings.TrimPrefix(rest, "data/")
}

// GetSecret retrieves a secret from Vault, with fallback to environment variable
func (m *VaultManager) GetSecret(ctx context.Context, key string) (string, error) {
	if value, ok := m.cache.Get(key); ok {
		return value, nil
	}

	value, err := m.getFromVault(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrSecretNotFound) {
			return "", err
		}
		m.log.Warn("Secret not found in Vault, falling back to environment", "key", key)
		if value, err = m.env.GetSecret(ctx, key); err != nil {
			return "", err
		}
	}

	m.cache.Set(key, value)
	return value, nil
}

func (m *VaultManager) getFromVault(ctx context.Context, key string) (string, error) {
	secret, err := m.client.KVv2(m.mount).Get(ctx, m.path)
	if err != nil {
		if errors.Is(err, vault.ErrSecretNotFound) {
			return "", ErrSecretNotFound
		}
		m.log.Error("Failed to read secret from Vault",
			"mount", m.mount,
			"path", m.path,
			"error", err.Error(),
		)
		return "", fmt.Errorf("failed to read secret: %w", err)
	}

	if secret == nil || secret.Data == nil {
		return "", ErrSecretNotFound
	}
	value, ok := secret.Data[key].(string)
	if !ok || value == "" {
		return "", ErrSecretNotFound
	}
	return value, nil
}
