package vault

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	v "github.com/hashicorp/vault/api"
)

type Vault = v.Client

const (
	API_KEY_WALLET_CONNECTOR = "wallet_connector"
	API_KEY_ADMIN            = "admin"
	API_KEY_JWT              = "jwt"
)

var ErrSecretNotFound = errors.New("secret not found")

// VaultManager reads the secrets of the service. Without a Vault address it reads
// them from the environment instead, which is how local development runs.
type VaultManager struct {
	Api      *Vault
	Services *Vault
}

func NewVaultManager(address string) (VaultManager, error) {
	if address == "" {
		slog.Warn("No Vault address, secrets are read from the environment")
		return VaultManager{}, nil
	}
	config := v.DefaultConfig()
	config.Address = address

	api, err := v.NewClient(config)
	if err != nil {
		return VaultManager{}, fmt.Errorf("failed to create Vault client: %w", err)
	}
	services, err := v.NewClient(config)
	if err != nil {
		return VaultManager{}, fmt.Errorf("failed to create Vault client: %w", err)
	}

	return VaultManager{
		Api:      api,
		Services: services,
	}, nil
}

func (manager *VaultManager) FromEnv() bool {
	return manager.Api == nil || manager.Services == nil
}

func (manager *VaultManager) Health() bool {
	if manager.FromEnv() {
		return true
	}
	api_health, err := manager.Api.Sys().Health()
	if err != nil {
		return false
	}
	services_health, err := manager.Services.Sys().Health()
	if err != nil {
		return false
	}
	return api_health.Initialized && !api_health.Sealed &&
		services_health.Initialized && !services_health.Sealed
}

// readValue reads the "value" field of a KV v2 secret.
func readValue(client *Vault, path string) (string, error) {
	secret, err := client.Logical().Read(path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret from Vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("%w: %s", ErrSecretNotFound, path)
	}
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("invalid secret data format at path: %s", path)
	}
	value, ok := data["value"].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("%w: no value at %s", ErrSecretNotFound, path)
	}
	return value, nil
}

func readEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%w: %s is not set", ErrSecretNotFound, key)
	}
	return value, nil
}

func (manager *VaultManager) GetCachePwd() (string, error) {
	if manager.FromEnv() {
		return os.Getenv("CACHE_PASSWORD"), nil
	}
	return readValue(manager.Services, "services/data/cache/arena_pwd")
}

func (manager *VaultManager) GetDbPwd() (string, error) {
	if manager.FromEnv() {
		return readEnv("DATABASE_PASSWORD")
	}
	return readValue(manager.Services, "services/data/db/arena_pwd")
}

// GetApiKey reads api/data/<name>, or API_KEY_<NAME> from the environment.
func (manager *VaultManager) GetApiKey(name string) (string, error) {
	if manager.FromEnv() {
		return readEnv("API_KEY_" + strings.ToUpper(name))
	}
	return readValue(manager.Api, fmt.Sprintf("api/data/%s", name))
}

// ApiKey binds GetApiKey to a name, for middleware and clients that read the key per request.
func (manager *VaultManager) ApiKey(name string) func() (string, error) {
	return func() (string, error) {
		return manager.GetApiKey(name)
	}
}
