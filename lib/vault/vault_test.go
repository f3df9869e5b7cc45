package vault

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironmentFallback(t *testing.T) {
	t.Setenv("API_KEY_ADMIN", "admin-secret")
	t.Setenv("API_KEY_JWT", "")
	t.Setenv("DATABASE_PASSWORD", "pg")
	t.Setenv("CACHE_PASSWORD", "")

	manager, err := NewVaultManager("")
	require.NoError(t, err)
	assert.True(t, manager.FromEnv())
	assert.True(t, manager.Health())

	key, err := manager.ApiKey(API_KEY_ADMIN)()
	require.NoError(t, err)
	assert.Equal(t, "admin-secret", key)

	_, err = manager.GetApiKey(API_KEY_JWT)
	assert.ErrorIs(t, err, ErrSecretNotFound)

	pwd, err := manager.GetDbPwd()
	require.NoError(t, err)
	assert.Equal(t, "pg", pwd)

	pwd, err = manager.GetCachePwd()
	require.NoError(t, err)
	assert.Empty(t, pwd)
}

func TestVaultSecrets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/api/data/wallet_connector":
			w.Write([]byte(`{"data":{"data":{"value":"connector-key"},"metadata":{"version":1}}}`))
		case "/v1/services/data/db/arena_pwd":
			w.Write([]byte(`{"data":{"data":{"other":"x"}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"errors":[]}`))
		}
	}))
	defer server.Close()

	manager, err := NewVaultManager(server.URL)
	require.NoError(t, err)
	manager.Api.SetToken("test")
	manager.Services.SetToken("test")
	assert.False(t, manager.FromEnv())

	key, err := manager.GetApiKey(API_KEY_WALLET_CONNECTOR)
	require.NoError(t, err)
	assert.Equal(t, "connector-key", key)

	_, err = manager.GetDbPwd()
	assert.ErrorIs(t, err, ErrSecretNotFound)

	_, err = manager.GetCachePwd()
	assert.ErrorIs(t, err, ErrSecretNotFound)
}
