package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestParseFile_JSON(t *testing.T) {
	p := writeConfigFile(t, "config.json", `{
		"app": {"token_sign_key": "jwt_secret", "token_duration": "1h", "hash_key": "hk"},
		"adapter": {"http_address": "http://localhost:8080", "request_timeout": "15s", "connect_timeout": 2000000000},
		"storage": {"db": {"dsn": "client.db"}, "session": {"path": "session.json"}},
		"workers": {"sync_interval": "5m", "max_sync_attempts": 4},
		"log": {"file": "client.log"}
	}`)

	cfg, err := parseFile(p)
	require.NoError(t, err)

	assert.Equal(t, "jwt_secret", cfg.App.TokenSignKey)
	assert.Equal(t, time.Hour, cfg.App.TokenDuration)
	assert.Equal(t, "hk", cfg.App.HashKey)
	assert.Equal(t, "http://localhost:8080", cfg.Adapter.HTTPAddress)
	assert.Equal(t, 15*time.Second, cfg.Adapter.RequestTimeout)
	assert.Equal(t, 2*time.Second, cfg.Adapter.ConnectTimeout)
	assert.Equal(t, "client.db", cfg.Storage.DB.DSN)
	assert.Equal(t, "session.json", cfg.Storage.Session.Path)
	assert.Equal(t, 5*time.Minute, cfg.Workers.SyncInterval)
	assert.Equal(t, 4, cfg.Workers.MaxSyncAttempts)
	assert.Equal(t, "client.log", cfg.Log.File)
	assert.Empty(t, cfg.ConfigFilePath)
}

func TestParseFile_YAML(t *testing.T) {
	p := writeConfigFile(t, "config.yaml", `
server:
  http_address: ":8080"
  request_timeout: 45s
app:
  token_sign_key: sign
  token_issuer: social
  token_duration: 30m
workers:
  probe_interval: 1000000000
`)

	cfg, err := parseFile(p)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.HTTPAddress)
	assert.Equal(t, 45*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "sign", cfg.App.TokenSignKey)
	assert.Equal(t, "social", cfg.App.TokenIssuer)
	assert.Equal(t, 30*time.Minute, cfg.App.TokenDuration)
	assert.Equal(t, time.Second, cfg.Workers.ProbeInterval)
}

func TestParseFile_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := parseFile(filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error reading a config file")
	})

	t.Run("broken json", func(t *testing.T) {
		_, err := parseFile(writeConfigFile(t, "c.json", `{"app": `))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error decoding json configs")
	})

	t.Run("broken yaml duration", func(t *testing.T) {
		_, err := parseFile(writeConfigFile(t, "c.yml", "app:\n  token_duration: forever\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error decoding yaml configs")
	})
}
