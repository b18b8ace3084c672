package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetAddress_String(t *testing.T) {
	tests := []struct {
		name     string
		addr     NetAddress
		expected string
	}{
		{name: "empty address", addr: NetAddress{}, expected: ""},
		{name: "localhost with port", addr: NetAddress{Host: "localhost", Port: 8080}, expected: "localhost:8080"},
		{name: "IP address with port", addr: NetAddress{Host: "127.0.0.1", Port: 9090}, expected: "127.0.0.1:9090"},
		{name: "only port no host", addr: NetAddress{Port: 8080}, expected: ":8080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.addr.String())
		})
	}
}

func TestNetAddress_Set(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    NetAddress
		wantErr bool
	}{
		{name: "localhost", input: "localhost:8080", want: NetAddress{Host: "localhost", Port: 8080}},
		{name: "ip", input: "127.0.0.1:9000", want: NetAddress{Host: "127.0.0.1", Port: 9000}},
		{name: "all interfaces", input: ":8080", want: NetAddress{Port: 8080}},
		{name: "missing port", input: "localhost", wantErr: true},
		{name: "non numeric port", input: "localhost:http", wantErr: true},
		{name: "zero port", input: "localhost:0", wantErr: true},
		{name: "bad host", input: "example.com:80", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a NetAddress
			err := a.Set(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, a)
		})
	}
}

func TestFlags_Parse(t *testing.T) {
	f := NewFlags("test")
	err := f.Parse([]string{
		"-a", "localhost:9999",
		"-server", "http://api.local:8080",
		"-d", "client.db",
		"-session", "s.json",
		"-log-file", "client.log",
		"-config", "cfg.yaml",
		"-token-sign-key", "sign",
		"-token-issuer", "iss",
		"-token-duration", "2h",
		"-request-timeout", "3s",
		"-adapter-timeout", "4s",
		"-connect-timeout", "1s",
		"-hash-key", "hk",
		"-sync-interval", "1m",
		"-probe-interval", "5s",
		"-retry-base-delay", "250ms",
		"-max-sync-attempts", "3",
	})
	require.NoError(t, err)

	cfg := f.config()
	assert.Equal(t, "localhost:9999", cfg.Server.HTTPAddress)
	assert.Equal(t, "http://api.local:8080", cfg.Adapter.HTTPAddress)
	assert.Equal(t, "client.db", cfg.Storage.DB.DSN)
	assert.Equal(t, "s.json", cfg.Storage.Session.Path)
	assert.Equal(t, "client.log", cfg.Log.File)
	assert.Equal(t, "cfg.yaml", cfg.ConfigFilePath)
	assert.Equal(t, "sign", cfg.App.TokenSignKey)
	assert.Equal(t, "iss", cfg.App.TokenIssuer)
	assert.Equal(t, 2*time.Hour, cfg.App.TokenDuration)
	assert.Equal(t, 3*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 4*time.Second, cfg.Adapter.RequestTimeout)
	assert.Equal(t, time.Second, cfg.Adapter.ConnectTimeout)
	assert.Equal(t, "hk", cfg.App.HashKey)
	assert.Equal(t, time.Minute, cfg.Workers.SyncInterval)
	assert.Equal(t, 5*time.Second, cfg.Workers.ProbeInterval)
	assert.Equal(t, 250*time.Millisecond, cfg.Workers.RetryBaseDelay)
	assert.Equal(t, 3, cfg.Workers.MaxSyncAttempts)
}

func TestFlags_ShortAliases(t *testing.T) {
	f := NewFlags("test")
	require.NoError(t, f.Parse([]string{"-s", "http://x", "-c", "cfg.json"}))

	cfg := f.config()
	assert.Equal(t, "http://x", cfg.Adapter.HTTPAddress)
	assert.Equal(t, "cfg.json", cfg.ConfigFilePath)
}

func TestFlags_InvalidAddress(t *testing.T) {
	f := NewFlags("test")
	f.FlagSet().SetOutput(nopWriter{})

	err := f.Parse([]string{"-a", "nohost"})
	assert.Error(t, err)
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
