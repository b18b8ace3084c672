package config

import (
	"fmt"
	"time"
)

// Defaults applied to zero-valued settings after merging.
const (
	DefaultDSN             = "social.db"
	DefaultSessionPath     = "session.json"
	DefaultSyncInterval    = 15 * time.Minute
	DefaultProbeInterval   = 30 * time.Second
	DefaultRetryBaseDelay  = 2 * time.Second
	DefaultMaxSyncAttempts = 5
	DefaultRequestTimeout  = 30 * time.Second
	DefaultConnectTimeout  = 10 * time.Second
	DefaultServerAddress   = "localhost:8080"
	DefaultTokenIssuer     = "go-social-sync"
	DefaultTokenDuration   = 24 * time.Hour
)

// ClientApp holds client-side application settings.
type ClientApp struct {
	// HashKey is the HMAC key for request integrity headers. Optional.
	HashKey string
}

// ClientAdapter holds settings of the remote API client.
type ClientAdapter struct {
	HTTPAddress    string
	RequestTimeout time.Duration
	ConnectTimeout time.Duration
}

// ClientDB contains local database settings.
type ClientDB struct {
	// DSN is the SQLite database file path.
	DSN string
}

// ClientStorage groups client storage settings.
type ClientStorage struct {
	DB          ClientDB
	SessionPath string
}

// ClientWorkers contains background worker settings.
type ClientWorkers struct {
	SyncInterval    time.Duration
	ProbeInterval   time.Duration
	RetryBaseDelay  time.Duration
	MaxSyncAttempts int
}

// ClientConfig is the client configuration view of [StructuredConfig].
type ClientConfig struct {
	App     ClientApp
	Adapter ClientAdapter
	Storage ClientStorage
	Workers ClientWorkers
	LogFile string
}

// GetClientConfig builds, defaults and validates the client view of the
// merged structured configuration.
func GetClientConfig(flags *Flags) (*ClientConfig, error) {
	cfg, err := GetStructuredConfig(flags)
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := NewClientConfig(cfg)
	return clientCfg, clientCfg.validate()
}

// NewClientConfig maps the client-relevant fields of cfg and fills defaults.
func NewClientConfig(cfg *StructuredConfig) *ClientConfig {
	c := &ClientConfig{
		App: ClientApp{HashKey: cfg.App.HashKey},
		Adapter: ClientAdapter{
			HTTPAddress:    cfg.Adapter.HTTPAddress,
			RequestTimeout: orDuration(cfg.Adapter.RequestTimeout, DefaultRequestTimeout),
			ConnectTimeout: orDuration(cfg.Adapter.ConnectTimeout, DefaultConnectTimeout),
		},
		Storage: ClientStorage{
			DB:          ClientDB{DSN: orString(cfg.Storage.DB.DSN, DefaultDSN)},
			SessionPath: orString(cfg.Storage.Session.Path, DefaultSessionPath),
		},
		Workers: ClientWorkers{
			SyncInterval:    orDuration(cfg.Workers.SyncInterval, DefaultSyncInterval),
			ProbeInterval:   orDuration(cfg.Workers.ProbeInterval, DefaultProbeInterval),
			RetryBaseDelay:  orDuration(cfg.Workers.RetryBaseDelay, DefaultRetryBaseDelay),
			MaxSyncAttempts: cfg.Workers.MaxSyncAttempts,
		},
		LogFile: cfg.Log.File,
	}
	if c.Workers.MaxSyncAttempts == 0 {
		c.Workers.MaxSyncAttempts = DefaultMaxSyncAttempts
	}

	return c
}

// ServerConfig is the development server view of [StructuredConfig].
type ServerConfig struct {
	HTTPAddress    string
	RequestTimeout time.Duration
	TokenSignKey   string
	TokenIssuer    string
	TokenDuration  time.Duration
	HashKey        string
	Version        string
}

// GetServerConfig builds, defaults and validates the server view of the
// merged structured configuration.
func GetServerConfig(flags *Flags) (*ServerConfig, error) {
	cfg, err := GetStructuredConfig(flags)
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	serverCfg := NewServerConfig(cfg)
	return serverCfg, serverCfg.validate()
}

// NewServerConfig maps the server-relevant fields of cfg and fills defaults.
func NewServerConfig(cfg *StructuredConfig) *ServerConfig {
	return &ServerConfig{
		HTTPAddress:    orString(cfg.Server.HTTPAddress, DefaultServerAddress),
		RequestTimeout: orDuration(cfg.Server.RequestTimeout, DefaultRequestTimeout),
		TokenSignKey:   cfg.App.TokenSignKey,
		TokenIssuer:    orString(cfg.App.TokenIssuer, DefaultTokenIssuer),
		TokenDuration:  orDuration(cfg.App.TokenDuration, DefaultTokenDuration),
		HashKey:        cfg.App.HashKey,
		Version:        cfg.App.Version,
	}
}

func orString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orDuration(v, def time.Duration) time.Duration {
	if v == 0 {
		return def
	}
	return v
}
