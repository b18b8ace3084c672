// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container shared by the
// client and the development server. It is populated by merging values from
// a .env file, environment variables, command-line flags and an optional
// JSON or YAML file.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env:       direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds token parameters, the integrity hash key and the version.
	App App `envPrefix:"APP_"`

	// Storage holds the local SQLite database and session file settings.
	Storage Storage `envPrefix:"STORAGE_"`

	// Server holds listen address and timeout settings of the dev server.
	Server Server `envPrefix:"SERVER_"`

	// Adapter holds the remote API client settings.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Workers holds background sync and reachability settings.
	Workers Workers `envPrefix:"WORKERS_"`

	// Log holds log output settings.
	Log Log `envPrefix:"LOG_"`

	// ConfigFilePath is the optional path to a JSON or YAML configuration
	// file. Populated via the CONFIG environment variable or the -c / -config
	// flag.
	ConfigFilePath string `env:"CONFIG"`
}

// App holds application-level values.
type App struct {
	// TokenSignKey signs and verifies JWT tokens on the server.
	// Env: APP_TOKEN_SIGN_KEY
	TokenSignKey string `env:"TOKEN_SIGN_KEY"`

	// TokenIssuer is the "iss" claim of issued tokens.
	// Env: APP_TOKEN_ISSUER
	TokenIssuer string `env:"TOKEN_ISSUER"`

	// TokenDuration is the lifetime of an issued token.
	// Env: APP_TOKEN_DURATION
	TokenDuration time.Duration `env:"TOKEN_DURATION"`

	// HashKey is the HMAC key for the HashSHA256 request integrity header.
	// Optional; when empty no header is sent or checked.
	// Env: APP_HASH_KEY
	HashKey string `env:"HASH_KEY"`

	// Version is exposed by the /version endpoint.
	// Env: APP_VERSION
	Version string `env:"VERSION"`
}

// Storage groups local persistence settings.
type Storage struct {
	DB      DB      `envPrefix:"DB_"`
	Session Session `envPrefix:"SESSION_"`
}

// DB holds the local database settings.
type DB struct {
	// DSN is the path of the SQLite database file.
	// Env: STORAGE_DB_DSN
	DSN string `env:"DSN"`
}

// Session holds the session file settings.
type Session struct {
	// Path is the JSON file holding the last session token.
	// Env: STORAGE_SESSION_PATH
	Path string `env:"PATH"`
}

// Server holds settings of the inbound HTTP transport.
type Server struct {
	// HTTPAddress is the listen address in "host:port" format.
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout bounds a single inbound request.
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Adapter holds settings of the outbound remote API client.
type Adapter struct {
	// HTTPAddress is the base URL of the server of record.
	// Env: ADAPTER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout bounds a whole outbound request.
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// ConnectTimeout bounds establishing the TCP connection.
	// Env: ADAPTER_CONNECT_TIMEOUT
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT"`
}

// Workers holds background worker settings.
type Workers struct {
	// SyncInterval is the period of the background sync job.
	// Env: WORKERS_SYNC_INTERVAL
	SyncInterval time.Duration `env:"SYNC_INTERVAL"`

	// ProbeInterval is the period of the reachability probe.
	// Env: WORKERS_PROBE_INTERVAL
	ProbeInterval time.Duration `env:"PROBE_INTERVAL"`

	// RetryBaseDelay is the first backoff delay after a sync run asks for
	// a retry.
	// Env: WORKERS_RETRY_BASE_DELAY
	RetryBaseDelay time.Duration `env:"RETRY_BASE_DELAY"`

	// MaxSyncAttempts is the number of rejected delivery attempts after
	// which a pending row is abandoned.
	// Env: WORKERS_MAX_SYNC_ATTEMPTS
	MaxSyncAttempts int `env:"MAX_SYNC_ATTEMPTS"`
}

// Log holds log output settings.
type Log struct {
	// File is the client log file path.
	// Env: LOG_FILE
	File string `env:"FILE"`
}

// GetStructuredConfig loads and merges configuration from all sources.
// Earlier sources take precedence for non-zero fields:
//  1. Environment variables (after loading .env, if present)
//  2. Command-line flags
//  3. JSON or YAML file (path resolved from sources 1 and 2)
func GetStructuredConfig(flags *Flags) (*StructuredConfig, error) {
	return newConfigBuilder().
		withDotEnv(".env").
		withEnv().
		withFlags(flags).
		withFile().
		build()
}
