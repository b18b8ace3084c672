// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

// validate checks invariants shared by every view of the merged config.
func (cfg *StructuredConfig) validate() error {
	if cfg.Workers.MaxSyncAttempts < 0 {
		return ErrInvalidWorkerConfigs
	}
	if cfg.Workers.SyncInterval < 0 || cfg.Workers.ProbeInterval < 0 || cfg.Workers.RetryBaseDelay < 0 {
		return ErrInvalidWorkerConfigs
	}
	if cfg.Adapter.RequestTimeout < 0 || cfg.Adapter.ConnectTimeout < 0 {
		return ErrInvalidAdapterConfigs
	}
	if cfg.Server.RequestTimeout < 0 {
		return ErrInvalidServerConfigs
	}

	return nil
}

func (cfg *ClientConfig) validate() error {
	if cfg.Storage.DB.DSN == "" || cfg.Storage.SessionPath == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.HTTPAddress == "" || cfg.Adapter.RequestTimeout <= 0 {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Workers.SyncInterval <= 0 || cfg.Workers.ProbeInterval <= 0 || cfg.Workers.MaxSyncAttempts <= 0 {
		return ErrInvalidWorkerConfigs
	}

	return nil
}

func (cfg *ServerConfig) validate() error {
	if cfg.HTTPAddress == "" || cfg.RequestTimeout <= 0 {
		return ErrInvalidServerConfigs
	}

	if cfg.TokenSignKey == "" || cfg.TokenIssuer == "" || cfg.TokenDuration <= 0 {
		return ErrInvalidAppConfigs
	}

	return nil
}
