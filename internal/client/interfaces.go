// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import "context"

// Client defines the lifecycle contract of a runnable client process.
type Client interface {
	// Run blocks until ctx is done or the client fails.
	Run(ctx context.Context) error
	// Close releases resources held by the client.
	Close() error
}

var _ Client = (*App)(nil)
