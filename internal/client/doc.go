// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client assembles the offline-first client runtime.
//
// It opens the local database, restores the session and wires the remote
// API adapter, reachability monitor and sync job into one process.
package client
