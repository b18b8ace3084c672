// Package network tells the sync core whether the server of record is
// reachable.
package network

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MKhiriev/go-social-sync/internal/logger"
)

// Monitor reports connectivity to the server of record.
type Monitor interface {
	IsOnline() bool
}

// Pinger performs a cheap round trip to the server.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProbeMonitor decides reachability by pinging the server on an interval.
// It starts offline until the first successful probe.
type ProbeMonitor struct {
	pinger   Pinger
	interval time.Duration
	logger   *logger.Logger

	online atomic.Bool

	mu        sync.Mutex
	listeners []func(online bool)
}

// NewProbeMonitor constructs a [ProbeMonitor].
func NewProbeMonitor(pinger Pinger, interval time.Duration, logger *logger.Logger) *ProbeMonitor {
	return &ProbeMonitor{pinger: pinger, interval: interval, logger: logger}
}

// IsOnline implements [Monitor].
func (m *ProbeMonitor) IsOnline() bool {
	return m.online.Load()
}

// OnChange registers fn to be called on every online/offline transition.
// Listeners run synchronously on the probing goroutine.
func (m *ProbeMonitor) OnChange(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listeners = append(m.listeners, fn)
}

// Probe pings once and updates the state.
func (m *ProbeMonitor) Probe(ctx context.Context) bool {
	err := m.pinger.Ping(ctx)
	if err != nil {
		m.logger.Debug().Err(err).Str("func", "ProbeMonitor.Probe").Msg("server unreachable")
	}
	m.Set(err == nil)
	return err == nil
}

// Set forces the state, notifying listeners if it changed.
func (m *ProbeMonitor) Set(online bool) {
	if m.online.Swap(online) == online {
		return
	}

	m.logger.Info().Bool("online", online).Msg("connectivity changed")

	m.mu.Lock()
	listeners := append([]func(bool){}, m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(online)
	}
}

// Run probes immediately and then every interval until ctx ends.
func (m *ProbeMonitor) Run(ctx context.Context) {
	m.Probe(ctx)

	t := time.NewTicker(m.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Probe(ctx)
		}
	}
}

// Static is a [Monitor] with a manually set state.
type Static struct {
	online atomic.Bool
}

// NewStatic returns a [Static] monitor in the given state.
func NewStatic(online bool) *Static {
	s := &Static{}
	s.online.Store(online)
	return s
}

// IsOnline implements [Monitor].
func (s *Static) IsOnline() bool {
	return s.online.Load()
}

// Set changes the state.
func (s *Static) Set(online bool) {
	s.online.Store(online)
}
