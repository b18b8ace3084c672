package store

import (
	"github.com/MKhiriev/go-social-sync/internal/logger"
)

// Storages groups the repositories of the development server.
type Storages struct {
	Accounts AccountRepository
	Feed     FeedRepository
}

// NewMemoryStorages returns storages kept in process memory. Both
// repositories share one state guarded by a single lock.
func NewMemoryStorages(logger *logger.Logger) *Storages {
	logger.Info().Msg("creating in-memory storages...")

	state := newMemoryState()
	return &Storages{
		Accounts: &memoryAccountRepository{state: state, logger: logger},
		Feed:     &memoryFeedRepository{state: state, logger: logger},
	}
}
