package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-social-sync/internal/config"
	"github.com/MKhiriev/go-social-sync/internal/logger"
)

// ClientStorages groups the client-side repositories over one local
// database together with the session store.
type ClientStorages struct {
	DB *DB

	Users     UserRepository
	Posts     PostRepository
	Comments  CommentRepository
	Favorites FavoriteRepository
	Drafts    DraftRepository
	Meta      MetaRepository

	Sessions SessionStore
}

// NewClientStorages opens the SQLite database named by cfg.DB.DSN, creating
// the file if needed, applies migrations and wires every repository to it.
func NewClientStorages(ctx context.Context, cfg config.ClientStorage, logger *logger.Logger) (*ClientStorages, error) {
	logger.Info().Msg("creating new storages...")

	db, err := Open(ctx, cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	s := NewClientStoragesFromDB(db, logger)
	s.Sessions = NewFileSessionStore(cfg.SessionPath)
	return s, nil
}

// NewClientStoragesFromDB wires repositories to an already migrated db.
// Sessions are kept in memory.
func NewClientStoragesFromDB(db *DB, logger *logger.Logger) *ClientStorages {
	return &ClientStorages{
		DB:        db,
		Users:     NewLocalUserRepository(db, logger),
		Posts:     NewLocalPostRepository(db, logger),
		Comments:  NewLocalCommentRepository(db, logger),
		Favorites: NewLocalFavoriteRepository(db, logger),
		Drafts:    NewLocalDraftRepository(db, logger),
		Meta:      NewLocalMetaRepository(db, logger),
		Sessions:  NewFileSessionStore(""),
	}
}

// Close closes the database.
func (s *ClientStorages) Close() error {
	return s.DB.Close()
}
