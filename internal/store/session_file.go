package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/MKhiriev/go-social-sync/models"
)

// FileSessionStore keeps the session as a JSON document next to the local
// database. An empty path or ":memory:" keeps it in memory only.
type FileSessionStore struct {
	path     string
	inMemory bool

	mu      sync.RWMutex
	session *models.Session
}

// NewFileSessionStore constructs a [FileSessionStore] for path.
func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{
		path:     path,
		inMemory: path == "" || path == ":memory:",
	}
}

// Load returns the persisted session or [ErrLocalSessionNotFound].
func (s *FileSessionStore) Load() (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil && !s.inMemory {
		data, err := os.ReadFile(s.path)
		if os.IsNotExist(err) {
			return models.Session{}, ErrLocalSessionNotFound
		}
		if err != nil {
			return models.Session{}, fmt.Errorf("read session file: %w", err)
		}

		var ls models.Session
		if err = json.Unmarshal(data, &ls); err != nil {
			return models.Session{}, fmt.Errorf("decode session file: %w", err)
		}
		s.session = &ls
	}

	if s.session == nil || s.session.Token == "" {
		return models.Session{}, ErrLocalSessionNotFound
	}

	return *s.session, nil
}

// Save persists sess, replacing any previous session.
func (s *FileSessionStore) Save(sess models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ls := &sess
	if err := s.persist(ls); err != nil {
		return err
	}
	s.session = ls
	return nil
}

// Clear removes the persisted session. Clearing an absent session is not an
// error.
func (s *FileSessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = nil
	if s.inMemory {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func (s *FileSessionStore) persist(ls *models.Session) error {
	if s.inMemory {
		return nil
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create session dir: %w", err)
		}
	}

	payload, err := json.MarshalIndent(ls, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err = os.WriteFile(s.path, payload, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}
