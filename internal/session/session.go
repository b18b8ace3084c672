// Package session holds the authenticated identity of the client as an
// explicit object injected into services. Reads are synchronous so the
// HTTP adapter can sign requests without blocking, and changes are
// published to subscribers.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/internal/store"
	"github.com/MKhiriev/go-social-sync/internal/utils"
	"github.com/MKhiriev/go-social-sync/models"
)

var (
	// ErrNoSession is returned by Restore when nothing was persisted.
	ErrNoSession = errors.New("no session")
	// ErrSessionExpired is returned by Restore when the persisted token has
	// expired. The stale session is cleared.
	ErrSessionExpired = errors.New("session expired")
)

// Persister is the read/write contract of session storage.
type Persister interface {
	Load() (models.Session, error)
	Save(s models.Session) error
	Clear() error
}

// Session is the current identity. The zero session means logged out.
type Session struct {
	persister Persister
	logger    *logger.Logger
	now       func() time.Time

	mu      sync.RWMutex
	current models.Session
	nextID  uint64
	subs    map[uint64]chan models.Session
}

// New constructs a logged-out [Session] backed by persister.
func New(persister Persister, logger *logger.Logger) *Session {
	return &Session{
		persister: persister,
		logger:    logger,
		now:       time.Now,
		subs:      make(map[uint64]chan models.Session),
	}
}

// Restore loads the persisted session and makes it current.
func (s *Session) Restore() (models.Session, error) {
	sess, err := s.persister.Load()
	if errors.Is(err, store.ErrLocalSessionNotFound) {
		return models.Session{}, ErrNoSession
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("load session: %w", err)
	}

	if exp, ok := expiresAt(sess.Token); ok && !exp.After(s.now()) {
		s.logger.Info().Str("user_id", sess.UserID).Time("expired_at", exp).Msg("persisted session expired")
		if err = s.Clear(); err != nil {
			return models.Session{}, err
		}
		return models.Session{}, ErrSessionExpired
	}

	s.publish(sess)
	return sess, nil
}

// Set persists sess and makes it current.
func (s *Session) Set(sess models.Session) error {
	if sess.At.IsZero() {
		sess.At = s.now().UTC()
	}
	if err := s.persister.Save(sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	s.publish(sess)
	return nil
}

// Clear forgets the current session.
func (s *Session) Clear() error {
	if err := s.persister.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	s.publish(models.Session{})
	return nil
}

// Current returns the current session.
func (s *Session) Current() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current
}

// Token returns the bearer token of the current session, or "".
func (s *Session) Token() string {
	return s.Current().Token
}

// UserID returns the id of the logged in user, or "".
func (s *Session) UserID() string {
	return s.Current().UserID
}

// IsAuthenticated reports whether a user is logged in.
func (s *Session) IsAuthenticated() bool {
	return s.Current().Token != ""
}

// ExpiresAt returns the expiry of the current token, if it carries one.
func (s *Session) ExpiresAt() (time.Time, bool) {
	return expiresAt(s.Token())
}

// Subscribe returns a channel that immediately holds the current session and
// then the latest session after every change. Intermediate values may be
// skipped if the reader is slow. The channel is closed when ctx ends.
func (s *Session) Subscribe(ctx context.Context) <-chan models.Session {
	ch := make(chan models.Session, 1)

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs[id] = ch
	ch <- s.current
	s.mu.Unlock()

	go func() {
		<-ctx.Done()

		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

func (s *Session) publish(sess models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = sess
	for _, ch := range s.subs {
		// keep only the latest value
		select {
		case <-ch:
		default:
		}
		ch <- sess
	}
}

func expiresAt(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims, err := utils.ParseUnverifiedClaims(token)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
