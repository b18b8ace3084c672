package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/internal/store"
	"github.com/MKhiriev/go-social-sync/internal/utils"
	"github.com/MKhiriev/go-social-sync/models"
)

type failingPersister struct{ err error }

func (f failingPersister) Load() (models.Session, error) { return models.Session{}, f.err }
func (f failingPersister) Save(models.Session) error     { return f.err }
func (f failingPersister) Clear() error                  { return f.err }

func token(t *testing.T, userID string, d time.Duration) string {
	t.Helper()
	tok, err := utils.GenerateJWTToken("test", userID, d, "key")
	require.NoError(t, err)
	return tok.SignedString
}

func TestSession_SetCurrentClear(t *testing.T) {
	s := New(store.NewFileSessionStore(""), logger.Nop())
	assert.False(t, s.IsAuthenticated())

	tok := token(t, "u1", time.Hour)
	require.NoError(t, s.Set(models.Session{UserID: "u1", Token: tok}))

	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "u1", s.UserID())
	assert.Equal(t, tok, s.Token())
	assert.False(t, s.Current().At.IsZero())

	exp, ok := s.ExpiresAt()
	require.True(t, ok)
	assert.True(t, exp.After(time.Now()))

	require.NoError(t, s.Clear())
	assert.True(t, s.Current().IsZero())
}

func TestSession_Restore(t *testing.T) {
	persister := store.NewFileSessionStore(t.TempDir() + "/session.json")

	_, err := New(persister, logger.Nop()).Restore()
	assert.ErrorIs(t, err, ErrNoSession)

	tok := token(t, "u1", time.Hour)
	require.NoError(t, New(persister, logger.Nop()).Set(models.Session{UserID: "u1", Token: tok}))

	restored := New(persister, logger.Nop())
	sess, err := restored.Restore()
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.UserID)
	assert.Equal(t, tok, restored.Token())
}

func TestSession_RestoreExpired(t *testing.T) {
	persister := store.NewFileSessionStore("")
	require.NoError(t, persister.Save(models.Session{UserID: "u1", Token: token(t, "u1", -time.Minute)}))

	s := New(persister, logger.Nop())
	_, err := s.Restore()
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.False(t, s.IsAuthenticated())

	_, err = persister.Load()
	assert.ErrorIs(t, err, store.ErrLocalSessionNotFound)
}

func TestSession_PersisterErrors(t *testing.T) {
	boom := errors.New("disk")
	s := New(failingPersister{err: boom}, logger.Nop())

	assert.ErrorIs(t, s.Set(models.Session{UserID: "u", Token: "t"}), boom)
	assert.False(t, s.IsAuthenticated(), "failed save must not change the session")

	_, err := s.Restore()
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, s.Clear(), boom)
}

func TestSession_SubscribeLatestWins(t *testing.T) {
	s := New(store.NewFileSessionStore(""), logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	ch := s.Subscribe(ctx)
	assert.True(t, (<-ch).IsZero())

	require.NoError(t, s.Set(models.Session{UserID: "a", Token: "t1"}))
	require.NoError(t, s.Set(models.Session{UserID: "b", Token: "t2"}))

	// промежуточное значение может быть пропущено
	assert.Equal(t, "b", (<-ch).UserID)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}
