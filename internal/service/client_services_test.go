package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-social-sync/internal/config"
	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/internal/mock"
	"github.com/MKhiriev/go-social-sync/internal/network"
	"github.com/MKhiriev/go-social-sync/internal/session"
	"github.com/MKhiriev/go-social-sync/internal/store"
	"github.com/MKhiriev/go-social-sync/models"
)

// clientHarness собирает клиентские сервисы поверх настоящей SQLite базы
// во временной директории и мока удалённого API.
type clientHarness struct {
	ctx      context.Context
	storages *store.ClientStorages
	adapter  *mock.MockServerAdapter
	session  *session.Session
	monitor  *network.Static
	svcs     *ClientServices

	posts    *clientPostService
	comments *clientCommentService
	drafts   *clientDraftService
	sync     *clientSyncService
}

var testWorkers = config.ClientWorkers{
	SyncInterval:    time.Hour,
	ProbeInterval:   time.Hour,
	RetryBaseDelay:  time.Millisecond,
	MaxSyncAttempts: 2,
}

func newClientHarness(t *testing.T, online bool) *clientHarness {
	t.Helper()

	l := zerolog.Nop()
	ctx := l.WithContext(context.Background())

	dir := t.TempDir()
	storages, err := store.NewClientStorages(ctx, config.ClientStorage{
		DB:          config.ClientDB{DSN: filepath.Join(dir, "client.db")},
		SessionPath: filepath.Join(dir, "session.json"),
	}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { storages.Close() })

	ctrl := gomock.NewController(t)
	h := &clientHarness{
		ctx:      ctx,
		storages: storages,
		adapter:  mock.NewMockServerAdapter(ctrl),
		session:  session.New(storages.Sessions, logger.Nop()),
		monitor:  network.NewStatic(online),
	}
	h.svcs = NewClientServices(storages, h.adapter, h.session, h.monitor, testWorkers, logger.Nop())
	h.posts = h.svcs.PostService.(*clientPostService)
	h.comments = h.svcs.CommentService.(*clientCommentService)
	h.drafts = h.svcs.DraftService.(*clientDraftService)
	h.sync = h.svcs.SyncService.(*clientSyncService)
	t.Cleanup(h.comments.Stop)

	return h
}

// login делает пользователя текущим без обращения к серверу.
func (h *clientHarness) login(t *testing.T, u models.User) {
	t.Helper()
	require.NoError(t, h.storages.Users.Upsert(h.ctx, u))
	require.NoError(t, h.storages.Meta.Set(h.ctx, metaAccountID, u.ID))
	require.NoError(t, h.session.Set(models.Session{UserID: u.ID, Token: "tok-" + u.ID}))
}

var (
	alice = models.User{ID: "u-alice", Email: "alice@example.com", FirstName: "Alice", Alias: "alice"}
	bob   = models.User{ID: "u-bob", Email: "bob@example.com", FirstName: "Bob", Alias: "bob"}
	carol = models.User{ID: "u-carol", Email: "carol@example.com", FirstName: "Carol", Alias: "carol"}
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func remotePost(id string, author models.User, title string) models.RemotePost {
	return models.RemotePost{
		ID:          id,
		Author:      author,
		Title:       title,
		Description: title + " body",
		Images:      []string{},
		CreatedAt:   t0,
		UpdatedAt:   t0,
	}
}

func remoteComment(id, postID string, author models.User, body string) models.RemoteComment {
	return models.RemoteComment{ID: id, PostID: postID, Author: author, Body: body, CreatedAt: t0, UpdatedAt: t0}
}

func strPtr(s string) *string { return &s }

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for emission")
	}
	var zero T
	return zero
}

func assertSilent[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected emission: %v", v)
	case <-time.After(100 * time.Millisecond):
	}
}
