package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-social-sync/internal/adapter"
	"github.com/MKhiriev/go-social-sync/internal/app"
	"github.com/MKhiriev/go-social-sync/internal/store"
	"github.com/MKhiriev/go-social-sync/models"
)

// ── Create ───────────────────────────────────────────────────────────────────

func TestClientPostService_Create_Offline(t *testing.T) {
	h := newClientHarness(t, false)
	h.login(t, alice)

	// офлайн: адаптер не вызывается, строка сохраняется локально
	p, err := h.posts.Create(h.ctx, models.PostInput{Title: "  Hello ", Description: "world", Images: []string{"a.png"}})
	require.NoError(t, err)

	assert.NotZero(t, p.LocalID)
	assert.Nil(t, p.ServerID)
	assert.False(t, p.Synced)
	assert.Equal(t, "Hello", p.Title)
	assert.Equal(t, models.Images{"a.png"}, p.Images)
	assert.Equal(t, alice.ID, p.OwnerID)
	assert.Equal(t, int64(1), p.LocalRev)
}

func TestClientPostService_Create_OnlineAcknowledged(t *testing.T) {
	h := newClientHarness(t, true)
	h.login(t, alice)

	h.adapter.EXPECT().CreatePost(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, in models.PostInput) (models.RemotePost, error) {
			require.NotNil(t, in.LocalID, "local id передаётся для дедупликации")
			assert.Equal(t, "Hello", in.Title)
			assert.NotNil(t, in.Images)

			rp := remotePost("srv-1", alice, in.Title)
			rp.Description = in.Description
			return rp, nil
		})

	p, err := h.posts.Create(h.ctx, models.PostInput{Title: "Hello", Description: "world"})
	require.NoError(t, err)

	assert.True(t, p.Synced)
	require.NotNil(t, p.ServerID)
	assert.Equal(t, "srv-1", *p.ServerID)
	assert.Equal(t, "world", p.Description)
}

func TestClientPostService_Create_RemoteFailureIsSwallowed(t *testing.T) {
	tests := []struct {
		name         string
		remoteErr    error
		wantAttempts int
	}{
		{
			name:         "transport failure is deferred",
			remoteErr:    fmt.Errorf("%w: create post request: connection refused", adapter.ErrTransport),
			wantAttempts: 0,
		},
		{
			name:         "validation failure counts an attempt",
			remoteErr:    fmt.Errorf("create post: %w", fmt.Errorf("%w: %s", adapter.ErrBadRequest, app.MsgTitleRequired)),
			wantAttempts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newClientHarness(t, true)
			h.login(t, alice)

			h.adapter.EXPECT().CreatePost(gomock.Any(), gomock.Any()).Return(models.RemotePost{}, tt.remoteErr)

			p, err := h.posts.Create(h.ctx, models.PostInput{Title: "Hello"})
			require.NoError(t, err, "локальная запись удалась, ошибка сервера не возвращается")

			assert.False(t, p.Synced)
			assert.Nil(t, p.ServerID)
			assert.Equal(t, tt.wantAttempts, p.SyncAttempts)
		})
	}
}

func TestClientPostService_Create_NotAuthenticated(t *testing.T) {
	h := newClientHarness(t, false)

	_, err := h.posts.Create(h.ctx, models.PostInput{Title: "Hello"})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

// ── Update / Delete ──────────────────────────────────────────────────────────

func TestClientPostService_Update_BumpsRevisionAndPushesWithPut(t *testing.T) {
	h := newClientHarness(t, false)
	h.login(t, alice)

	p, err := h.posts.Create(h.ctx, models.PostInput{Title: "v1"})
	require.NoError(t, err)
	_, err = h.storages.Posts.ApplyAck(h.ctx, p.LocalID, "srv-1", p.LocalRev)
	require.NoError(t, err)

	h.monitor.Set(true)
	h.adapter.EXPECT().UpdatePost(gomock.Any(), "srv-1", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, in models.PostInput) (models.RemotePost, error) {
			assert.Nil(t, in.LocalID)
			return remotePost("srv-1", alice, in.Title), nil
		})

	updated, err := h.posts.Update(h.ctx, p.LocalID, models.PostInput{Title: "v2"})
	require.NoError(t, err)

	assert.Equal(t, "v2", updated.Title)
	assert.True(t, updated.Synced)
	assert.Equal(t, int64(2), updated.LocalRev)
}

func TestClientPostService_Update_NotOwner(t *testing.T) {
	h := newClientHarness(t, false)
	h.login(t, alice)
	require.NoError(t, h.storages.Users.Upsert(h.ctx, bob))

	id, err := h.storages.Posts.Insert(h.ctx, models.Post{OwnerID: bob.ID, Title: "bob's", ServerID: strPtr("srv-b"), Synced: true})
	require.NoError(t, err)

	_, err = h.posts.Update(h.ctx, id, models.PostInput{Title: "mine now"})
	assert.ErrorIs(t, err, ErrNotOwner)

	assert.ErrorIs(t, h.posts.Delete(h.ctx, id), ErrNotOwner)
}

func TestClientPostService_Delete_CascadesAndTombstones(t *testing.T) {
	h := newClientHarness(t, false)
	h.login(t, alice)

	p, err := h.posts.Create(h.ctx, models.PostInput{Title: "doomed"})
	require.NoError(t, err)
	_, err = h.storages.Posts.ApplyAck(h.ctx, p.LocalID, "srv-1", p.LocalRev)
	require.NoError(t, err)

	c, err := h.comments.Add(h.ctx, p.LocalID, "top")
	require.NoError(t, err)
	_, err = h.comments.Reply(h.ctx, c.LocalID, "reply")
	require.NoError(t, err)
	require.NoError(t, h.storages.Favorites.Set(h.ctx, alice.ID, p.LocalID, true))

	require.NoError(t, h.posts.Delete(h.ctx, p.LocalID))

	_, err = h.storages.Posts.GetByID(h.ctx, p.LocalID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	threads, err := h.comments.List(h.ctx, p.LocalID)
	require.NoError(t, err)
	assert.Empty(t, threads, "комментарии удаляются каскадно")

	fav, err := h.storages.Favorites.IsFavorite(h.ctx, alice.ID, p.LocalID)
	require.NoError(t, err)
	assert.False(t, fav)

	tombstones, err := h.storages.Posts.ListTombstones(h.ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"srv-1"}, tombstones)
}

func TestClientPostService_Delete_OnlineRemovesTombstone(t *testing.T) {
	h := newClientHarness(t, true)
	h.login(t, alice)

	id, err := h.storages.Posts.Insert(h.ctx, models.Post{OwnerID: alice.ID, Title: "x", ServerID: strPtr("srv-1"), Synced: true})
	require.NoError(t, err)

	h.adapter.EXPECT().DeletePost(gomock.Any(), "srv-1").Return(nil)

	require.NoError(t, h.posts.Delete(h.ctx, id))

	tombstones, err := h.storages.Posts.ListTombstones(h.ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, tombstones)
}

func TestClientPostService_Delete_UnsyncedNeedsNoRemoteCall(t *testing.T) {
	h := newClientHarness(t, false)
	h.login(t, alice)

	p, err := h.posts.Create(h.ctx, models.PostInput{Title: "local only"})
	require.NoError(t, err)

	h.monitor.Set(true)
	require.NoError(t, h.posts.Delete(h.ctx, p.LocalID))

	tombstones, err := h.storages.Posts.ListTombstones(h.ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, tombstones)
}

// ── Vote / Favorite ──────────────────────────────────────────────────────────

func TestClientPostService_Vote(t *testing.T) {
	h := newClientHarness(t, false)
	h.login(t, alice)

	unsynced, err := h.posts.Create(h.ctx, models.PostInput{Title: "fresh"})
	require.NoError(t, err)

	_, err = h.posts.Vote(h.ctx, unsynced.LocalID, models.VoteLike)
	assert.ErrorIs(t, err, ErrNotSynced, "голосовать за несинхронизированный пост нельзя")

	_, err = h.posts.Vote(h.ctx, unsynced.LocalID, models.VoteKind("meh"))
	assert.ErrorIs(t, err, ErrValidation)

	synced, err := h.storages.Posts.Insert(h.ctx, models.Post{OwnerID: alice.ID, Title: "s", ServerID: strPtr("srv-1"), Synced: true, Likes: 3})
	require.NoError(t, err)

	// офлайн: голос применяется оптимистично и ждёт синхронизации
	p, err := h.posts.Vote(h.ctx, synced, models.VoteLike)
	require.NoError(t, err)
	assert.Equal(t, models.VoteLike, p.PendingVote)
	assert.Equal(t, int64(4), p.Likes)

	// онлайн: сервер возвращает авторитетные счётчики
	h.monitor.Set(true)
	h.adapter.EXPECT().Vote(gomock.Any(), "srv-1", models.VoteDislike).Return(models.VoteResponse{Likes: 10, Dislikes: 2}, nil)

	p, err = h.posts.Vote(h.ctx, synced, models.VoteDislike)
	require.NoError(t, err)
	assert.Equal(t, models.VoteNone, p.PendingVote)
	assert.Equal(t, models.VoteDislike, p.MyVote)
	assert.Equal(t, int64(10), p.Likes)
	assert.Equal(t, int64(2), p.Dislikes)
}

func TestClientPostService_SetFavorite(t *testing.T) {
	h := newClientHarness(t, false)
	h.login(t, alice)

	unsynced, err := h.posts.Create(h.ctx, models.PostInput{Title: "fresh"})
	require.NoError(t, err)
	assert.ErrorIs(t, h.posts.SetFavorite(h.ctx, unsynced.LocalID, true), ErrNotSynced)

	synced, err := h.storages.Posts.Insert(h.ctx, models.Post{OwnerID: alice.ID, Title: "s", ServerID: strPtr("srv-1"), Synced: true})
	require.NoError(t, err)

	require.NoError(t, h.posts.SetFavorite(h.ctx, synced, true))

	v, err := h.posts.Get(h.ctx, synced)
	require.NoError(t, err)
	assert.True(t, v.IsFavorite)

	pending, err := h.storages.Favorites.ListPending(h.ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "srv-1", pending[0].PostServerID)

	h.monitor.Set(true)
	h.adapter.EXPECT().SetFavorite(gomock.Any(), "srv-1", false).Return(nil)

	require.NoError(t, h.posts.SetFavorite(h.ctx, synced, false))

	pending, err = h.storages.Favorites.ListPending(h.ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	v, err = h.posts.Get(h.ctx, synced)
	require.NoError(t, err)
	assert.False(t, v.IsFavorite)
}

func TestClientPostService_SetFavorite_EmitsOnce(t *testing.T) {
	h := newClientHarness(t, true)
	h.login(t, alice)

	first, err := h.storages.Posts.Insert(h.ctx, models.Post{OwnerID: alice.ID, Title: "a", ServerID: strPtr("srv-1"), Synced: true})
	require.NoError(t, err)
	_, err = h.storages.Posts.Insert(h.ctx, models.Post{OwnerID: alice.ID, Title: "b", ServerID: strPtr("srv-2"), Synced: true})
	require.NoError(t, err)

	sub, err := h.posts.Observe(h.ctx, models.PostQuery{})
	require.NoError(t, err)
	defer sub.Close()

	favorites := func(views []models.PostView) map[int64]bool {
		out := make(map[int64]bool, len(views))
		for _, v := range views {
			out[v.LocalID] = v.IsFavorite
		}
		return out
	}
	before := favorites(receive(t, sub.Updates()))
	require.Len(t, before, 2)

	// онлайн: запись избранного и отметка о синхронизации дают одно событие
	h.adapter.EXPECT().SetFavorite(gomock.Any(), "srv-1", true).Return(nil)
	require.NoError(t, h.posts.SetFavorite(h.ctx, first, true))

	after := favorites(receive(t, sub.Updates()))
	for id, fav := range before {
		if id == first {
			assert.True(t, after[id])
			continue
		}
		assert.Equal(t, fav, after[id], "остальные посты не меняются")
	}
	assertSilent(t, sub.Updates())

	pending, err := h.storages.Favorites.ListPending(h.ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// офлайн: тоже ровно одно событие
	h.monitor.Set(false)
	require.NoError(t, h.posts.SetFavorite(h.ctx, first, false))

	offline := favorites(receive(t, sub.Updates()))
	assert.False(t, offline[first])
	assert.Equal(t, before, offline)
	assertSilent(t, sub.Updates())
}

// ── Refresh ──────────────────────────────────────────────────────────────────

func TestClientPostService_Refresh_NoDuplicates(t *testing.T) {
	h := newClientHarness(t, true)
	h.login(t, alice)

	remotes := []models.RemotePost{remotePost("srv-1", bob, "one"), remotePost("srv-2", carol, "two")}
	h.adapter.EXPECT().ListPosts(gomock.Any(), gomock.Any()).Return(remotes, nil).Times(2)

	require.NoError(t, h.posts.Refresh(h.ctx, models.PostQuery{}))
	require.NoError(t, h.posts.Refresh(h.ctx, models.PostQuery{}))

	views, err := h.storages.Posts.ListViews(h.ctx, alice.ID, models.PostQuery{})
	require.NoError(t, err)
	require.Len(t, views, 2, "повторный refresh не создаёт дубликатов")

	authors := map[string]string{}
	for _, v := range views {
		authors[v.RemoteID()] = v.Author.Alias
		assert.True(t, v.Synced)
	}
	assert.Equal(t, map[string]string{"srv-1": "bob", "srv-2": "carol"}, authors)
}

func TestClientPostService_Refresh_KeepsUnsyncedEdit(t *testing.T) {
	h := newClientHarness(t, false)
	h.login(t, alice)

	id, err := h.storages.Posts.Insert(h.ctx, models.Post{OwnerID: alice.ID, Title: "old", ServerID: strPtr("srv-1"), Synced: true, LocalRev: 1})
	require.NoError(t, err)
	_, err = h.posts.Update(h.ctx, id, models.PostInput{Title: "edited offline"})
	require.NoError(t, err)

	h.monitor.Set(true)
	rp := remotePost("srv-1", alice, "old")
	rp.Likes = 7
	h.adapter.EXPECT().ListPosts(gomock.Any(), gomock.Any()).Return([]models.RemotePost{rp}, nil)

	require.NoError(t, h.posts.Refresh(h.ctx, models.PostQuery{}))

	p, err := h.storages.Posts.GetByID(h.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "edited offline", p.Title, "локальная правка не затирается")
	assert.False(t, p.Synced)
	assert.Equal(t, int64(7), p.Likes, "счётчики всегда берутся с сервера")
}

func TestClientPostService_Refresh_Errors(t *testing.T) {
	h := newClientHarness(t, false)
	h.login(t, alice)

	err := h.posts.Refresh(h.ctx, models.PostQuery{})
	assert.ErrorIs(t, err, ErrRefreshFailed)
	assert.ErrorIs(t, err, ErrOffline)

	h.monitor.Set(true)
	h.adapter.EXPECT().ListPosts(gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("%w: list posts request: timeout", adapter.ErrTransport))

	err = h.posts.Refresh(h.ctx, models.PostQuery{})
	assert.ErrorIs(t, err, ErrRefreshFailed)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestClientPostService_RefreshPost_ImportsCommentTreeWithUnknownAuthors(t *testing.T) {
	h := newClientHarness(t, true)
	h.login(t, alice)

	id, err := h.storages.Posts.Insert(h.ctx, models.Post{OwnerID: alice.ID, Title: "p", ServerID: strPtr("srv-1"), Synced: true})
	require.NoError(t, err)

	top := remoteComment("c-1", "srv-1", bob, "first")
	top.Replies = []models.RemoteComment{remoteComment("c-2", "srv-1", carol, "reply")}
	detail := remotePost("srv-1", alice, "p")
	detail.Comments = []models.RemoteComment{top}

	h.adapter.EXPECT().GetPost(gomock.Any(), "srv-1").Return(detail, nil).Times(2)

	require.NoError(t, h.posts.RefreshPost(h.ctx, id))
	require.NoError(t, h.posts.RefreshPost(h.ctx, id))

	threads, err := h.comments.List(h.ctx, id)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, "bob", threads[0].Author.Alias)
	require.Len(t, threads[0].Replies, 1)
	assert.Equal(t, "carol", threads[0].Replies[0].Author.Alias)
	assert.Equal(t, "reply", threads[0].Replies[0].Body)
}

func TestClientPostService_RefreshPost_RemovedOnServer(t *testing.T) {
	h := newClientHarness(t, true)
	h.login(t, alice)

	id, err := h.storages.Posts.Insert(h.ctx, models.Post{OwnerID: alice.ID, Title: "p", ServerID: strPtr("srv-1"), Synced: true})
	require.NoError(t, err)

	h.adapter.EXPECT().GetPost(gomock.Any(), "srv-1").
		Return(models.RemotePost{}, fmt.Errorf("get post: %w", fmt.Errorf("%w: %s", adapter.ErrNotFound, app.MsgPostNotFound)))

	err = h.posts.RefreshPost(h.ctx, id)
	assert.ErrorIs(t, err, ErrRefreshFailed)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = h.storages.Posts.GetByID(h.ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestClientPostService_RefreshPost_Unsynced(t *testing.T) {
	h := newClientHarness(t, true)
	h.login(t, alice)

	h.adapter.EXPECT().CreatePost(gomock.Any(), gomock.Any()).
		Return(models.RemotePost{}, fmt.Errorf("%w: boom", adapter.ErrTransport))
	p, err := h.posts.Create(h.ctx, models.PostInput{Title: "p"})
	require.NoError(t, err)

	assert.ErrorIs(t, h.posts.RefreshPost(h.ctx, p.LocalID), ErrNotSynced)
}

func TestClientPostService_RefreshFavorites(t *testing.T) {
	h := newClientHarness(t, true)
	h.login(t, alice)

	h.adapter.EXPECT().Favorites(gomock.Any()).Return([]models.RemotePost{remotePost("srv-9", bob, "liked")}, nil)

	require.NoError(t, h.posts.RefreshFavorites(h.ctx))

	sub, err := h.posts.ObserveFavorites(h.ctx)
	require.NoError(t, err)
	defer sub.Close()

	favs := receive(t, sub.Updates())
	require.Len(t, favs, 1)
	assert.Equal(t, "srv-9", favs[0].RemoteID())
	assert.True(t, favs[0].IsFavorite)
}

// ── Observe ──────────────────────────────────────────────────────────────────

func TestClientPostService_Observe_StaleThenFresh(t *testing.T) {
	h := newClientHarness(t, true)
	h.login(t, alice)

	sub, err := h.posts.Observe(h.ctx, models.PostQuery{})
	require.NoError(t, err)
	defer sub.Close()

	assert.Empty(t, receive(t, sub.Updates()), "сначала кэш")

	h.adapter.EXPECT().ListPosts(gomock.Any(), gomock.Any()).Return([]models.RemotePost{remotePost("srv-1", bob, "news")}, nil)
	require.NoError(t, h.posts.Refresh(h.ctx, models.PostQuery{}))

	fresh := receive(t, sub.Updates())
	require.Len(t, fresh, 1, "затем данные с сервера, одной транзакцией вместе с автором")
	assert.Equal(t, "news", fresh[0].Title)
	assert.Equal(t, "bob", fresh[0].Author.Alias)
}

func TestClientPostService_ObserveUserPosts(t *testing.T) {
	h := newClientHarness(t, false)
	h.login(t, alice)
	require.NoError(t, h.storages.Users.Upsert(h.ctx, bob))

	_, err := h.posts.Create(h.ctx, models.PostInput{Title: "mine"})
	require.NoError(t, err)
	_, err = h.storages.Posts.Insert(h.ctx, models.Post{OwnerID: bob.ID, Title: "his", ServerID: strPtr("srv-b"), Synced: true})
	require.NoError(t, err)

	sub, err := h.posts.ObserveUserPosts(h.ctx, bob.ID)
	require.NoError(t, err)
	defer sub.Close()

	posts := receive(t, sub.Updates())
	require.Len(t, posts, 1)
	assert.Equal(t, "his", posts[0].Title)
}

// ── Abandon / Retry ──────────────────────────────────────────────────────────

func TestClientPostService_Update_RequeuesAbandoned(t *testing.T) {
	h := newClientHarness(t, false)
	h.login(t, alice)

	p, err := h.posts.Create(h.ctx, models.PostInput{Title: "rejected"})
	require.NoError(t, err)
	_, err = h.storages.Posts.RecordFailure(h.ctx, p.LocalID, "title too long", 0)
	require.NoError(t, err)
	require.NoError(t, h.posts.Abandon(h.ctx, p.LocalID))

	updated, err := h.posts.Update(h.ctx, p.LocalID, models.PostInput{Title: "fixed"})
	require.NoError(t, err)
	assert.False(t, updated.Abandoned, "правка возвращает пост в очередь")
	assert.Zero(t, updated.SyncAttempts)
	assert.Empty(t, updated.LastSyncError)

	pending, err := h.storages.Posts.ListPending(h.ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "fixed", pending[0].Title)

	abandoned, err := h.posts.Abandoned(h.ctx)
	require.NoError(t, err)
	assert.Empty(t, abandoned)
}

func TestClientPostService_AbandonAndRetry(t *testing.T) {
	h := newClientHarness(t, false)
	h.login(t, alice)

	p, err := h.posts.Create(h.ctx, models.PostInput{Title: "stuck"})
	require.NoError(t, err)

	require.NoError(t, h.posts.Abandon(h.ctx, p.LocalID))

	abandoned, err := h.posts.Abandoned(h.ctx)
	require.NoError(t, err)
	require.Len(t, abandoned, 1)

	pending, err := h.storages.Posts.ListPending(h.ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, pending, "брошенные посты не попадают в очередь")

	h.monitor.Set(true)
	h.adapter.EXPECT().CreatePost(gomock.Any(), gomock.Any()).Return(remotePost("srv-1", alice, "stuck"), nil)

	require.NoError(t, h.posts.Retry(h.ctx, p.LocalID))

	got, err := h.storages.Posts.GetByID(h.ctx, p.LocalID)
	require.NoError(t, err)
	assert.True(t, got.Synced)
	assert.False(t, got.Abandoned)
}
