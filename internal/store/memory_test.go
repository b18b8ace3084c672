package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/models"
)

func newMemory(t *testing.T) (*Storages, models.User, models.User) {
	t.Helper()
	s := NewMemoryStorages(logger.Nop())
	ctx := testContext()

	alice, err := s.Accounts.Create(ctx, models.User{Email: "alice@example.com", Alias: "alice"}, []byte("h1"))
	require.NoError(t, err)
	bob, err := s.Accounts.Create(ctx, models.User{Email: "bob@example.com", Alias: "bob"}, []byte("h2"))
	require.NoError(t, err)
	return s, alice, bob
}

// ── accounts ──

func TestMemoryAccounts_UniqueEmailAndAlias(t *testing.T) {
	s, _, _ := newMemory(t)
	ctx := testContext()

	_, err := s.Accounts.Create(ctx, models.User{Email: "ALICE@example.com "}, nil)
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)

	_, err = s.Accounts.Create(ctx, models.User{Email: "new@example.com", Alias: "Bob"}, nil)
	assert.ErrorIs(t, err, ErrAliasAlreadyExists)

	// пустой alias не занимает место
	_, err = s.Accounts.Create(ctx, models.User{Email: "a@x.io"}, nil)
	require.NoError(t, err)
	_, err = s.Accounts.Create(ctx, models.User{Email: "b@x.io"}, nil)
	require.NoError(t, err)
}

func TestMemoryAccounts_FindByLogin(t *testing.T) {
	s, alice, _ := newMemory(t)
	ctx := testContext()

	for _, login := range []string{"alice@example.com", "Alice@Example.com", "alice", "ALICE"} {
		u, hash, err := s.Accounts.FindByLogin(ctx, login)
		require.NoError(t, err, login)
		assert.Equal(t, alice.ID, u.ID)
		assert.Equal(t, []byte("h1"), hash)
	}

	_, _, err := s.Accounts.FindByLogin(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryAccounts_UpdateProfile(t *testing.T) {
	s, alice, _ := newMemory(t)
	ctx := testContext()

	u, err := s.Accounts.UpdateProfile(ctx, alice.ID, models.ProfileUpdate{FirstName: "Alice", Alias: "ally"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.FirstName)
	assert.Equal(t, "ally", u.Alias)

	// старый alias освобождён, новый занят
	_, _, err = s.Accounts.FindByLogin(ctx, "alice")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Accounts.Create(ctx, models.User{Email: "c@x.io", Alias: "ally"}, nil)
	assert.ErrorIs(t, err, ErrAliasAlreadyExists)

	_, err = s.Accounts.UpdateProfile(ctx, alice.ID, models.ProfileUpdate{Alias: "bob"})
	assert.ErrorIs(t, err, ErrAliasAlreadyExists)

	_, err = s.Accounts.UpdateProfile(ctx, "missing", models.ProfileUpdate{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryAccounts_SetPasswordHash(t *testing.T) {
	s, alice, _ := newMemory(t)
	ctx := testContext()

	require.NoError(t, s.Accounts.SetPasswordHash(ctx, alice.ID, []byte("new")))
	_, hash, err := s.Accounts.Get(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), hash)

	assert.ErrorIs(t, s.Accounts.SetPasswordHash(ctx, "missing", nil), ErrNotFound)
}

// ── posts ──

func TestMemoryFeed_CreatePost_IdempotencyKey(t *testing.T) {
	s, alice, bob := newMemory(t)
	ctx := testContext()

	key := &IdempotencyKey{UserID: alice.ID, ClientID: "c1", LocalID: 7}
	first, existed, err := s.Feed.CreatePost(ctx, alice.ID, models.PostInput{Title: "hello"}, time.Time{}, key)
	require.NoError(t, err)
	assert.False(t, existed)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, []string{}, first.Images)
	assert.Empty(t, first.Author.Email, "author e-mail is private")

	again, existed, err := s.Feed.CreatePost(ctx, alice.ID, models.PostInput{Title: "hello"}, time.Time{}, key)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, first.ID, again.ID)

	// другой клиент или пользователь с тем же local_id создаёт новый пост
	other, existed, err := s.Feed.CreatePost(ctx, alice.ID, models.PostInput{Title: "hello"}, time.Time{},
		&IdempotencyKey{UserID: alice.ID, ClientID: "c2", LocalID: 7})
	require.NoError(t, err)
	assert.False(t, existed)
	assert.NotEqual(t, first.ID, other.ID)

	_, existed, err = s.Feed.CreatePost(ctx, bob.ID, models.PostInput{Title: "hello"}, time.Time{},
		&IdempotencyKey{UserID: bob.ID, ClientID: "c1", LocalID: 7})
	require.NoError(t, err)
	assert.False(t, existed)

	// ключ переживает удаление поста
	require.NoError(t, s.Feed.DeletePost(ctx, first.ID))
	gone, existed, err := s.Feed.CreatePost(ctx, alice.ID, models.PostInput{Title: "hello"}, time.Time{}, key)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, first.ID, gone.ID)
}

func TestMemoryFeed_CreatePost_ConcurrentReplay(t *testing.T) {
	s, alice, _ := newMemory(t)
	ctx := testContext()
	key := &IdempotencyKey{UserID: alice.ID, ClientID: "c1", LocalID: 1}

	ids := make([]string, 16)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, _, err := s.Feed.CreatePost(ctx, alice.ID, models.PostInput{Title: "x"}, time.Time{}, key)
			assert.NoError(t, err)
			ids[i] = p.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	posts, err := s.Feed.ListPosts(ctx, alice.ID, models.PostQuery{})
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestMemoryFeed_CreatePost_KeepsClientCreatedAt(t *testing.T) {
	s, alice, _ := newMemory(t)
	ctx := testContext()

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p, _, err := s.Feed.CreatePost(ctx, alice.ID, models.PostInput{Title: "x"}, at, nil)
	require.NoError(t, err)
	assert.Equal(t, at, p.CreatedAt)

	future, _, err := s.Feed.CreatePost(ctx, alice.ID, models.PostInput{Title: "y"}, time.Now().Add(time.Hour), nil)
	require.NoError(t, err)
	assert.False(t, future.CreatedAt.After(time.Now()))
}

func TestMemoryFeed_ListPosts_FilterAndOrder(t *testing.T) {
	s, alice, bob := newMemory(t)
	ctx := testContext()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	a1, _, _ := s.Feed.CreatePost(ctx, alice.ID, models.PostInput{Title: "Go tips", Description: "channels"}, base, nil)
	a2, _, _ := s.Feed.CreatePost(ctx, alice.ID, models.PostInput{Title: "Baking"}, base.Add(time.Hour), nil)
	b1, _, _ := s.Feed.CreatePost(ctx, bob.ID, models.PostInput{Title: "Algebra", Description: "go figure"}, base.Add(2*time.Hour), nil)

	_, err := s.Feed.Vote(ctx, bob.ID, a2.ID, models.VoteLike)
	require.NoError(t, err)
	_, err = s.Feed.Vote(ctx, alice.ID, a2.ID, models.VoteLike)
	require.NoError(t, err)
	_, err = s.Feed.Vote(ctx, alice.ID, b1.ID, models.VoteLike)
	require.NoError(t, err)

	ids := func(posts []models.RemotePost) []string {
		out := make([]string, 0, len(posts))
		for _, p := range posts {
			out = append(out, p.ID)
		}
		return out
	}

	tests := []struct {
		name  string
		query models.PostQuery
		want  []string
	}{
		{"default newest first", models.PostQuery{}, []string{b1.ID, a2.ID, a1.ID}},
		{"ascending", models.PostQuery{Direction: "asc"}, []string{a1.ID, a2.ID, b1.ID}},
		{"search title or description", models.PostQuery{Search: "GO"}, []string{b1.ID, a1.ID}},
		{"author by alias", models.PostQuery{Author: "Alice"}, []string{a2.ID, a1.ID}},
		{"author by id", models.PostQuery{Author: bob.ID}, []string{b1.ID}},
		{"likes", models.PostQuery{OrderBy: "likes"}, []string{a2.ID, b1.ID, a1.ID}},
		{"title asc", models.PostQuery{OrderBy: "title", Direction: "ASC"}, []string{b1.ID, a2.ID, a1.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Feed.ListPosts(ctx, alice.ID, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestMemoryFeed_VoteReplacesPrevious(t *testing.T) {
	s, alice, bob := newMemory(t)
	ctx := testContext()
	p, _, _ := s.Feed.CreatePost(ctx, alice.ID, models.PostInput{Title: "x"}, time.Time{}, nil)

	res, err := s.Feed.Vote(ctx, bob.ID, p.ID, models.VoteLike)
	require.NoError(t, err)
	assert.Equal(t, models.VoteResponse{Likes: 1}, res)

	res, err = s.Feed.Vote(ctx, bob.ID, p.ID, models.VoteLike)
	require.NoError(t, err)
	assert.Equal(t, models.VoteResponse{Likes: 1}, res)

	res, err = s.Feed.Vote(ctx, bob.ID, p.ID, models.VoteDislike)
	require.NoError(t, err)
	assert.Equal(t, models.VoteResponse{Dislikes: 1}, res)

	got, err := s.Feed.GetPost(ctx, bob.ID, p.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.VoteDislike, got.MyVote)

	got, err = s.Feed.GetPost(ctx, alice.ID, p.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.VoteNone, got.MyVote)

	_, err = s.Feed.Vote(ctx, bob.ID, "missing", models.VoteLike)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryFeed_Favorites(t *testing.T) {
	s, alice, bob := newMemory(t)
	ctx := testContext()
	p, _, _ := s.Feed.CreatePost(ctx, alice.ID, models.PostInput{Title: "x"}, time.Time{}, nil)

	require.NoError(t, s.Feed.SetFavorite(ctx, bob.ID, p.ID, true))
	require.NoError(t, s.Feed.SetFavorite(ctx, bob.ID, p.ID, true))

	favs, err := s.Feed.Favorites(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.True(t, favs[0].IsFavorite)

	favs, err = s.Feed.Favorites(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, favs)

	require.NoError(t, s.Feed.SetFavorite(ctx, bob.ID, p.ID, false))
	favs, err = s.Feed.Favorites(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, favs)
}

// ── comments ──

func TestMemoryFeed_CommentTree(t *testing.T) {
	s, alice, bob := newMemory(t)
	ctx := testContext()
	p, _, _ := s.Feed.CreatePost(ctx, alice.ID, models.PostInput{Title: "x"}, time.Time{}, nil)

	c1, err := s.Feed.AddComment(ctx, bob.ID, p.ID, "", "first")
	require.NoError(t, err)
	c2, err := s.Feed.AddComment(ctx, alice.ID, p.ID, "", "second")
	require.NoError(t, err)
	r1, err := s.Feed.AddComment(ctx, alice.ID, p.ID, c1.ID, "reply")
	require.NoError(t, err)
	require.NotNil(t, r1.ParentID)
	assert.Equal(t, c1.ID, *r1.ParentID)

	_, err = s.Feed.AddComment(ctx, bob.ID, p.ID, r1.ID, "nested")
	assert.ErrorIs(t, err, ErrReplyDepth)

	_, err = s.Feed.AddComment(ctx, bob.ID, p.ID, "missing", "x")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := s.Feed.GetPost(ctx, bob.ID, p.ID, true)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.CommentCount)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, c1.ID, got.Comments[0].ID)
	assert.Equal(t, c2.ID, got.Comments[1].ID)
	require.Len(t, got.Comments[0].Replies, 1)
	assert.Equal(t, r1.ID, got.Comments[0].Replies[0].ID)

	list, err := s.Feed.GetPost(ctx, bob.ID, p.ID, false)
	require.NoError(t, err)
	assert.Nil(t, list.Comments)
}

func TestMemoryFeed_LikeCommentIsIdempotent(t *testing.T) {
	s, alice, bob := newMemory(t)
	ctx := testContext()
	p, _, _ := s.Feed.CreatePost(ctx, alice.ID, models.PostInput{Title: "x"}, time.Time{}, nil)
	c, _ := s.Feed.AddComment(ctx, alice.ID, p.ID, "", "hi")

	res, err := s.Feed.LikeComment(ctx, bob.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Likes)

	res, err = s.Feed.LikeComment(ctx, bob.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Likes)

	got, err := s.Feed.GetComment(ctx, bob.ID, c.ID)
	require.NoError(t, err)
	assert.True(t, got.LikedByMe)
}

func TestMemoryFeed_DeletePostRemovesComments(t *testing.T) {
	s, alice, _ := newMemory(t)
	ctx := testContext()
	p, _, _ := s.Feed.CreatePost(ctx, alice.ID, models.PostInput{Title: "x"}, time.Time{}, nil)
	c, _ := s.Feed.AddComment(ctx, alice.ID, p.ID, "", "hi")

	require.NoError(t, s.Feed.DeletePost(ctx, p.ID))

	_, err := s.Feed.GetPost(ctx, alice.ID, p.ID, false)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Feed.GetComment(ctx, alice.ID, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Feed.DeletePost(ctx, p.ID), ErrNotFound)
}
