package store

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-social-sync/models"
)

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

func TestWatch_InitialAndAfterCommit(t *testing.T) {
	s := newSQLiteStorages(t)
	ctx := testContext()
	seedUser(t, s, "u1", "alice")

	sub := Watch(ctx, s.DB, []string{tablePosts}, func(ctx context.Context) ([]models.Post, error) {
		return s.Posts.ListPending(ctx, "u1")
	})
	defer sub.Close()

	assert.Empty(t, receive(t, sub.Updates()))

	seedPost(t, s, models.Post{OwnerID: "u1", Title: "hello"})

	posts := receive(t, sub.Updates())
	require.Len(t, posts, 1)
	assert.Equal(t, "hello", posts[0].Title)

	assertSilent(t, sub.Updates())
}

func TestWatch_UnrelatedTableDoesNotEmit(t *testing.T) {
	s := newSQLiteStorages(t)
	ctx := testContext()

	sub := Watch(ctx, s.DB, []string{tablePosts}, func(ctx context.Context) (int, error) {
		return 0, nil
	})
	defer sub.Close()

	receive(t, sub.Updates())
	require.NoError(t, s.Meta.Set(ctx, "k", "v"))
	assertSilent(t, sub.Updates())
}

func TestWatch_UnchangedResultDoesNotEmit(t *testing.T) {
	s := newSQLiteStorages(t)
	ctx := testContext()
	seedUser(t, s, "u1", "alice")
	id := seedPost(t, s, models.Post{OwnerID: "u1", Title: "hello"})

	sub := Watch(ctx, s.DB, []string{tablePosts}, func(ctx context.Context) ([]string, error) {
		posts, err := s.Posts.ListPending(ctx, "u1")
		titles := make([]string, 0, len(posts))
		for _, p := range posts {
			titles = append(titles, p.Title)
		}
		return titles, err
	})
	defer sub.Close()

	assert.Equal(t, []string{"hello"}, receive(t, sub.Updates()))

	// коммит трогает posts, но видимый результат тот же
	_, err := s.Posts.RecordFailure(ctx, id, "boom", 0)
	require.NoError(t, err)
	assertSilent(t, sub.Updates())

	require.NoError(t, s.Posts.UpdateContent(ctx, id, "changed", "", nil, time.Now()))
	assert.Equal(t, []string{"changed"}, receive(t, sub.Updates()))
}

func TestWatch_LoadsDoNotWaitForWriter(t *testing.T) {
	s := newSQLiteStorages(t)
	ctx := testContext()
	require.NotNil(t, s.DB.reader, "file database gets a read pool")

	// держим единственное пишущее соединение открытой транзакцией
	tx, err := s.DB.BeginTx(ctx, nil)
	require.NoError(t, err)
	_, err = tx.ExecContext(ctx, "INSERT INTO meta (key, value) VALUES ('k', 'v')")
	require.NoError(t, err)
	defer tx.Rollback()

	sub := Watch(ctx, s.DB, []string{tableMeta}, func(ctx context.Context) (string, error) {
		v, _, err := s.Meta.Get(ctx, "k")
		return v, err
	})
	defer sub.Close()

	// незакоммиченная запись не видна читателю
	assert.Equal(t, "", receive(t, sub.Updates()))
	assert.NoError(t, sub.Err())
}

func TestReadPool_RejectsWrites(t *testing.T) {
	s := newSQLiteStorages(t)
	ctx := testContext()

	_, err := s.DB.conn(withReader(ctx)).ExecContext(ctx, "INSERT INTO meta (key, value) VALUES ('k', 'v')")
	assert.Error(t, err)

	// внутри транзакции чтение идёт через неё, а не через пул чтения
	err = s.DB.InTx(withReader(ctx), func(ctx context.Context) error {
		_, err := s.DB.conn(withReader(ctx)).ExecContext(ctx, "INSERT INTO meta (key, value) VALUES ('k', 'v')")
		return err
	})
	assert.NoError(t, err)
}

func TestWatch_LoadErrorKeepsSubscription(t *testing.T) {
	s := newSQLiteStorages(t)
	ctx := testContext()

	var calls atomic.Int64
	sub := Watch(ctx, s.DB, []string{tableMeta}, func(ctx context.Context) (int64, error) {
		if calls.Add(1) == 1 {
			return 0, errors.New("transient")
		}
		return calls.Load(), nil
	})
	defer sub.Close()

	require.Eventually(t, func() bool { return sub.Err() != nil }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Meta.Set(ctx, "k", "v"))
	assert.Equal(t, int64(2), receive(t, sub.Updates()))
	assert.NoError(t, sub.Err())
}

func TestWatch_CloseReleasesNotifier(t *testing.T) {
	s := newSQLiteStorages(t)
	ctx := testContext()

	sub := Watch(ctx, s.DB, []string{tablePosts}, func(ctx context.Context) (int, error) { return 1, nil })
	receive(t, sub.Updates())
	sub.Close()
	sub.Close()

	_, ok := <-sub.Updates()
	assert.False(t, ok)
	assert.Equal(t, 0, s.DB.Notifier().Len())
}

func TestWatch_ParentCancelStops(t *testing.T) {
	s := newSQLiteStorages(t)
	ctx, cancel := context.WithCancel(testContext())

	sub := Watch(ctx, s.DB, []string{tablePosts}, func(ctx context.Context) (int, error) { return 1, nil })
	cancel()

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription did not stop")
	}
}

func TestSlot_ReplaceClosesPrevious(t *testing.T) {
	s := newSQLiteStorages(t)
	ctx := testContext()

	var slot Slot[string]
	first := slot.Replace(func() *Subscription[string] {
		return Watch(ctx, s.DB, []string{tablePosts}, func(context.Context) (string, error) { return "first", nil })
	})
	assert.Equal(t, "first", receive(t, first.Updates()))

	second := slot.Replace(func() *Subscription[string] {
		return Watch(ctx, s.DB, []string{tablePosts}, func(context.Context) (string, error) { return "second", nil })
	})

	// старая подписка закрыта до открытия новой
	select {
	case <-first.Done():
	default:
		t.Fatal("previous subscription still running")
	}
	assert.Equal(t, "second", receive(t, second.Updates()))

	slot.Close()
	assert.Equal(t, 0, s.DB.Notifier().Len())
}
