package store

import (
	"context"
	"reflect"
	"sync"

	"github.com/MKhiriev/go-social-sync/internal/logger"
)

// Subscription is a live query over the local store. It delivers the
// current result on Updates as soon as the reader is ready, and a fresh
// result after every commit touching one of the watched tables that changed
// it.
type Subscription[T any] struct {
	updates chan T
	cancel  context.CancelFunc
	done    chan struct{}

	mu  sync.Mutex
	err error
}

// Watch starts a subscription that re-runs load after each relevant commit.
// The subscription is registered with the notifier before the first load,
// so no commit can slip in between.
//
// Loads run on the read pool of db. A result deeply equal to the last one
// delivered is not sent again, so commits that only touch sync bookkeeping
// stay invisible to readers.
//
// Load errors do not end the subscription; the last one is kept in Err and
// the previous result stays current until the next successful load.
func Watch[T any](ctx context.Context, db *DB, tables []string, load func(ctx context.Context) (T, error)) *Subscription[T] {
	ctx, cancel := context.WithCancel(ctx)
	id, signal := db.notifier.Subscribe(tables...)

	s := &Subscription[T]{
		updates: make(chan T),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		defer close(s.updates)
		defer db.notifier.Unsubscribe(id)

		var (
			last T
			sent bool
		)
		for {
			v, err := load(withReader(ctx))
			switch {
			case ctx.Err() != nil:
				return
			case err != nil:
				s.setErr(err)
				logger.FromContext(ctx).Err(err).
					Str("func", "store.Watch").
					Strs("tables", tables).
					Msg("failed to re-evaluate subscription")
			case sent && reflect.DeepEqual(v, last):
				s.setErr(nil)
			default:
				s.setErr(nil)
				select {
				case s.updates <- v:
					last, sent = v, true
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-signal:
			case <-ctx.Done():
				return
			}
		}
	}()

	return s
}

// Updates returns the channel of results. It is closed after Close or when
// the parent context ends.
func (s *Subscription[T]) Updates() <-chan T {
	return s.updates
}

// Err returns the error of the last evaluation, if it failed.
func (s *Subscription[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.err
}

// Close stops the subscription and waits until its query goroutine has
// released the notifier registration. Close is idempotent.
func (s *Subscription[T]) Close() {
	s.cancel()
	<-s.done
}

// Done is closed once the subscription has fully stopped.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription[T]) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Slot holds at most one active subscription. Replacing it closes the old
// subscription before the new one is opened, so results for a stale target
// can never arrive after the switch.
type Slot[T any] struct {
	mu      sync.Mutex
	current *Subscription[T]
}

// Replace closes the current subscription, if any, then opens a new one.
func (s *Slot[T]) Replace(open func() *Subscription[T]) *Subscription[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.current.Close()
	}
	s.current = open()
	return s.current
}

// Close closes the current subscription, if any.
func (s *Slot[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.current.Close()
		s.current = nil
	}
}
