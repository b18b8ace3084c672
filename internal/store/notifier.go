package store

import "sync"

// Notifier fans out table change notifications to subscribers.
//
// Each subscriber owns a signal channel with room for one pending signal.
// Publish never blocks: if a signal is already pending it is not repeated,
// so several commits between two reads collapse into one re-evaluation.
type Notifier struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]*listener
}

type listener struct {
	tables map[string]struct{}
	signal chan struct{}
}

// NewNotifier constructs an empty [Notifier].
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[uint64]*listener)}
}

// Subscribe registers interest in tables and returns the subscription id
// with its signal channel.
func (n *Notifier) Subscribe(tables ...string) (uint64, <-chan struct{}) {
	l := &listener{
		tables: make(map[string]struct{}, len(tables)),
		signal: make(chan struct{}, 1),
	}
	for _, t := range tables {
		l.tables[t] = struct{}{}
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	n.subs[n.nextID] = l
	return n.nextID, l.signal
}

// Unsubscribe removes a subscription. Unknown ids are ignored.
func (n *Notifier) Unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.subs, id)
}

// Publish signals every subscriber interested in at least one of tables.
func (n *Notifier) Publish(tables ...string) {
	if len(tables) == 0 {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	for _, l := range n.subs {
		if !l.interested(tables) {
			continue
		}
		select {
		case l.signal <- struct{}{}:
		default:
		}
	}
}

// Len returns the number of active subscriptions.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.subs)
}

func (l *listener) interested(tables []string) bool {
	for _, t := range tables {
		if _, ok := l.tables[t]; ok {
			return true
		}
	}
	return false
}
