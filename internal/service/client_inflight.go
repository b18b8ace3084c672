package service

import (
	"fmt"
	"sync"
)

// inflight tracks rows currently being pushed so that a foreground write
// and a sync pass never push the same row twice at once.
type inflight struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newInflight() *inflight {
	return &inflight{keys: make(map[string]struct{})}
}

// acquire claims key. It reports false when another caller holds it.
func (f *inflight) acquire(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, busy := f.keys[key]; busy {
		return false
	}
	f.keys[key] = struct{}{}
	return true
}

func (f *inflight) release(key string) {
	f.mu.Lock()
	delete(f.keys, key)
	f.mu.Unlock()
}

func postKey(localID int64) string    { return fmt.Sprintf("post:%d", localID) }
func commentKey(localID int64) string { return fmt.Sprintf("comment:%d", localID) }
