package models

import "time"

// PendingPost is one item of a POST /sync batch. LocalID is used only as a
// correlation token for the response.
type PendingPost struct {
	LocalID     int64     `json:"local_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"created_at"`
}

// SyncRequest is the body of POST /sync.
type SyncRequest struct {
	PendingPosts []PendingPost `json:"pending_posts"`
}

// SyncAck correlates a pending local post with its assigned server id.
type SyncAck struct {
	LocalID  int64  `json:"local_id"`
	ServerID string `json:"server_id"`
}

// SyncRejection reports a pending item the server refused permanently.
type SyncRejection struct {
	LocalID int64  `json:"local_id"`
	Reason  string `json:"reason"`
}

// SyncResponse is the body returned by POST /sync.
type SyncResponse struct {
	Synced   []SyncAck       `json:"synced"`
	Rejected []SyncRejection `json:"rejected,omitempty"`
}

// SyncStatus is the outcome of one reconciliation pass.
type SyncStatus int

const (
	// SyncNoop means there was nothing to deliver.
	SyncNoop SyncStatus = iota
	// SyncSuccess means every pending row was acknowledged.
	SyncSuccess
	// SyncRetry asks the scheduler to run again later.
	SyncRetry
)

func (s SyncStatus) String() string {
	switch s {
	case SyncNoop:
		return "noop"
	case SyncSuccess:
		return "success"
	case SyncRetry:
		return "retry"
	default:
		return "unknown"
	}
}

// SyncReport summarizes one reconciliation pass.
type SyncReport struct {
	Status SyncStatus

	// Pushed counts remote calls made for pending rows.
	Pushed int
	// Acknowledged counts rows marked synced.
	Acknowledged int
	// Unresolved lists local ids of posts left unsynced.
	Unresolved []int64
	// UnresolvedComments lists local ids of comments left unsynced.
	UnresolvedComments []int64
	// Abandoned lists local ids of posts moved to the abandoned state.
	Abandoned []int64
	// Deferred counts votes, likes, favorites and deletes left for a later
	// pass.
	Deferred int
}

// Done reports whether nothing is left for a later pass.
func (r SyncReport) Done() bool {
	return len(r.Unresolved) == 0 && len(r.UnresolvedComments) == 0 && r.Deferred == 0
}
