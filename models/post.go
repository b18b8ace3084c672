package models

import "time"

// VoteKind is the value of a vote on a post.
type VoteKind string

const (
	VoteNone    VoteKind = ""
	VoteLike    VoteKind = "like"
	VoteDislike VoteKind = "dislike"
)

// Valid reports whether v can be sent to the server.
func (v VoteKind) Valid() bool {
	return v == VoteLike || v == VoteDislike
}

// Post is a locally stored post.
//
// LocalID is always present and never changes. ServerID is nil until the
// server acknowledges the post. Counters are authoritative only when they
// come from the server; local changes to them are a display approximation.
type Post struct {
	LocalID  int64
	ServerID *string
	OwnerID  string
	Synced   bool

	Title       string
	Description string
	Images      Images

	Likes        int64
	Dislikes     int64
	CommentCount int64

	// MyVote is the current user's vote as last known locally.
	MyVote VoteKind
	// PendingVote is a vote recorded locally but not yet delivered.
	PendingVote VoteKind

	// LocalRev is incremented on every local content change. A sync
	// acknowledgment only marks the row synced when the revision it was
	// built from is still current.
	LocalRev      int64
	SyncAttempts  int
	Abandoned     bool
	LastSyncError string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the name of the local table holding posts.
func (p Post) TableName() string {
	return "posts"
}

// HasServerID reports whether the post has been acknowledged by the server.
func (p Post) HasServerID() bool {
	return p.ServerID != nil && *p.ServerID != ""
}

// RemoteID returns the server id or an empty string.
func (p Post) RemoteID() string {
	if p.ServerID == nil {
		return ""
	}
	return *p.ServerID
}

// PostView is the read projection of a post joined with its author and the
// favorite flag of the viewing user.
type PostView struct {
	Post
	Author     User
	IsFavorite bool
}

// PostInput carries the client-visible content of a post.
type PostInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Images      []string `json:"images"`

	// LocalID lets the server deduplicate a create that is retried after
	// its response was lost.
	LocalID *int64 `json:"local_id,omitempty"`
}

// PostQuery filters and orders post lists. The same query is sent as
// GET /posts parameters and applied to the local store.
type PostQuery struct {
	Search    string
	Author    string
	OrderBy   string
	Direction string

	// OwnerID restricts the list to posts owned by a user. Local only.
	OwnerID string
	// FavoritesOnly restricts the list to the viewer's favorites. Local only.
	FavoritesOnly bool
}

// Supported values of PostQuery.OrderBy and PostQuery.Direction.
const (
	OrderByCreatedAt = "created_at"
	OrderByLikes     = "likes"
	OrderByComments  = "comments"
	OrderByTitle     = "title"

	DirectionAsc  = "asc"
	DirectionDesc = "desc"
)

// VoteRequest is the body of POST /posts/{id}/vote.
type VoteRequest struct {
	Vote VoteKind `json:"vote"`
}

// VoteResponse carries the authoritative counters after a vote.
type VoteResponse struct {
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
}

// FavoriteRequest is the body of POST /posts/{id}/favorite.
type FavoriteRequest struct {
	Favorite bool `json:"favorite"`
}

// RemotePost is a post as returned by the server.
type RemotePost struct {
	ID           string    `json:"id"`
	Author       User      `json:"author"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Images       []string  `json:"images"`
	Likes        int64     `json:"likes"`
	Dislikes     int64     `json:"dislikes"`
	CommentCount int64     `json:"comment_count"`
	MyVote       VoteKind  `json:"my_vote,omitempty"`
	IsFavorite   bool      `json:"is_favorite"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Comments is only filled by GET /posts/{id}.
	Comments []RemoteComment `json:"comments,omitempty"`
}
