package models

import "time"

// Comment is a locally stored comment. ParentID is nil for top-level
// comments; replies point at a top-level comment and never have replies of
// their own.
type Comment struct {
	LocalID  int64
	ServerID *string
	PostID   int64
	ParentID *int64
	AuthorID string
	Synced   bool

	Body  string
	Likes int64

	LikedByMe   bool
	PendingLike bool

	LocalRev      int64
	SyncAttempts  int
	Abandoned     bool
	LastSyncError string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the name of the local table holding comments.
func (c Comment) TableName() string {
	return "comments"
}

// HasServerID reports whether the comment has been acknowledged by the server.
func (c Comment) HasServerID() bool {
	return c.ServerID != nil && *c.ServerID != ""
}

// RemoteID returns the server id or an empty string.
func (c Comment) RemoteID() string {
	if c.ServerID == nil {
		return ""
	}
	return *c.ServerID
}

// IsReply reports whether the comment is a reply to another comment.
func (c Comment) IsReply() bool {
	return c.ParentID != nil
}

// CommentView is a comment joined with its author.
type CommentView struct {
	Comment
	Author User
}

// CommentThread is a top-level comment with its ordered replies.
type CommentThread struct {
	CommentView
	Replies []CommentView
}

// CommentInput is the body of comment and reply creation requests.
type CommentInput struct {
	Body string `json:"body"`
}

// LikeResponse carries the authoritative like counter of a comment.
type LikeResponse struct {
	Likes int64 `json:"likes"`
}

// RemoteComment is a comment as returned by the server. Top-level comments
// carry their replies inline.
type RemoteComment struct {
	ID        string          `json:"id"`
	PostID    string          `json:"post_id"`
	ParentID  *string         `json:"parent_id,omitempty"`
	Author    User            `json:"author"`
	Body      string          `json:"body"`
	Likes     int64           `json:"likes"`
	LikedByMe bool            `json:"liked_by_me"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Replies   []RemoteComment `json:"replies,omitempty"`
}
