package store

import (
	"context"
	"time"

	"github.com/MKhiriev/go-social-sync/models"
)

// ErrorClassificator decides whether a database error is transient.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}

// UserRepository stores accounts known to the client. Users are keyed by
// the server-assigned id.
type UserRepository interface {
	// Upsert inserts u or updates every profile field of the existing row.
	// An empty e-mail never overwrites a known one.
	Upsert(ctx context.Context, u models.User) error
	// EnsureExists inserts a bare row for id unless one is present.
	EnsureExists(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (models.User, error)
	// DeleteByID removes the user and, by cascade, everything they own.
	DeleteByID(ctx context.Context, id string) error
}

// PostRepository stores posts and post tombstones.
type PostRepository interface {
	// Insert stores p and returns its new local id.
	Insert(ctx context.Context, p models.Post) (int64, error)
	GetByID(ctx context.Context, localID int64) (models.Post, error)
	// LookupByServerID returns the post holding serverID, if any.
	LookupByServerID(ctx context.Context, serverID string) (models.Post, bool, error)

	// UpdateContent replaces the user-editable fields, clears the synced
	// flag and bumps the local revision.
	UpdateContent(ctx context.Context, localID int64, title, description string, images models.Images, at time.Time) error
	// MergeRemote overwrites server-owned fields of an existing row with r.
	// Content is replaced only while the row has no unsynced local edit, and
	// the vote only while no local vote is pending.
	MergeRemote(ctx context.Context, localID int64, ownerID string, r models.RemotePost) error
	// ApplyAck records the server id of a pushed post. The row becomes
	// synced only when its local revision still equals rev.
	ApplyAck(ctx context.Context, localID int64, serverID string, rev int64) (synced bool, err error)
	// RecordFailure counts a rejected push. With maxAttempts > 0 the row is
	// abandoned once it reaches that many attempts.
	RecordFailure(ctx context.Context, localID int64, reason string, maxAttempts int) (abandoned bool, err error)
	// NoteFailure stores reason as the last sync error without counting an
	// attempt.
	NoteFailure(ctx context.Context, localID int64, reason string) error
	// SetAbandoned parks a row or returns it to the pending queue with a
	// fresh attempt counter.
	SetAbandoned(ctx context.Context, localID int64, abandoned bool) error

	DeleteByID(ctx context.Context, localID int64) error
	DeleteByServerID(ctx context.Context, serverID string) error
	// MergeDuplicate moves comments and favorites of drop onto keep and
	// deletes drop.
	MergeDuplicate(ctx context.Context, keep, drop int64) error

	// ListPending returns unsynced, not abandoned posts of owner ordered by
	// local id.
	ListPending(ctx context.Context, ownerID string) ([]models.Post, error)
	ListAbandoned(ctx context.Context, ownerID string) ([]models.Post, error)
	ListViews(ctx context.Context, viewerID string, q models.PostQuery) ([]models.PostView, error)
	GetView(ctx context.Context, viewerID string, localID int64) (models.PostView, error)

	// ApplyLocalVote records vote as pending and adjusts counters
	// optimistically.
	ApplyLocalVote(ctx context.Context, localID int64, vote models.VoteKind) error
	// ApplyVoteResult stores authoritative counters after vote was
	// delivered.
	ApplyVoteResult(ctx context.Context, localID int64, vote models.VoteKind, likes, dislikes int64) error
	ListPendingVotes(ctx context.Context) ([]models.Post, error)

	AddTombstone(ctx context.Context, serverID, ownerID string) error
	RemoveTombstone(ctx context.Context, serverID string) error
	ListTombstones(ctx context.Context, ownerID string) ([]string, error)
	IsTombstoned(ctx context.Context, serverID string) (bool, error)
}

// CommentRepository stores comments and replies.
type CommentRepository interface {
	Insert(ctx context.Context, c models.Comment) (int64, error)
	GetByID(ctx context.Context, localID int64) (models.Comment, error)
	LookupByServerID(ctx context.Context, serverID string) (models.Comment, bool, error)

	MergeRemote(ctx context.Context, localID int64, postID int64, parentID *int64, r models.RemoteComment) error
	ApplyAck(ctx context.Context, localID int64, serverID string, rev int64) (synced bool, err error)
	RecordFailure(ctx context.Context, localID int64, reason string, maxAttempts int) (abandoned bool, err error)
	NoteFailure(ctx context.Context, localID int64, reason string) error
	SetAbandoned(ctx context.Context, localID int64, abandoned bool) error

	DeleteByID(ctx context.Context, localID int64) error
	// MergeDuplicate moves replies of drop onto keep and deletes drop.
	MergeDuplicate(ctx context.Context, keep, drop int64) error

	// ListPending returns unsynced, not abandoned comments of author with
	// top-level comments before replies.
	ListPending(ctx context.Context, authorID string) ([]models.Comment, error)
	// ListThreads returns the comments of a post grouped into threads, both
	// levels in creation order.
	ListThreads(ctx context.Context, postID int64) ([]models.CommentThread, error)

	// ApplyLocalLike marks the comment liked and pending. It reports false
	// when the comment was already liked.
	ApplyLocalLike(ctx context.Context, localID int64) (bool, error)
	ApplyLikeResult(ctx context.Context, localID int64, likes int64) error
	ListPendingLikes(ctx context.Context) ([]models.Comment, error)
}

// FavoriteRepository stores favorite marks of posts.
type FavoriteRepository interface {
	// Set records a local favorite change. Un-favoriting keeps a deleted
	// row until the change is delivered.
	Set(ctx context.Context, userID string, postID int64, favorite bool) error
	IsFavorite(ctx context.Context, userID string, postID int64) (bool, error)
	// MarkSynced settles a delivered change unless a newer one replaced it.
	MarkSynced(ctx context.Context, userID string, postID int64, favorite bool) error
	ListPending(ctx context.Context, userID string) ([]models.PendingFavorite, error)
	// ReplaceSynced makes the synced favorites of userID equal postIDs.
	// Pending rows are left alone.
	ReplaceSynced(ctx context.Context, userID string, postIDs []int64) error
}

// DraftRepository stores unsynchronized post drafts.
type DraftRepository interface {
	Insert(ctx context.Context, d models.DraftPost) (int64, error)
	Update(ctx context.Context, d models.DraftPost) error
	GetByID(ctx context.Context, localID int64) (models.DraftPost, error)
	Delete(ctx context.Context, localID int64) error
	ListByOwner(ctx context.Context, ownerID string) ([]models.DraftPost, error)
}

// MetaRepository stores key/value settings of the local database.
type MetaRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// ClientID returns the installation id, generating it on first use.
	ClientID(ctx context.Context) (string, error)
}

// SessionStore persists the authenticated session between runs.
type SessionStore interface {
	Load() (models.Session, error)
	Save(s models.Session) error
	Clear() error
}

// IdempotencyKey identifies one create request of one client installation.
// A retried create with the same key returns the post created the first
// time.
type IdempotencyKey struct {
	UserID   string
	ClientID string
	LocalID  int64
}

// AccountRepository stores accounts of the development server.
type AccountRepository interface {
	// Create stores u with passwordHash and assigns its id. It fails with
	// ErrEmailAlreadyExists or ErrAliasAlreadyExists.
	Create(ctx context.Context, u models.User, passwordHash []byte) (models.User, error)
	// FindByLogin matches login against e-mail (case-insensitive) and alias.
	FindByLogin(ctx context.Context, login string) (models.User, []byte, error)
	Get(ctx context.Context, id string) (models.User, []byte, error)
	// UpdateProfile applies the non-empty fields of upd.
	UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (models.User, error)
	SetPasswordHash(ctx context.Context, id string, passwordHash []byte) error
}

// FeedRepository stores posts, comments, votes and favorites of the
// development server. Every read is projected for viewerID.
type FeedRepository interface {
	// CreatePost stores a post of authorID. With a non-nil key a replayed
	// create returns the first post and existed set.
	CreatePost(ctx context.Context, authorID string, in models.PostInput, createdAt time.Time, key *IdempotencyKey) (post models.RemotePost, existed bool, err error)
	UpdatePost(ctx context.Context, viewerID, id string, in models.PostInput) (models.RemotePost, error)
	// GetPost returns the post, with its comment tree when withComments is
	// set.
	GetPost(ctx context.Context, viewerID, id string, withComments bool) (models.RemotePost, error)
	ListPosts(ctx context.Context, viewerID string, q models.PostQuery) ([]models.RemotePost, error)
	// DeletePost removes the post with its comments, votes and favorites.
	DeletePost(ctx context.Context, id string) error

	Vote(ctx context.Context, userID, postID string, vote models.VoteKind) (models.VoteResponse, error)
	SetFavorite(ctx context.Context, userID, postID string, favorite bool) error
	Favorites(ctx context.Context, userID string) ([]models.RemotePost, error)

	// AddComment stores a comment of authorID on postID. A non-empty
	// parentID makes it a reply; the parent must be a top-level comment of
	// the same post.
	AddComment(ctx context.Context, authorID, postID, parentID, body string) (models.RemoteComment, error)
	GetComment(ctx context.Context, viewerID, id string) (models.RemoteComment, error)
	// LikeComment records the like of userID. Liking twice is a no-op.
	LikeComment(ctx context.Context, userID, commentID string) (models.LikeResponse, error)
}
