package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-social-sync/internal/store"
	"github.com/MKhiriev/go-social-sync/models"
)

// ClientAuthService manages the account of the local user. Accounts are
// never created offline, so every mutating call goes to the server first.
type ClientAuthService interface {
	// Register creates an account, makes it the current session and caches
	// the user locally.
	Register(ctx context.Context, req models.RegisterRequest) (models.User, error)
	// Login authenticates by e-mail or alias. Logging in as a different
	// account than the one cached in the local database purges the cache.
	Login(ctx context.Context, req models.LoginRequest) (models.User, error)
	// Logout clears the session. Cached data stays on disk.
	Logout(ctx context.Context) error
	// RestoreSession makes the persisted session current. It returns
	// ErrNotAuthenticated when there is none or it has expired.
	RestoreSession(ctx context.Context) (models.User, error)

	// Me returns the cached profile of the current user.
	Me(ctx context.Context) (models.User, error)
	RefreshMe(ctx context.Context) (models.User, error)
	UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (models.User, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error

	// ObserveMe streams the cached profile of the current user.
	ObserveMe(ctx context.Context) (*store.Subscription[models.User], error)
}

// ClientPostService is the offline-first entry point for posts.
//
// Writes commit locally first and return the local row even when the
// immediate push fails; the sync engine retries later. Reads stream from
// the local database; Refresh* calls pull from the server and are the only
// methods that report network failures.
type ClientPostService interface {
	Create(ctx context.Context, in models.PostInput) (models.Post, error)
	Update(ctx context.Context, localID int64, in models.PostInput) (models.Post, error)
	// Delete removes the post locally. A synced post is also deleted on the
	// server, now or on the next sync.
	Delete(ctx context.Context, localID int64) error
	// Vote returns ErrNotSynced for posts without a server id.
	Vote(ctx context.Context, localID int64, vote models.VoteKind) (models.Post, error)
	// SetFavorite returns ErrNotSynced for posts without a server id.
	SetFavorite(ctx context.Context, localID int64, favorite bool) error

	Get(ctx context.Context, localID int64) (models.PostView, error)
	Observe(ctx context.Context, q models.PostQuery) (*store.Subscription[[]models.PostView], error)
	ObservePost(ctx context.Context, localID int64) (*store.Subscription[models.PostView], error)
	ObserveFavorites(ctx context.Context) (*store.Subscription[[]models.PostView], error)
	ObserveUserPosts(ctx context.Context, userID string) (*store.Subscription[[]models.PostView], error)

	Refresh(ctx context.Context, q models.PostQuery) error
	// RefreshPost pulls the post together with its comments.
	RefreshPost(ctx context.Context, localID int64) error
	RefreshFavorites(ctx context.Context) error
	RefreshUserPosts(ctx context.Context, userID string) error

	// Abandoned lists posts the sync engine gave up on.
	Abandoned(ctx context.Context) ([]models.Post, error)
	// Abandon stops retrying a pending post.
	Abandon(ctx context.Context, localID int64) error
	// Retry returns an abandoned post to the pending queue.
	Retry(ctx context.Context, localID int64) error
}

// ClientDraftService manages local drafts. Drafts are never synchronized.
type ClientDraftService interface {
	Save(ctx context.Context, in models.PostInput) (models.DraftPost, error)
	Update(ctx context.Context, localID int64, in models.PostInput) (models.DraftPost, error)
	Delete(ctx context.Context, localID int64) error
	List(ctx context.Context) ([]models.DraftPost, error)
	Observe(ctx context.Context) (*store.Subscription[[]models.DraftPost], error)
	// Publish turns the draft into a post and removes the draft in one
	// transaction, then follows the post write path.
	Publish(ctx context.Context, localID int64) (models.Post, error)
}

// ClientCommentService manages comments of posts.
type ClientCommentService interface {
	Add(ctx context.Context, postLocalID int64, body string) (models.Comment, error)
	// Reply answers a top-level comment. Replying to a reply returns
	// ErrReplyDepth.
	Reply(ctx context.Context, parentLocalID int64, body string) (models.Comment, error)
	// Like returns ErrNotSynced for comments without a server id.
	Like(ctx context.Context, localID int64) (models.Comment, error)
	// Delete removes the comment and its replies locally.
	Delete(ctx context.Context, localID int64) error

	List(ctx context.Context, postLocalID int64) ([]models.CommentThread, error)
	// Observe streams the threads of a post. Each call closes the stream
	// of the previous call before the new one starts.
	Observe(ctx context.Context, postLocalID int64) *store.Subscription[[]models.CommentThread]
	// Stop closes the current stream, if any.
	Stop()
	Refresh(ctx context.Context, postLocalID int64) error
}

// ClientSyncService delivers pending local changes to the server.
type ClientSyncService interface {
	// Run performs one reconciliation pass. A report with status
	// SyncRetry asks the caller to run again later; it is not an error.
	Run(ctx context.Context) (models.SyncReport, error)
}

// ClientSyncJob schedules sync passes in the background.
type ClientSyncJob interface {
	// Start schedules a pass every interval, replacing any previous
	// schedule. A non-positive interval uses the configured one.
	Start(ctx context.Context, interval time.Duration)
	// Stop cancels the schedule and waits for a running pass to end.
	Stop()
	// TriggerNow requests an immediate pass. Requests made while a pass
	// is running coalesce into one.
	TriggerNow()
	// Run starts the job, blocks until ctx is done and stops it.
	Run(ctx context.Context)
}
