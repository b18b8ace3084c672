package service

import (
	"context"

	"github.com/MKhiriev/go-social-sync/models"
)

// AuthService manages accounts and tokens of the development server.
type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (models.User, error)
	// Login accepts the e-mail or the alias of the account.
	Login(ctx context.Context, req models.LoginRequest) (models.User, error)
	CreateToken(ctx context.Context, user models.User) (models.Token, error)
	ParseToken(ctx context.Context, tokenString string) (models.Token, error)

	Me(ctx context.Context, userID string) (models.User, error)
	UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (models.User, error)
	ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error
}

// FeedService serves posts, comments, votes and favorites.
type FeedService interface {
	ListPosts(ctx context.Context, viewerID string, q models.PostQuery) ([]models.RemotePost, error)
	// GetPost returns the post with its comment tree.
	GetPost(ctx context.Context, viewerID, id string) (models.RemotePost, error)
	// CreatePost deduplicates by in.LocalID within the calling installation.
	CreatePost(ctx context.Context, userID, clientID string, in models.PostInput) (models.RemotePost, error)
	UpdatePost(ctx context.Context, userID, id string, in models.PostInput) (models.RemotePost, error)
	DeletePost(ctx context.Context, userID, id string) error

	Vote(ctx context.Context, userID, id string, vote models.VoteKind) (models.VoteResponse, error)
	SetFavorite(ctx context.Context, userID, id string, favorite bool) error
	Favorites(ctx context.Context, userID string) ([]models.RemotePost, error)
	UserPosts(ctx context.Context, viewerID, authorID string) ([]models.RemotePost, error)

	AddComment(ctx context.Context, userID, postID string, in models.CommentInput) (models.RemoteComment, error)
	Reply(ctx context.Context, userID, commentID string, in models.CommentInput) (models.RemoteComment, error)
	LikeComment(ctx context.Context, userID, commentID string) (models.LikeResponse, error)
}

// SyncService handles batched post creation from offline clients.
type SyncService interface {
	// Sync creates every pending post of the batch once per
	// (user, client, local id) and answers with the assigned server ids.
	// Items that can never be created are listed as rejected.
	Sync(ctx context.Context, userID, clientID string, req models.SyncRequest) (models.SyncResponse, error)
}

// AppInfoService exposes build information.
type AppInfoService interface {
	GetAppVersion(ctx context.Context) string
}
