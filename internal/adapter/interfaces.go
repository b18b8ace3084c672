// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter is the typed client of the server of record.
//
// [ServerAdapter] decouples the services from the wire protocol. The package
// ships a REST implementation built on resty ([NewHTTPServerAdapter]).
// HTTP statuses are mapped to the sentinel errors in errors.go so callers can
// use [errors.Is] without looking at transport details.
package adapter

import (
	"context"

	"github.com/MKhiriev/go-social-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/server_adapter_mock.go -package=mock

// TokenSource returns the bearer token of the current session. It is read
// synchronously while a request is being prepared.
type TokenSource interface {
	Token() string
}

// ServerAdapter is the remote API surface consumed by the client.
type ServerAdapter interface {
	// Register creates an account. It does not send a bearer token.
	Register(ctx context.Context, req models.RegisterRequest) (models.AuthResponse, error)
	// Login authenticates by e-mail or alias. It does not send a bearer token.
	Login(ctx context.Context, req models.LoginRequest) (models.AuthResponse, error)

	Me(ctx context.Context) (models.User, error)
	UpdateMe(ctx context.Context, upd models.ProfileUpdate) (models.User, error)
	ChangePassword(ctx context.Context, req models.ChangePasswordRequest) error

	ListPosts(ctx context.Context, q models.PostQuery) ([]models.RemotePost, error)
	// GetPost returns the post with its comments and replies embedded.
	GetPost(ctx context.Context, id string) (models.RemotePost, error)
	CreatePost(ctx context.Context, in models.PostInput) (models.RemotePost, error)
	UpdatePost(ctx context.Context, id string, in models.PostInput) (models.RemotePost, error)
	DeletePost(ctx context.Context, id string) error
	Vote(ctx context.Context, id string, vote models.VoteKind) (models.VoteResponse, error)
	SetFavorite(ctx context.Context, id string, favorite bool) error
	Favorites(ctx context.Context) ([]models.RemotePost, error)
	UserPosts(ctx context.Context, userID string) ([]models.RemotePost, error)

	AddComment(ctx context.Context, postID string, in models.CommentInput) (models.RemoteComment, error)
	Reply(ctx context.Context, commentID string, in models.CommentInput) (models.RemoteComment, error)
	LikeComment(ctx context.Context, commentID string) (models.LikeResponse, error)

	// Sync submits a batch of locally created posts. The server answers
	// with the server id assigned to each local id it accepted.
	Sync(ctx context.Context, req models.SyncRequest) (models.SyncResponse, error)

	// Ping checks that the server is reachable.
	Ping(ctx context.Context) error
}
