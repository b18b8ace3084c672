package models

import "time"

// Favorite marks a post as favorited by a user. A row with Deleted set is a
// pending un-favorite that has not reached the server yet.
type Favorite struct {
	UserID    string
	PostID    int64
	Synced    bool
	Deleted   bool
	CreatedAt time.Time
}

// PendingFavorite is an undelivered favorite change joined with the server
// id of its post.
type PendingFavorite struct {
	Favorite
	PostServerID string
}
