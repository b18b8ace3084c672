package models

import "time"

// DraftPost is local scratch state for a post being written. Drafts are
// never synchronized.
type DraftPost struct {
	LocalID     int64
	OwnerID     string
	Title       string
	Description string
	Images      Images
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the name of the local table holding drafts.
func (d DraftPost) TableName() string {
	return "draft_posts"
}
