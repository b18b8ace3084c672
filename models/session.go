package models

import "time"

// Session is the authenticated identity of the client.
type Session struct {
	UserID string    `json:"user_id"`
	Token  string    `json:"token"`
	At     time.Time `json:"at"`
}

// IsZero reports whether the session carries no identity.
func (s Session) IsZero() bool {
	return s.UserID == "" && s.Token == ""
}
