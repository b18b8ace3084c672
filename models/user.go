package models

import "time"

// User is an account known to the client. Users are never created offline:
// the id is assigned by the server and used as both the local and the remote
// key.
type User struct {
	// ID is the server-assigned opaque identifier.
	ID string `json:"id"`

	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	// Alias is the public handle. Uniqueness is enforced by the server.
	Alias string `json:"alias"`

	Phone   string `json:"phone,omitempty"`
	Website string `json:"website,omitempty"`
	Avatar  string `json:"avatar,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the name of the local table holding users.
func (u User) TableName() string {
	return "users"
}

// DisplayName returns the alias when present, otherwise the full name.
func (u User) DisplayName() string {
	if u.Alias != "" {
		return u.Alias
	}
	if u.FirstName == "" && u.LastName == "" {
		return u.Email
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Alias     string `json:"alias"`
}

// LoginRequest is the body of POST /auth/login. Login may be either the
// e-mail or the alias of the account.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// AuthResponse is returned by both register and login.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// ProfileUpdate is the body of PUT /users/me. Empty fields are left unchanged
// by the server.
type ProfileUpdate struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Alias     string `json:"alias,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Website   string `json:"website,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
}

// ChangePasswordRequest is the body of PUT /users/me/password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}
