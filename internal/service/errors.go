package service

import (
	"errors"

	"github.com/MKhiriev/go-social-sync/internal/validators"
)

// User-facing categories returned by client services. Adapter and
// transport errors never reach callers unwrapped: they are mapped onto one
// of these first.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrNetwork      = errors.New("network error")
)

// Client-side conditions.
var (
	// ErrNotSynced is returned by operations that need a server identity
	// (votes, likes, favorites) on a row the server has not acknowledged.
	ErrNotSynced        = errors.New("not synced with server yet")
	ErrOffline          = errors.New("offline")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrReplyDepth       = errors.New("replies cannot be nested")
	// ErrRefreshFailed wraps every failure of an explicit refresh. Cached
	// data stays readable.
	ErrRefreshFailed = errors.New("refresh failed")
	ErrNotOwner      = errors.New("owned by another user")
)

// Server-side errors of the development server.
var (
	ErrInvalidDataProvided     = errors.New("invalid data provided")
	ErrWrongPassword           = errors.New("wrong password")
	ErrTokenCreationFailed     = errors.New("token creation failed")
	ErrTokenIsExpiredOrInvalid = errors.New("token is expired or invalid")
	ErrVersionIsNotSpecified   = errors.New("version is not specified")

	ErrEmailRequired       = validators.ErrEmailRequired
	ErrPasswordRequired    = validators.ErrPasswordRequired
	ErrOldPasswordMismatch = errors.New("old password does not match")

	ErrEmptyTitle   = validators.ErrEmptyTitle
	ErrEmptyBody    = validators.ErrEmptyBody
	ErrInvalidVote  = validators.ErrInvalidVote
	ErrAccessDenied = errors.New("access denied")
)
