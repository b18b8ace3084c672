// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package app contains message strings shared by the development server
// and the client.
//
// The server writes them into {"error": ...} response bodies and the client
// error mapper matches them to pick a user-facing category.
package app

const (
	// MsgInvalidDataProvided is returned when the request body cannot be
	// decoded.
	MsgInvalidDataProvided = "invalid data provided"

	// MsgInvalidLoginPassword is returned when the login/password pair does
	// not match an account.
	MsgInvalidLoginPassword = "invalid login/password"

	// MsgWrongOldPassword is returned by the password change endpoint when
	// the current password does not match.
	MsgWrongOldPassword = "old password does not match"

	MsgInternalServerError = "internal server error"

	MsgTokenIsExpired          = "token is expired"
	MsgTokenIsExpiredOrInvalid = "token is expired or invalid"

	// MsgNoUserIDProvided is returned when an authenticated route runs
	// without a user id in the request context.
	MsgNoUserIDProvided = "no user ID provided"

	// MsgAccessDenied is returned when a user modifies content owned by
	// someone else.
	MsgAccessDenied = "access denied"

	// MsgIntegrityCheckFailed is returned when the HashSHA256 header does
	// not match the request body.
	MsgIntegrityCheckFailed = "integrity check failed"

	MsgRegistrationFailed = "registration failed"
	MsgLoginFailed        = "login failed"

	MsgEmailAlreadyExists = "email already exists"
	MsgAliasAlreadyExists = "alias already taken"

	MsgEmailRequired    = "email is required"
	MsgPasswordRequired = "password is required"
	MsgTitleRequired    = "title is required"
	MsgBodyRequired     = "comment body is required"
	MsgInvalidVote      = "vote must be like or dislike"
	MsgReplyDepth       = "replies cannot be nested"

	MsgUserNotFound    = "user not found"
	MsgPostNotFound    = "post not found"
	MsgCommentNotFound = "comment not found"
)
