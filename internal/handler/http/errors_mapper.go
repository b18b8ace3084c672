package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/MKhiriev/go-social-sync/internal/app"
	"github.com/MKhiriev/go-social-sync/internal/service"
	"github.com/MKhiriev/go-social-sync/internal/store"
	"github.com/MKhiriev/go-social-sync/internal/validators"
)

type errorResponse struct {
	status  int
	message string
}

// errorTable is checked in order; wrapped errors come before the errors
// wrapping them.
var errorTable = []struct {
	err error
	errorResponse
}{
	{service.ErrEmailRequired, errorResponse{http.StatusBadRequest, app.MsgEmailRequired}},
	{service.ErrPasswordRequired, errorResponse{http.StatusBadRequest, app.MsgPasswordRequired}},
	{service.ErrInvalidDataProvided, errorResponse{http.StatusBadRequest, app.MsgInvalidDataProvided}},
	{service.ErrEmptyTitle, errorResponse{http.StatusBadRequest, app.MsgTitleRequired}},
	{service.ErrEmptyBody, errorResponse{http.StatusBadRequest, app.MsgBodyRequired}},
	{service.ErrInvalidVote, errorResponse{http.StatusBadRequest, app.MsgInvalidVote}},
	{store.ErrReplyDepth, errorResponse{http.StatusBadRequest, app.MsgReplyDepth}},

	{service.ErrWrongPassword, errorResponse{http.StatusUnauthorized, app.MsgInvalidLoginPassword}},
	{service.ErrOldPasswordMismatch, errorResponse{http.StatusUnauthorized, app.MsgWrongOldPassword}},
	{service.ErrTokenIsExpiredOrInvalid, errorResponse{http.StatusUnauthorized, app.MsgTokenIsExpiredOrInvalid}},

	{service.ErrAccessDenied, errorResponse{http.StatusForbidden, app.MsgAccessDenied}},

	{store.ErrEmailAlreadyExists, errorResponse{http.StatusConflict, app.MsgEmailAlreadyExists}},
	{store.ErrAliasAlreadyExists, errorResponse{http.StatusConflict, app.MsgAliasAlreadyExists}},

	{context.DeadlineExceeded, errorResponse{http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable)}},
}

// responseFromError picks the status and message for err. notFoundMsg is
// used for store.ErrNotFound, so every route names what was missing.
func responseFromError(err error, notFoundMsg string) errorResponse {
	if reason := validators.Reason(err); reason != "" {
		return errorResponse{http.StatusBadRequest, reason}
	}
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			return e.errorResponse
		}
	}
	if errors.Is(err, store.ErrNotFound) {
		return errorResponse{http.StatusNotFound, notFoundMsg}
	}
	return errorResponse{http.StatusInternalServerError, app.MsgInternalServerError}
}
