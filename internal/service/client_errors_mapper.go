// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MKhiriev/go-social-sync/internal/adapter"
	"github.com/MKhiriev/go-social-sync/internal/app"
	"github.com/MKhiriev/go-social-sync/internal/store"
)

// mapAdapterError translates an adapter error into one of the user-facing
// categories, keeping the server message when there is one.
func mapAdapterError(err error) error {
	if err == nil {
		return nil
	}

	msg := extractBody(err)

	switch {
	case errors.Is(err, adapter.ErrUnauthorized):
		switch msg {
		case app.MsgInvalidLoginPassword, app.MsgWrongOldPassword:
			return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
		}
		return ErrUnauthorized

	case errors.Is(err, adapter.ErrForbidden):
		return fmt.Errorf("%w: %s", ErrUnauthorized, app.MsgAccessDenied)

	case errors.Is(err, adapter.ErrBadRequest), errors.Is(err, adapter.ErrConflict):
		if msg == "" {
			msg = app.MsgInvalidDataProvided
		}
		return fmt.Errorf("%w: %s", ErrValidation, msg)

	case errors.Is(err, adapter.ErrNotFound):
		if msg == "" {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	}

	return fmt.Errorf("%w: %s", ErrNetwork, err.Error())
}

// isPermanent reports whether a mapped error will not go away by retrying
// the same request.
func isPermanent(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound)
}

func isRemoteNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func isLocalNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

// extractBody returns the server message of an adapter error of the form
// "<op>: <category>: <body>".
func extractBody(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{
		adapter.ErrUnauthorized, adapter.ErrForbidden, adapter.ErrBadRequest,
		adapter.ErrConflict, adapter.ErrNotFound,
	} {
		prefix := sentinel.Error() + ": "
		if idx := strings.Index(msg, prefix); idx != -1 {
			return strings.TrimSpace(msg[idx+len(prefix):])
		}
	}
	return ""
}
