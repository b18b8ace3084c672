package adapter

import "errors"

// Errors returned by [ServerAdapter] implementations. HTTP failures map to
// one of the status errors; everything that prevented a response from
// arriving (dial failure, timeout, reset) is [ErrTransport].
var (
	ErrBadRequest          = errors.New("bad request")
	ErrUnauthorized        = errors.New("client unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrBadGateway          = errors.New("bad gateway")
	ErrInternalServerError = errors.New("internal server error")
	ErrUnexpectedStatus    = errors.New("unexpected status")

	ErrTransport = errors.New("transport error")
	ErrDecode    = errors.New("failed to decode response")
)
