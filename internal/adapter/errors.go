package adapter

import "errors"

var (
	// ErrUnavailable is returned when the server cannot be reached or
	// answers with a gateway or throttling status.
	ErrUnavailable = errors.New("server unavailable")

	ErrBadRequest          = errors.New("bad request")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrInternalServerError = errors.New("internal server error")

	// ErrUnexpectedStatus covers every status without a dedicated sentinel.
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// IsTransient reports whether err is worth retrying later: the request did
// not reach the server, or the server failed on its side.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrInternalServerError)
}
