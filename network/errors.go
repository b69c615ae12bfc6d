package network

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable wraps transport failures (dial, reset, timeout).
	ErrUnavailable = errors.New("server unavailable")
	// ErrNotOK is returned when a 2xx body lacks "ok": true.
	ErrNotOK = errors.New("server reported failure")
)

// StatusError is a non-2xx HTTP response. Message carries the server's
// "error" field when the body had one, otherwise the status text.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.Code)
	}
	return fmt.Sprintf("http %d: %s", e.Code, e.Message)
}

func notOK(msg string) error {
	if msg == "" {
		return ErrNotOK
	}
	return fmt.Errorf("%w: %s", ErrNotOK, msg)
}
