package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind tags a provider failure with the signal it carried on the wire.
// The dispatcher's classifier maps kinds to verdicts; adapters only assign
// kinds, they never decide what happens next.
type Kind int

// Failure kinds, roughly ordered from transient to operator-action-needed.
const (
	KindUnknown Kind = iota
	KindRateLimit
	KindUnavailable // 5xx, service overloaded or down
	KindTimeout
	KindConnection
	KindModelGone // 404/410, model id deprecated or removed
	KindAuth      // 401/403
	KindBadRequest
)

// String returns a human-readable label for the kind.
func (k Kind) String() string {
	switch k {
	case KindRateLimit:
		return "rate_limit"
	case KindUnavailable:
		return "unavailable"
	case KindTimeout:
		return "timeout"
	case KindConnection:
		return "connection"
	case KindModelGone:
		return "model_gone"
	case KindAuth:
		return "auth"
	case KindBadRequest:
		return "bad_request"
	default:
		return "unknown"
	}
}

// Error is a raw adapter failure. It carries the originating HTTP status
// (0 when the failure never reached the wire) and a Kind, so classification
// works on structure instead of substring matching.
type Error struct {
	Provider string
	Status   int
	Kind     Kind
	Message  string
	Err      error // wrapped transport error, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: HTTP %d (%s): %s", e.Provider, e.Status, e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s (%s): %s", e.Provider, e.Kind, e.Message)
}

// Unwrap returns the wrapped transport error, if any.
func (e *Error) Unwrap() error { return e.Err }

// ErrModelsExhausted marks the aggregated failure produced when an adapter
// has tried its primary and every fallback model id without success.
var ErrModelsExhausted = errors.New("all fallback models failed")

// KindOf extracts the Kind from an error chain. Errors that are not (and do
// not wrap) a *Error report KindUnknown.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// MapTransportError maps a network-level failure to a typed provider
// error. Cancellation by the caller passes through unchanged so it is
// never mistaken for a provider fault.
func MapTransportError(name string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Provider: name, Kind: KindTimeout, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Provider: name, Kind: KindTimeout, Err: err}
	}
	return &Error{Provider: name, Kind: KindConnection, Err: err}
}

// KindForStatus maps an HTTP status code to a failure kind. Every adapter
// uses the same mapping so equivalent upstream signals always carry the
// same kind regardless of which provider produced them.
func KindForStatus(status int) Kind {
	switch {
	case status == 429:
		return KindRateLimit
	case status == 404 || status == 410:
		return KindModelGone
	case status == 401 || status == 403:
		return KindAuth
	case status == 400:
		return KindBadRequest
	case status >= 500:
		return KindUnavailable
	default:
		return KindUnknown
	}
}
