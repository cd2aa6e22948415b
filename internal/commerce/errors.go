package commerce

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Kind classifies a commerce API failure. The split between confirmed
// not-found and everything else is load-bearing: only not-found may
// invalidate a stored cart identifier.
type Kind string

const (
	// KindNetwork: the request never completed (DNS, connect, reset).
	KindNetwork Kind = "network"
	// KindTimeout: the per-request deadline elapsed before a response.
	KindTimeout Kind = "timeout"
	// KindNotFound: the server answered 404 for a resource the caller
	// expected to exist.
	KindNotFound Kind = "not_found"
	// KindValidation: the server rejected the request (4xx other than 404),
	// or a response payload failed validation locally.
	KindValidation Kind = "validation"
	// KindServer: the server answered 5xx.
	KindServer Kind = "server"
)

// Error is a classified commerce API failure.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("commerce api: %s (%s %d)", e.Message, e.Kind, e.Status)
	}
	return fmt.Sprintf("commerce api: %s (%s)", e.Message, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// kindOf extracts the Kind from err, or "" when err is not a commerce Error.
func kindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// IsTimeout reports whether err is a request deadline failure.
func IsTimeout(err error) bool { return kindOf(err) == KindTimeout }

// IsNetwork reports whether err is a transport failure with no response.
func IsNetwork(err error) bool { return kindOf(err) == KindNetwork }

// IsNotFound reports whether the server confirmed the resource missing.
func IsNotFound(err error) bool { return kindOf(err) == KindNotFound }

// IsValidation reports whether the request or payload was rejected as invalid.
func IsValidation(err error) bool { return kindOf(err) == KindValidation }

// IsServer reports whether the server failed with a 5xx.
func IsServer(err error) bool { return kindOf(err) == KindServer }
