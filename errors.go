package themis

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds.
var (
	// ErrInvalidArgument reports a malformed key, a wrong buffer length or an
	// envelope that does not parse.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAuthenticationFailure reports a tag or signature mismatch. Operations
	// failing with it never return partial output.
	ErrAuthenticationFailure = errors.New("authentication failure")

	// ErrProtocolState reports an operation that is not valid in the current
	// state, such as Wrap before a session is established.
	ErrProtocolState = errors.New("operation invalid in current protocol state")

	// ErrReplayOrOrdering reports a sequence number mismatch. It is a
	// refinement of ErrAuthenticationFailure: errors of this kind match both.
	ErrReplayOrOrdering = errors.New("replayed or out-of-order message")

	// ErrInternal reports an unrecoverable failure of an underlying primitive.
	ErrInternal = errors.New("internal error")

	// ErrTransport reports a failure of the caller-supplied transport.
	ErrTransport = errors.New("transport failure")

	// ErrTimeout reports a transport receive that ran out of time.
	ErrTimeout = errors.New("timed out")
)

// Error is the error type returned by every operation of the engine.
type Error struct {
	// Op names the failed operation, e.g. "session.Unwrap".
	Op string
	// Kind is one of the Err* sentinels of this package.
	Kind error
	// Err is the underlying cause, if any.
	Err error
}

// NewError returns an *Error for op of the given kind wrapping cause.
func NewError(op string, kind, cause error) *Error {
	return &Error{Op: op, Kind: kind, Err: cause}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("themis: %s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("themis: %s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Is lets replay errors also match ErrAuthenticationFailure.
func (e *Error) Is(target error) bool {
	return e.Kind == ErrReplayOrOrdering && target == ErrAuthenticationFailure
}

// KindOf returns the kind of err, or ErrInternal when err does not come from
// this module. It returns nil for a nil error.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrInternal
}

// TransportError classifies a failure returned by a transport callback:
// context deadlines become ErrTimeout, everything else ErrTransport.
func TransportError(op string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrTimeout) {
		return NewError(op, ErrTimeout, err)
	}
	return NewError(op, ErrTransport, err)
}
