// Package apperr defines the error kinds surfaced by the scheduling and
// booking engine. Callers branch on the kind with errors.Is against the
// exported sentinels; the HTTP layer maps kinds to status codes.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by what the caller has to do about it.
type Kind string

const (
	// KindInvalidState means the entity is in the wrong lifecycle phase.
	KindInvalidState Kind = "INVALID_STATE"
	// KindInvalidArgument means the request itself is malformed or inconsistent.
	KindInvalidArgument Kind = "INVALID_ARGUMENT"
	// KindSchedulingConflict means time or seat contention; retry with other parameters.
	KindSchedulingConflict Kind = "SCHEDULING_CONFLICT"
	// KindNotFound means an unknown identifier.
	KindNotFound Kind = "NOT_FOUND"
)

// Error carries a kind, the operation that failed and a human readable message.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

// Is reports whether target is the bare sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Msg == "" && t.Kind == e.Kind
}

var (
	ErrInvalidState       = &Error{Kind: KindInvalidState}
	ErrInvalidArgument    = &Error{Kind: KindInvalidArgument}
	ErrSchedulingConflict = &Error{Kind: KindSchedulingConflict}
	ErrNotFound           = &Error{Kind: KindNotFound}
)

func newf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func InvalidState(op, format string, args ...any) error {
	return newf(KindInvalidState, op, format, args...)
}

func InvalidArgument(op, format string, args ...any) error {
	return newf(KindInvalidArgument, op, format, args...)
}

func SchedulingConflict(op, format string, args ...any) error {
	return newf(KindSchedulingConflict, op, format, args...)
}

func NotFound(op, format string, args ...any) error {
	return newf(KindNotFound, op, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
