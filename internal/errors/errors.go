// Package errors defines the failure taxonomy of the request pipeline.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies where in the pipeline a request failed.
type Kind int

const (
	KindNone Kind = iota
	KindParse
	KindResolution
	KindRead
	KindWrite
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindParse:
		return "parse failure"
	case KindResolution:
		return "resolution failure"
	case KindRead:
		return "read failure"
	case KindWrite:
		return "write failure"
	default:
		return fmt.Sprintf("unknown kind: %d", int(k))
	}
}

// Error wraps an underlying error with its Kind and the operation that failed.
type Error struct {
	Kind       Kind
	Op         string
	underlying error
}

func (e *Error) Error() string {
	if e.underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.underlying)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.underlying
}

// New creates an Error of the given kind.
func New(kind Kind, op string, underlying error) *Error {
	return &Error{
		Kind:       kind,
		Op:         op,
		underlying: underlying,
	}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindNone.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindNone
}
