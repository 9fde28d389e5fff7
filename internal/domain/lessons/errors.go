package lessons

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the closed set of failure kinds the lesson operations can raise.
// The string values are part of the external contract.
type Kind string

const (
	KindBadInput       Kind = "BAD_INPUT"
	KindBadStatus      Kind = "BAD_STATUS"
	KindBadProgress    Kind = "BAD_PROGRESS"
	KindNotFound       Kind = "NOT_FOUND"
	KindCourseNotFound Kind = "COURSE_NOT_FOUND"
	KindEmptyMessage   Kind = "EMPTY_MESSAGE"
	KindConflict       Kind = "CONFLICT"
	KindInternal       Kind = "INTERNAL"
)

type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		fmt.Fprintf(&b, " (%s)", e.Message)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(kind Kind, op, message string, cause error) error {
	return &Error{Kind: kind, Op: strings.TrimSpace(op), Message: strings.TrimSpace(message), Cause: cause}
}

// Internal wraps an unclassified failure.
func Internal(op string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: KindInternal, Op: op, Message: cause.Error(), Cause: cause}
}

// KindOf returns the kind carried by err, KindInternal for any other non-nil
// error, and "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindInternal
}

func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
