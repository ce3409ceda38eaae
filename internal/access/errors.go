package access

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies every failure the access core can report.
type Kind string

const (
	KindUnauthenticated   Kind = "unauthenticated"
	KindMemberNotFound    Kind = "member_not_found"
	KindNoRoleAssignments Kind = "no_role_assignments"
	KindMembershipExpired Kind = "membership_expired"
	KindBadRequest        Kind = "bad_request"
	KindForbidden         Kind = "forbidden"
	KindInternal          Kind = "internal_error"
)

var kindStatus = map[Kind]int{
	KindUnauthenticated:   http.StatusUnauthorized,
	KindMemberNotFound:    http.StatusForbidden,
	KindNoRoleAssignments: http.StatusForbidden,
	KindMembershipExpired: http.StatusForbidden,
	KindBadRequest:        http.StatusBadRequest,
	KindForbidden:         http.StatusForbidden,
	KindInternal:          http.StatusInternalServerError,
}

// HTTPStatus maps the kind to its HTTP status code. Unknown kinds are 500.
func (k Kind) HTTPStatus() int {
	if code, ok := kindStatus[k]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// Error is the typed failure returned by inference and guards.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrForbidden)
// holds for every forbidden verdict regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// HTTPStatus returns the status code for this error's kind.
func (e *Error) HTTPStatus() int { return e.Kind.HTTPStatus() }

// PublicMessage is safe to return to callers; internal causes stay in logs.
func (e *Error) PublicMessage() string {
	if e.Kind == KindInternal {
		return "internal error"
	}
	return e.Message
}

var (
	ErrUnauthenticated   = &Error{Kind: KindUnauthenticated, Message: "authentication required"}
	ErrMemberNotFound    = &Error{Kind: KindMemberNotFound, Message: "no member profile is linked to this account"}
	ErrNoRoleAssignments = &Error{Kind: KindNoRoleAssignments, Message: "member has no chapter or zone role assignments"}
	ErrMembershipExpired = &Error{Kind: KindMembershipExpired, Message: "membership has expired"}
	ErrBadRequest        = &Error{Kind: KindBadRequest, Message: "bad request"}
	ErrForbidden         = &Error{Kind: KindForbidden, Message: "access denied"}
	ErrInternal          = &Error{Kind: KindInternal, Message: "internal error"}
)

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Unauthenticated reports a missing or invalid credential.
func Unauthenticated(msg string) *Error { return newError(KindUnauthenticated, msg, nil) }

// BadRequest reports a malformed or missing resource identifier.
func BadRequest(format string, args ...any) *Error {
	return newError(KindBadRequest, fmt.Sprintf(format, args...), nil)
}

// Forbidden reports an identified principal without the required scope.
func Forbidden(format string, args ...any) *Error {
	return newError(KindForbidden, fmt.Sprintf(format, args...), nil)
}

// Internal wraps an unexpected failure.
func Internal(msg string, err error) *Error { return newError(KindInternal, msg, err) }

// KindOf classifies err. Errors outside the taxonomy are internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// AsError converts any error into an *Error, wrapping foreign errors as internal.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal("unexpected failure", err)
}
