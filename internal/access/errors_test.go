package access

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorKindsMapToStatus(t *testing.T) {
	cases := []struct {
		err    error
		kind   Kind
		status int
	}{
		{ErrUnauthenticated, KindUnauthenticated, http.StatusUnauthorized},
		{ErrMemberNotFound, KindMemberNotFound, http.StatusForbidden},
		{ErrNoRoleAssignments, KindNoRoleAssignments, http.StatusForbidden},
		{ErrMembershipExpired, KindMembershipExpired, http.StatusForbidden},
		{BadRequest("chapterId is required"), KindBadRequest, http.StatusBadRequest},
		{Forbidden("no access to chapter %d", 4), KindForbidden, http.StatusForbidden},
		{Internal("boom", errors.New("db down")), KindInternal, http.StatusInternalServerError},
		{errors.New("plain"), KindInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.kind {
			t.Fatalf("KindOf(%v)=%s, want %s", tc.err, got, tc.kind)
		}
		if got := AsError(tc.err).HTTPStatus(); got != tc.status {
			t.Fatalf("status for %v=%d, want %d", tc.err, got, tc.status)
		}
	}
	if KindOf(nil) != "" || AsError(nil) != nil {
		t.Fatalf("nil error must stay nil")
	}
}

func TestErrorsIsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("guard: %w", Forbidden("no access to zone %d", 13))
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected wrapped forbidden to match sentinel")
	}
	if errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("kinds must not cross-match")
	}

	cause := errors.New("connection reset")
	internal := Internal("profile lookup failed", cause)
	if !errors.Is(internal, cause) {
		t.Fatalf("internal error must unwrap to its cause")
	}
	if internal.PublicMessage() != "internal error" {
		t.Fatalf("internal details leaked: %q", internal.PublicMessage())
	}
	if Forbidden("no access to chapter %d", 3).PublicMessage() != "no access to chapter 3" {
		t.Fatalf("unexpected public message")
	}
}
