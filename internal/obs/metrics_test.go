package obs

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                          "/",
		"/metrics":                  "/metrics",
		"/v1/zones/12":              "/v1/zones/:id",
		"/v1/zones/12/chapters":     "/v1/zones/:id/chapters",
		"/v1/chapters/7/meetings":   "/v1/chapters/:id/meetings",
		"/v1/chapters/abc":          "/v1/chapters/abc",
		"/v1/me/access?verbose=1":   "/v1/me/access",
		"/v1/zones/12/chapters?x=5": "/v1/zones/:id/chapters",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}

func TestObserveGuardCountsByOutcome(t *testing.T) {
	before := testutil.ToFloat64(guardDecisions.WithLabelValues("chapter", "deny"))
	ObserveGuard("chapter", "deny")
	ObserveGuard("chapter", "deny")
	after := testutil.ToFloat64(guardDecisions.WithLabelValues("chapter", "deny"))
	if after-before != 2 {
		t.Fatalf("expected 2 new deny decisions, got %v", after-before)
	}

	beforeInf := testutil.ToFloat64(inferenceTotal.WithLabelValues("ok"))
	ObserveInference("ok", 3*time.Millisecond)
	if got := testutil.ToFloat64(inferenceTotal.WithLabelValues("ok")); got-beforeInf != 1 {
		t.Fatalf("expected one inference observation, got %v", got-beforeInf)
	}
}
