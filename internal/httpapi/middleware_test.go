package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chapterhub.org/internal/audit"
	"chapterhub.org/internal/ids"
	"chapterhub.org/internal/obs"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitPerClient(t *testing.T) {
	handler := RequestID(RateLimit(okHandler(), 1, 1))

	send := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/me/access", nil)
		req.RemoteAddr = remote
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	if rr := send("10.0.0.1:1234"); rr.Code != http.StatusOK {
		t.Fatalf("expected first call 200, got %d", rr.Code)
	}
	rr := send("10.0.0.1:5678")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode rate limit body: %v", err)
	}
	if body["code"] != "rate_limited" || body["request_id"] == nil {
		t.Fatalf("unexpected body: %v", body)
	}

	if rr := send("10.0.0.2:1234"); rr.Code != http.StatusOK {
		t.Fatalf("other clients keep their own bucket, got %d", rr.Code)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = audit.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "upstream-42")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if seen != "upstream-42" || rr.Header().Get(requestIDHeader) != "upstream-42" {
		t.Fatalf("inbound id not reused: ctx=%q header=%q", seen, rr.Header().Get(requestIDHeader))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "bad id with spaces")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if !ids.Valid(seen) || rr.Header().Get(requestIDHeader) != seen {
		t.Fatalf("expected minted ULID, got %q", seen)
	}
}

func TestLoggingJSONEmitsRequestComplete(t *testing.T) {
	logger := obs.Logger()
	orig := logger.Writer()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(orig)

	handler := RequestID(LoggingJSON(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))
	req := httptest.NewRequest(http.MethodGet, "/v1/chapters/5", nil)
	req.RemoteAddr = "127.0.0.1:1234"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry); err != nil {
		t.Fatalf("log is not valid JSON: %v (%q)", err, buf.String())
	}
	for _, key := range []string{"ts", "level", "msg", "request_id", "method", "path", "status", "duration_ms"} {
		if _, ok := entry[key]; !ok {
			t.Fatalf("expected key %q in log entry", key)
		}
	}
	if entry["msg"] != "request_complete" || entry["status"] != float64(http.StatusTeapot) {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestCORSAndSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(CORS(okHandler()))

	req := httptest.NewRequest(http.MethodOptions, "/v1/me/access", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected preflight 204, got %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Fatalf("local origin not allowed")
	}
	if !strings.Contains(rr.Header().Get("Access-Control-Allow-Headers"), "Authorization") {
		t.Fatalf("Authorization must be an allowed header")
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing security headers")
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/me/access", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("foreign origin must not be echoed")
	}
}
