package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"chapterhub.org/internal/auth"
	"chapterhub.org/internal/obs"
)

func TestLogEvent(t *testing.T) {
	logger := obs.Logger()
	original := logger.Writer()
	logger.SetFlags(0)
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(original)

	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-123")
	ctx = auth.WithPrincipal(ctx, auth.NewPrincipal("user-42", []string{"member"}, true))

	if err := LogEvent(ctx, "access.denied", map[string]any{"guard": "chapter", "resource_id": 4}); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["type"] != "audit" || entry["event"] != "access.denied" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("unexpected request id: %v", entry["request_id"])
	}
	if entry["principal_id"] != "user-42" {
		t.Fatalf("unexpected principal id: %v", entry["principal_id"])
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok || fields["guard"] != "chapter" || fields["resource_id"] != float64(4) {
		t.Fatalf("fields missing or incorrect: %v", entry["fields"])
	}
}

func TestLogEventRequiresName(t *testing.T) {
	if err := LogEvent(context.Background(), "  ", nil); err == nil {
		t.Fatalf("expected error for empty event name")
	}
	if RequestID(WithRequestID(context.Background(), " ")) != "" {
		t.Fatalf("blank request id must not be stored")
	}
}
