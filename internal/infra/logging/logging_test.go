//go:build !integration

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"gym-membership/internal/config"
)

func TestWith_AddsContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter(config.LogConfig{Level: "debug", Format: "json"}, false, &buf)

	ctx := WithTraceID(context.Background(), "t-1")
	ctx = WithUserID(ctx, "u-1")
	ctx = WithRole(ctx, "ADMIN")
	With(ctx, base).Info().Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	for k, want := range map[string]string{"trace_id": "t-1", "user_id": "u-1", "role": "ADMIN", "message": "hello"} {
		if entry[k] != want {
			t.Errorf("%s: want %q, got %v", k, want, entry[k])
		}
	}
	if TraceIDFrom(ctx) != "t-1" {
		t.Errorf("TraceIDFrom: got %q", TraceIDFrom(ctx))
	}
}

func TestRedact(t *testing.T) {
	if got := Redact("budi@example.com", false); got != "budi...om" {
		t.Errorf("unexpected redaction %q", got)
	}
	if got := Redact("short", false); got != "***" {
		t.Errorf("unexpected redaction %q", got)
	}
	if got := Redact("budi@example.com", true); got != "budi@example.com" {
		t.Errorf("dev mode must not redact, got %q", got)
	}
}
