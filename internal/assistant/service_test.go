package assistant

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerateLocalFallbackWithoutKey(t *testing.T) {
	svc := NewService(ServiceConfig{})

	res, err := svc.Generate(context.Background(), "What is the pass mark?")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if res.Source != "local" {
		t.Fatalf("source = %q, want local without an API key", res.Source)
	}
	if !strings.Contains(res.Reply, "300") {
		t.Fatalf("reply %q should mention the pass mark", res.Reply)
	}
}

func TestGenerateRejectsBadQueries(t *testing.T) {
	svc := NewService(ServiceConfig{})

	if _, err := svc.Generate(context.Background(), "   "); err == nil {
		t.Fatalf("empty query should be rejected")
	}
	if _, err := svc.Generate(context.Background(), strings.Repeat("x", 1300)); err == nil {
		t.Fatalf("oversized query should be rejected")
	}
}

func TestReplyHandlerGatesByPlan(t *testing.T) {
	h := NewHandler(NewService(ServiceConfig{}))

	do := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/assistant/reply", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		h.Reply(rec, req)
		return rec
	}

	if rec := do(`{"plan":"free","query":"help"}`); rec.Code != http.StatusForbidden {
		t.Fatalf("free plan status = %d, want 403", rec.Code)
	}
	if rec := do(`{"plan":"ultimate","query":"what does flk1 cover?"}`); rec.Code != http.StatusOK {
		t.Fatalf("ultimate plan status = %d, want 200", rec.Code)
	}
	if rec := do(`{"plan":"ultimate","query":""}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty query status = %d, want 400", rec.Code)
	}
}
