package keepalive

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/cloudcarver/taskbot/pkg/core/task"
)

func TestServer_Root(t *testing.T) {
	srv := New(0, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "Bot is alive!" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestServer_Healthz(t *testing.T) {
	store := task.NewMemoryStore()
	ctx := context.Background()
	if _, err := store.Add(ctx, "one"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Add(ctx, "two"); err != nil {
		t.Fatal(err)
	}

	srv := New(0, store, zap.NewNop())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var report struct {
		Status string `json:"status"`
		Tasks  int    `json:"tasks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Status != "ok" {
		t.Fatalf("expected status ok, got %q", report.Status)
	}
	if report.Tasks != 2 {
		t.Fatalf("expected 2 tasks, got %d", report.Tasks)
	}
}
