// notify_test.go tests webhook delivery: payload shape, the disabled
// no-URL case, and error reporting for rejecting receivers.
package notify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotify_DeliversJSON(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(srv.URL, nopLogger())
	err := n.Notify(context.Background(), map[string]any{"run_id": "abc", "success": true})
	if err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if got["run_id"] != "abc" || got["success"] != true {
		t.Errorf("payload mismatch: %v", got)
	}
}

func TestNotify_Disabled(t *testing.T) {
	n := New("", nopLogger())
	if n.Enabled() {
		t.Error("empty URL must report disabled")
	}
	if err := n.Notify(context.Background(), map[string]any{}); err != nil {
		t.Errorf("disabled notifier must be a no-op, got %v", err)
	}
}

func TestNotify_RejectingReceiver(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	n := New(srv.URL, nopLogger())
	if err := n.Notify(context.Background(), map[string]any{}); err == nil {
		t.Error("expected error for non-2xx response")
	}
}
