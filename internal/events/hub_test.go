// hub_test.go tests the websocket event hub: subscribe/broadcast flow
// and event payload shape.
package events

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_BroadcastReachesSubscriber(t *testing.T) {
	hub := NewHub(nopLogger())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)

	// Subscriber registration happens in the server goroutine; give the
	// broadcast a few tries rather than sleeping a fixed interval.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		hub.Broadcast(Completed("run-9", "train", true))
		conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		var ev Event
		if err := conn.ReadJSON(&ev); err == nil {
			if ev.Type != TypeRunCompleted || ev.RunID != "run-9" || ev.Task != "train" {
				t.Fatalf("unexpected event: %+v", ev)
			}
			if ev.Success == nil || !*ev.Success {
				t.Fatalf("expected success=true, got %+v", ev.Success)
			}
			return
		}
	}
	t.Fatal("no event received before deadline")
}

func TestHub_BroadcastWithoutSubscribers(t *testing.T) {
	hub := NewHub(nopLogger())
	// Must not block or panic
	hub.Broadcast(Started("run-1", "predict"))
}

func TestStarted_OmitsSuccess(t *testing.T) {
	ev := Started("r", "val")
	if ev.Success != nil {
		t.Error("run_started must not carry a success flag")
	}
	if ev.Type != TypeRunStarted {
		t.Errorf("type = %s", ev.Type)
	}
	if ev.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
}
