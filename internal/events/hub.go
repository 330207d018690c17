// Package events broadcasts run lifecycle events to websocket subscribers.
//
// Training and benchmark runs hold an HTTP request open for minutes to
// hours, so dashboards subscribe to GET /ws instead of polling: the hub
// pushes a run_started event when an operation begins and a
// run_completed event when its record is final. Slow or dead
// subscribers are dropped rather than allowed to stall the broadcast.
package events

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event types pushed to subscribers.
const (
	TypeRunStarted   = "run_started"
	TypeRunCompleted = "run_completed"
)

// Event is a single run lifecycle notification.
type Event struct {
	Type      string    `json:"type"`
	RunID     string    `json:"run_id"`
	Task      string    `json:"task"`
	Success   *bool     `json:"success,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Started builds a run_started event.
func Started(runID, task string) Event {
	return Event{
		Type:      TypeRunStarted,
		RunID:     runID,
		Task:      task,
		Timestamp: time.Now().UTC(),
	}
}

// Completed builds a run_completed event.
func Completed(runID, task string, success bool) Event {
	return Event{
		Type:      TypeRunCompleted,
		RunID:     runID,
		Task:      task,
		Success:   &success,
		Timestamp: time.Now().UTC(),
	}
}

// Per-subscriber send buffer. A subscriber that falls this far behind
// is disconnected.
const sendBuffer = 16

// Writes must complete within this deadline or the subscriber is
// considered dead.
const writeTimeout = 10 * time.Second

// Hub fans events out to all connected websocket subscribers.
type Hub struct {
	mu       sync.Mutex
	subs     map[*websocket.Conn]chan Event
	closed   bool
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHub creates an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subs: make(map[*websocket.Conn]chan Event),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
}

// ServeHTTP upgrades the request to a websocket connection and streams
// events until the client disconnects or the hub shuts down.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	ch := make(chan Event, sendBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.subs[conn] = ch
	n := len(h.subs)
	h.mu.Unlock()

	h.logger.Debug("subscriber connected", slog.Int("subscribers", n))

	go h.writeLoop(conn, ch)

	// Read loop exists only to observe the close; inbound messages
	// are discarded.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(conn)
}

// writeLoop serializes events to one subscriber.
func (h *Hub) writeLoop(conn *websocket.Conn, ch chan Event) {
	for ev := range ch {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(ev); err != nil {
			h.drop(conn)
			return
		}
	}
	// Channel closed: hub shutdown or slow-client drop
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	conn.Close()
}

// Broadcast delivers the event to every subscriber. Subscribers whose
// buffers are full are dropped.
func (h *Hub) Broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			delete(h.subs, conn)
			close(ch)
			h.logger.Warn("dropping slow websocket subscriber")
		}
	}
}

// drop removes a single subscriber.
func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	if ch, ok := h.subs[conn]; ok {
		delete(h.subs, conn)
		close(ch)
	}
	h.mu.Unlock()
	conn.Close()
}

// Shutdown disconnects all subscribers and rejects new ones.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	for _, ch := range h.subs {
		// writeLoop closes the connection once its channel drains
		close(ch)
	}
	h.subs = make(map[*websocket.Conn]chan Event)
	h.mu.Unlock()
	return nil
}
