package stream

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Event types pushed to dashboard clients.
const (
	EventSuggestions      = "suggestions"
	EventDecisionRecorded = "decision_recorded"
	EventApprovalState    = "approval_state"
)

type Event struct {
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Data any       `json:"data,omitempty"`
}

// Hub fans events out to connected websocket clients. Publishing never
// blocks: a subscriber that cannot keep up is dropped.
type Hub struct {
	logger *zap.Logger

	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger: logger,
		subs:   map[chan Event]struct{}{},
	}
}

func (h *Hub) Publish(eventType string, data any) {
	ev := Event{Type: eventType, At: time.Now().UTC(), Data: data}
	h.mu.Lock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			delete(h.subs, ch)
			close(ch)
			if h.logger != nil {
				h.logger.Warn("dropped slow stream subscriber", zap.String("event", eventType))
			}
		}
	}
	h.mu.Unlock()
}

// Subscribe registers a listener. The returned cancel func must be called
// when the listener goes away; it is safe to call after the hub already
// dropped the subscriber.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Serve upgrades the request to a websocket and forwards hub events until
// the client disconnects or ctx ends.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) error {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	// CloseRead surfaces client disconnects through ctx cancellation; the
	// feed is write-only from the server side.
	ctx := conn.CloseRead(r.Context())

	events, cancel := h.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			writeCtx, cancelWrite := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, ev)
			cancelWrite()
			if err != nil {
				return err
			}
		}
	}
}
