package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"argusgo/pkg/prefs"
	"argusgo/pkg/preset"
)

const clientSendBuffer = 8

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The UI is served from arbitrary origins during development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Event is pushed to every connected client when the sensitivity changes.
type Event struct {
	Type      string         `json:"type"`
	Preset    string         `json:"preset"`
	Policy    PolicyResponse `json:"policy"`
	Timestamp time.Time      `json:"timestamp"`
}

// EventsHandler maintains the set of connected websocket clients and
// fans out sensitivity change events to them.
type EventsHandler struct {
	ctrl *prefs.Controller

	mu         sync.RWMutex
	clients    map[*eventClient]bool
	register   chan *eventClient
	unregister chan *eventClient
	broadcast  chan []byte
	done       chan struct{}
}

type eventClient struct {
	h    *EventsHandler
	conn *websocket.Conn
	send chan []byte
	// initial is written by writePump before any broadcast, so new
	// clients never start stale.
	initial []byte
}

// NewEventsHandler creates an EventsHandler wired to the controller's
// observer list. Run must be started for clients to receive anything.
func NewEventsHandler(ctrl *prefs.Controller) *EventsHandler {
	h := &EventsHandler{
		ctrl:       ctrl,
		clients:    make(map[*eventClient]bool),
		register:   make(chan *eventClient),
		unregister: make(chan *eventClient),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}

	ctrl.Watch(func(p preset.Preset, pol preset.Policy) {
		h.Broadcast(p, pol)
	})

	return h
}

// Broadcast queues a sensitivity event for all connected clients.
func (h *EventsHandler) Broadcast(p preset.Preset, pol preset.Policy) {
	ev := Event{
		Type:      "sensitivity-changed",
		Preset:    string(p),
		Policy:    policyResponse(pol),
		Timestamp: time.Now().UTC(),
	}
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("Failed to marshal event", "error", err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		slog.Warn("Event broadcast queue full, dropping event")
	}
}

// Run is the hub loop. It returns when ctx is cancelled, closing all
// client connections.
func (h *EventsHandler) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			count := len(h.clients)
			h.mu.Unlock()
			slog.Debug("Event client connected", "clients", count)

		case c := <-h.unregister:
			h.removeClient(c)

		case data := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					// Slow consumer, skip this event for it.
				}
			}
			h.mu.RUnlock()

		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *EventsHandler) removeClient(c *eventClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		slog.Debug("Event client disconnected", "clients", len(h.clients))
	}
}

// HandleUpgrade upgrades the request to a websocket and queues the
// current state as the client's first message.
func (h *EventsHandler) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Websocket upgrade failed", "error", err)
		return
	}

	p, pol := h.ctrl.Snapshot()
	ev := Event{Type: "snapshot", Preset: string(p), Policy: policyResponse(pol), Timestamp: time.Now().UTC()}
	initial, err := json.Marshal(ev)
	if err != nil {
		slog.Error("Failed to marshal snapshot", "error", err)
		_ = conn.Close()
		return
	}

	// Only the hub loop ever sends on c.send, so a hub shutdown can
	// never race a send against the close.
	c := &eventClient{h: h, conn: conn, send: make(chan []byte, clientSendBuffer), initial: initial}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (c *eventClient) writePump() {
	defer func() { _ = c.conn.Close() }()
	if err := c.conn.WriteMessage(websocket.TextMessage, c.initial); err != nil {
		return
	}
	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	// Hub closed the channel, say goodbye.
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
}

// readPump discards inbound frames; the stream is one-way. It exists to
// notice the peer closing the connection.
func (c *eventClient) readPump() {
	defer func() {
		select {
		case c.h.unregister <- c:
		case <-c.h.done:
		}
		_ = c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
