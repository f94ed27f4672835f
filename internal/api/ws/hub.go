package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/oshokin/lightshow/internal/domain/lights"
	"github.com/oshokin/lightshow/internal/logger"
)

// writeTimeout bounds a single websocket write.
const writeTimeout = time.Second

// StateSource provides the snapshot sent to new clients.
type StateSource interface {
	State() lights.State
}

// client is one connected websocket.
type client struct {
	// conn is the websocket connection.
	conn *websocket.Conn
	// send holds at most one pending snapshot; newer snapshots replace it.
	send chan lights.State
}

// Hub serves the state feed and fans snapshots out to every client.
type Hub struct {
	// ctx carries the hub's logger.
	ctx context.Context //nolint:containedctx // Only used for logging.
	// source provides the initial snapshot.
	source StateSource
	// upgrader turns HTTP requests into websockets.
	upgrader websocket.Upgrader

	// mu guards clients.
	mu sync.Mutex
	// clients are the connected websockets.
	clients map[*client]struct{}
}

// NewHub creates a hub reading initial snapshots from source.
func NewHub(ctx context.Context, source StateSource) *Hub {
	return &Hub{
		ctx:    logger.WithName(ctx, "ws"),
		source: source,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and streams snapshots until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.DebugKV(h.ctx, "Websocket upgrade failed", "error", err)

		return
	}

	c := &client{
		conn: conn,
		send: make(chan lights.State, 1),
	}

	c.send <- h.source.State()

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	logger.DebugKV(h.ctx, "Websocket client connected", "remote", r.RemoteAddr)

	go h.write(c)

	// Reads only detect the close; clients never send anything useful.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(c)
	logger.DebugKV(h.ctx, "Websocket client disconnected", "remote", r.RemoteAddr)
}

// Publish queues state for every client, replacing snapshots not yet sent.
func (h *Hub) Publish(state lights.State) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- state:
			continue
		default:
		}

		select {
		case <-c.send:
		default:
		}

		select {
		case c.send <- state:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))

	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.remove(c)
	}
}

// write sends queued snapshots until the client is removed.
func (h *Hub) write(c *client) {
	for state := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			break
		}

		if err := c.conn.WriteJSON(state); err != nil {
			logger.DebugKV(h.ctx, "Websocket write failed", "error", err)

			break
		}
	}

	_ = c.conn.Close()
}

// remove unregisters c and stops its writer. It is safe to call twice.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}

	delete(h.clients, c)
	close(c.send)
}
