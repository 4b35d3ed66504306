// Package httpapi exposes the committed lottery snapshot as read-only JSON
// over HTTP, mirroring internal/app's ABCI Query paths for clients that
// would rather poll a REST endpoint than speak the ABCI query socket, plus
// a live websocket feed of the events the core emits each block.
package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/decred/slog"
	"github.com/gin-gonic/gin"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboards are read-only and unauthenticated by design
	},
}

// Hub fans out broadcastEvent payloads to every subscribed websocket
// client, the same shape as the BTC-coinjoin pack's Hub.
type Hub struct {
	log       slog.Logger
	mu        sync.Mutex
	clients   map[uuid.UUID]*websocket.Conn
	broadcast chan []byte
}

// NewHub builds a Hub. Run must be called once, in its own goroutine, to
// drain the broadcast channel.
func NewHub(log slog.Logger) *Hub {
	return &Hub{
		log:       log,
		clients:   make(map[uuid.UUID]*websocket.Conn),
		broadcast: make(chan []byte, 256),
	}
}

// Run drains broadcast, writing each message to every connected client. It
// blocks until the Hub's broadcast channel is closed.
func (h *Hub) Run() {
	for message := range h.broadcast {
		h.mu.Lock()
		for id, conn := range h.clients {
			if err := conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				h.log.Warnf("httpapi: dropping subscriber %s: %v", id, err)
				conn.Close()
				delete(h.clients, id)
			}
		}
		h.mu.Unlock()
	}
}

// Broadcast queues data for delivery to every connected subscriber. It
// never blocks the caller beyond the channel's buffer.
func (h *Hub) Broadcast(data []byte) {
	select {
	case h.broadcast <- data:
	default:
		h.log.Warnf("httpapi: broadcast channel full, dropping event")
	}
}

// Subscribe upgrades the request to a websocket and registers the
// connection under a fresh subscriber id. The only traffic expected from
// the client is the close handshake; anything it sends is read and
// discarded, and the subscriber is removed once a read fails.
func (h *Hub) Subscribe(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warnf("httpapi: websocket upgrade failed: %v", err)
		return
	}

	id := uuid.New()
	h.mu.Lock()
	h.clients[id] = conn
	subscriberCount := len(h.clients)
	h.mu.Unlock()
	h.log.Infof("httpapi: subscriber %s connected, total=%d", id, subscriberCount)

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, id)
			remaining := len(h.clients)
			h.mu.Unlock()
			conn.Close()
			h.log.Infof("httpapi: subscriber %s disconnected, total=%d", id, remaining)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.log.Debugf("httpapi: subscriber %s read error: %v", id, err)
				}
				return
			}
		}
	}()
}
