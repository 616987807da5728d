package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ncplot7go/ncengine/internal/logging"
)

// Broadcasting every LogEvent to every connected client (rather than the
// teacher's per-user/per-workflow/per-execution subscription indexes) is
// adequate here: this engine has no multi-tenant workflow concept, only a
// single shared stream of one process's canal runs, so a Hub has nothing
// to index clients by.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 64
)

// Hub fans out LogEvents, produced by the engine via internal/logging, to
// every connected websocket client. It satisfies logging.Observer so it
// can be registered directly with a logging.Manager.
type Hub struct {
	mu      sync.RWMutex
	clients map[*wsClient]bool
	logger  zerolog.Logger
}

// NewHub returns an empty Hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{clients: make(map[*wsClient]bool), logger: logger}
}

// Notify implements logging.Observer, broadcasting event to every client.
func (h *Hub) Notify(event logging.LogEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- event:
		default:
			h.logger.Warn().Str("client_id", c.id).Msg("client buffer full, dropping event")
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

type wsClient struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan logging.LogEvent
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSHandler upgrades GET /events into a websocket stream of LogEvents.
type WSHandler struct {
	hub    *Hub
	logger zerolog.Logger
}

// NewWSHandler builds a WSHandler broadcasting through hub.
func NewWSHandler(hub *Hub, logger zerolog.Logger) *WSHandler {
	return &WSHandler{hub: hub, logger: logger}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &wsClient{id: r.RemoteAddr, hub: h.hub, conn: conn, send: make(chan logging.LogEvent, sendBufferSize)}
	h.hub.register(client)

	go client.writePump()
	go client.readPump(h.hub)
}

// readPump only watches for client disconnect; clients don't send commands
// on this stream.
func (c *wsClient) readPump(hub *Hub) {
	defer func() {
		hub.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
