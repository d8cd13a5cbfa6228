package hub

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"gallery-ingest/internal/dispatch"
	"gallery-ingest/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

// ErrClosed is returned by SendMessage after Close.
var ErrClosed = errors.New("hub closed")

// Message is the frame sent to subscribers.
type Message struct {
	Method  string `json:"method"`
	Payload string `json:"payload"`
}

type client struct {
	id     string
	target string
	conn   *websocket.Conn
	send   chan Message
	done   chan struct{}
	once   sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// Hub routes messages to websocket clients by target. It implements
// dispatch.Messenger.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]map[string]*client
	closed  bool
}

// New returns an empty Hub. Origins are not checked.
func New() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[string]map[string]*client),
	}
}

// SendMessage queues a message for every client subscribed to target.
func (h *Hub) SendMessage(target, method, payload string) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return ErrClosed
	}
	subs := h.clients[target]
	if len(subs) == 0 {
		return fmt.Errorf("%q: %w", target, dispatch.ErrNoReceiver)
	}

	msg := Message{Method: method, Payload: payload}
	for _, c := range subs {
		select {
		case c.send <- msg:
		default:
			logging.Warn("hub: client %s for %s is not keeping up, disconnecting", c.id, target)
			c.close()
		}
	}
	return nil
}

// Subscribers returns the number of clients subscribed to target.
func (h *Hub) Subscribers(target string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[target])
}

// ServeHTTP upgrades the request to a websocket subscribed to the target
// named by the "target" query parameter.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("target")
	if target == "" {
		http.Error(w, "target is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response.
		logging.Warn("hub: websocket upgrade failed: %v", err)
		return
	}

	c := &client{
		id:     uuid.NewString(),
		target: target,
		conn:   conn,
		send:   make(chan Message, sendBuffer),
		done:   make(chan struct{}),
	}
	if !h.register(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		conn.Close()
		return
	}

	logging.Debug("hub: client %s subscribed to %s", c.id, target)
	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	if h.clients[c.target] == nil {
		h.clients[c.target] = make(map[string]*client)
	}
	h.clients[c.target][c.id] = c
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs := h.clients[c.target]; subs != nil {
		delete(subs, c.id)
		if len(subs) == 0 {
			delete(h.clients, c.target)
		}
	}
}

// readPump discards incoming frames and returns when the connection ends.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.close()
		logging.Debug("hub: client %s disconnected", c.id)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Debug("hub: client %s read error: %v", c.id, err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				logging.Warn("hub: write to client %s failed: %v", c.id, err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}

// Close disconnects every client. Later SendMessage calls fail.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for _, subs := range h.clients {
		for _, c := range subs {
			c.close()
		}
	}
}
