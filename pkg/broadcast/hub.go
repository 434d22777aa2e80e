// Package broadcast fans drag notifications out to WebSocket clients, so a
// browser extension or another local tool can react to shakes and drops.
package broadcast

import (
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/offlinefirst/dragsense/pkg/logging"
	"github.com/offlinefirst/dragsense/pkg/pasteboard"
)

const (
	clientBuffer = 16
	writeTimeout = 5 * time.Second
)

// Message is the JSON frame sent to every client.
type Message struct {
	Notification string             `json:"notification"`
	Content      pasteboard.Content `json:"content"`
	Timestamp    time.Time          `json:"timestamp"`
}

// Options configures a Hub.
type Options struct {
	// AllowAnyOrigin disables the same-origin check on upgrade.
	AllowAnyOrigin bool
	Logger         *slog.Logger
}

// Hub accepts WebSocket clients and delivers published messages to each of
// them. Publish never blocks; a client that falls behind loses messages.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	wg      sync.WaitGroup
}

type client struct {
	conn *websocket.Conn
	send chan Message
	once sync.Once
	done chan struct{}
}

func (c *client) stop() {
	c.once.Do(func() { close(c.done) })
}

// NewHub constructs an idle hub.
func NewHub(opts Options) *Hub {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
	if opts.AllowAnyOrigin {
		h.upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	} else {
		h.upgrader.CheckOrigin = isSameOrigin
	}
	return h
}

func isSameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	return originURL.Host == r.Host
}

// ServeHTTP upgrades the request and keeps the client registered until it
// disconnects or the hub closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan Message, clientBuffer), done: make(chan struct{})}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.wg.Add(1)
	h.mu.Unlock()

	h.logger.Debug("websocket client connected", "remote", r.RemoteAddr)

	go h.readLoop(c)
	h.writeLoop(c)

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	conn.Close()
	h.wg.Done()
	h.logger.Debug("websocket client disconnected", "remote", r.RemoteAddr)
}

// readLoop discards inbound frames; its only job is noticing disconnects.
func (h *Hub) readLoop(c *client) {
	defer c.stop()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteJSON(msg); err != nil {
				h.logger.Debug("websocket write failed", "error", err)
				return
			}
		case <-c.done:
			deadline := time.Now().Add(time.Second)
			_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return
		}
	}
}

// Publish queues msg for every connected client and returns how many
// clients accepted it.
func (h *Hub) Publish(msg Message) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for c := range h.clients {
		select {
		case c.send <- msg:
			delivered++
		default:
			h.logger.Warn("websocket client lagging, dropping message", "notification", msg.Notification)
		}
	}
	return delivered
}

// Clients reports the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for c := range h.clients {
		c.stop()
	}
	h.mu.Unlock()
	h.wg.Wait()
}
