package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	sendBuffer   = 8
	writeTimeout = 2 * time.Second
)

// Pose is one camera sample as sent to viewers.
type Pose struct {
	Scene     string   `json:"scene"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Z         float64  `json:"z"`
	Yaw       float64  `json:"yaw"`
	Pitch     float64  `json:"pitch"`
	State     string   `json:"state"`
	Inventory []string `json:"inventory"`
}

type client struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
}

// Hub broadcasts poses to websocket viewers. Publish never blocks: a viewer
// whose buffer is full misses samples.
type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	clients map[*client]struct{}
	latest  []byte
	last    time.Time
	server  *http.Server
	addr    string
	closed  bool
}

func NewHub(interval time.Duration, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log:      log,
		interval: interval,
		now:      time.Now,
		clients:  make(map[*client]struct{}),
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{id: uuid.New(), conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
			time.Now().Add(writeTimeout))
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	if h.latest != nil {
		c.send <- h.latest
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Debug("viewer connected",
		zap.Stringer("viewer", c.id),
		zap.String("remote", r.RemoteAddr),
		zap.Int("viewers", n))

	go h.writeLoop(c)
	h.readLoop(c)
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Debug("viewer write failed", zap.Stringer("viewer", c.id), zap.Error(err))
			h.drop(c)
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout))
}

// readLoop discards viewer messages and notices disconnects.
func (h *Hub) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.drop(c)
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.log.Debug("viewer disconnected", zap.Stringer("viewer", c.id), zap.Int("viewers", len(h.clients)))
}

// Publish sends p to every viewer unless the previous sample went out less
// than the interval ago. It reports whether p was sent.
func (h *Hub) Publish(p Pose) bool {
	if h == nil {
		return false
	}
	now := h.now()

	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.last.IsZero() && now.Sub(h.last) < h.interval {
		return false
	}
	if p.Inventory == nil {
		p.Inventory = []string{}
	}
	msg, err := json.Marshal(p)
	if err != nil {
		h.log.Error("marshal pose", zap.Error(err))
		return false
	}
	h.last = now
	h.latest = msg
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
	return true
}

func (h *Hub) Clients() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Start serves the feed at GET /pose on addr.
func (h *Hub) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("GET /pose", h)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	h.mu.Lock()
	h.server = srv
	h.addr = ln.Addr().String()
	h.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.log.Error("feed server stopped", zap.Error(err))
		}
	}()
	h.log.Info("pose feed listening", zap.String("addr", h.addr))
	return nil
}

// Addr is the listening address once Start succeeded.
func (h *Hub) Addr() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.addr
}

// Close stops the server and disconnects every viewer. Viewers that
// connect afterwards are turned away.
func (h *Hub) Close(ctx context.Context) error {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	h.closed = true
	srv := h.server
	h.server = nil
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
