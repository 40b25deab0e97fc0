package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"ContraTrack/internal/domain/models"
	applogger "ContraTrack/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is the envelope written to every client.
type Message struct {
	Type     string      `json:"type"`
	ServerID string      `json:"server_id"`
	Payload  interface{} `json:"payload"`
}

type client struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	symbol string // empty receives every symbol
}

func (c *client) write(data []byte, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub broadcasts analysis reports to websocket subscribers.
// Clients may pass ?symbol=AAPL to receive only that symbol.
type Hub struct {
	log          *applogger.Logger
	mu           sync.RWMutex
	clients      map[*client]struct{}
	serverID     string
	writeTimeout time.Duration
}

func NewHub(l *applogger.Logger) *Hub {
	if l == nil {
		l = applogger.Nop()
	}
	return &Hub{
		log:          l,
		clients:      make(map[*client]struct{}),
		serverID:     uuid.NewString(),
		writeTimeout: 5 * time.Second,
	}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/analysis", h.ServeWS)
}

// ServeWS upgrades the request and blocks until the client goes away.
func (h *Hub) ServeWS(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", applogger.Error(err))
		return nil
	}

	cl := &client{conn: conn, symbol: strings.ToUpper(strings.TrimSpace(c.QueryParam("symbol")))}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Info("websocket client connected", applogger.String("symbol", cl.symbol), applogger.Int("clients", n))

	hello, _ := json.Marshal(Message{Type: "hello", ServerID: h.serverID})
	_ = cl.write(hello, h.writeTimeout)

	// inbound frames are ignored; reading keeps control frames flowing
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(cl)
	return nil
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		_ = cl.conn.Close()
	}
	h.mu.Unlock()
}

// PublishAnalysis writes the report to every interested client.
// Clients that fail a write are dropped.
func (h *Hub) PublishAnalysis(_ context.Context, r *models.AnalysisReport) error {
	data, err := json.Marshal(Message{Type: "analysis", ServerID: h.serverID, Payload: r})
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for cl := range h.clients {
		if cl.symbol == "" || cl.symbol == r.Symbol {
			targets = append(targets, cl)
		}
	}
	h.mu.RUnlock()

	for _, cl := range targets {
		if err := cl.write(data, h.writeTimeout); err != nil {
			h.log.Warn("websocket write failed", applogger.Error(err))
			h.remove(cl)
		}
	}
	return nil
}

// Clients is the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for cl := range h.clients {
		_ = cl.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"), time.Now().Add(time.Second))
		_ = cl.conn.Close()
		delete(h.clients, cl)
	}
	return nil
}
