package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/trendscore/internal/contracts"
	"github.com/wonny/trendscore/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	clientSendSize = 64
)

// Message is one push frame sent to subscribers
type Message struct {
	Type      string                    `json:"type"`
	Timestamp time.Time                 `json:"timestamp"`
	Data      *contracts.AnalysisResult `json:"data"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub pushes finished analysis results to websocket subscribers
// ⭐ SSOT: 분석 결과 푸시는 이 허브에서만
type Hub struct {
	upgrader   websocket.Upgrader
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
	mu         sync.RWMutex
	logger     *logger.Logger
	now        func() time.Time
}

// NewHub creates a websocket hub; call Run to start dispatching
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		logger:     log.WithField("module", "ws_hub"),
		now:        time.Now,
	}
}

// Run dispatches register/unregister/broadcast until ctx is done; call it once
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.WithField("clients", total).Debug("Subscriber connected")

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// 느린 구독자는 끊음
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()

		case <-ctx.Done():
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

// Clients returns the number of connected subscribers
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish queues a result for every subscriber; drops it when the queue is full
func (h *Hub) Publish(result *contracts.AnalysisResult) {
	if result == nil {
		return
	}
	data, err := json.Marshal(Message{Type: "analysis", Timestamp: h.now(), Data: result})
	if err != nil {
		h.logger.WithError(err).WithField("code", result.Code).Warn("Failed to encode push message")
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.WithField("code", result.Code).Warn("Broadcast queue full, dropping message")
	}
}

// ServeWS upgrades the request and registers the connection
// GET /ws/analysis
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientSendSize)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	case <-r.Context().Done():
		conn.Close()
		return
	}

	go h.writePump(c)
	go h.readPump(c)
}

// readPump discards client frames and detects disconnects
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
