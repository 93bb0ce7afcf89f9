package main

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/nshruti113/flow-anomaly-dashboard/internal/metrics"
	"go.uber.org/zap"
)

// Message is the envelope pushed to websocket clients.
type Message struct {
	Type    string      `json:"type"` // verdict, alert
	Payload interface{} `json:"payload"`
}

// Hub tracks websocket clients and fans messages out to them.
type Hub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]bool
	upgrader websocket.Upgrader
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewHub(m *metrics.Metrics, logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		metrics: m,
		logger:  logger,
	}
}

// Handle upgrades the request and keeps the connection until the client leaves
func (h *Hub) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.add(conn)
	defer h.remove(conn)

	h.logger.Debug("websocket client connected", zap.String("remote", conn.RemoteAddr().String()))

	// Keep connection alive
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast sends a message to all connected clients, dropping the ones that fail
func (h *Hub) Broadcast(msgType string, payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := Message{Type: msgType, Payload: payload}
	for client := range h.clients {
		if err := client.WriteJSON(msg); err != nil {
			h.logger.Debug("websocket write failed", zap.Error(err))
			client.Close()
			delete(h.clients, client)
		}
	}
	h.metrics.SetWebsocketClients(len(h.clients))
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// CloseAll disconnects every client
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
	}
	h.metrics.SetWebsocketClients(0)
}

func (h *Hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
	h.metrics.SetWebsocketClients(len(h.clients))
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[conn] {
		conn.Close()
		delete(h.clients, conn)
	}
	h.metrics.SetWebsocketClients(len(h.clients))
}
