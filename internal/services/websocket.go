package services

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Event types pushed to websocket clients
const (
	EventSimulationProgress = "simulation_progress"
	EventSimulationComplete = "simulation_complete"
	EventStrengthsUpdated   = "strengths_updated"
)

// Event is the envelope every websocket message is sent in.
type Event struct {
	Type      string      `json:"type"`
	RunID     string      `json:"run_id,omitempty"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// WSClient is one websocket connection. An empty RunID receives every event.
type WSClient struct {
	RunID string
	Conn  *websocket.Conn
	Send  chan []byte
	Hub   *WebSocketHub
}

type outbound struct {
	runID string
	data  []byte
}

// WebSocketHub fans events out to connected clients.
type WebSocketHub struct {
	clients    map[*WSClient]bool
	broadcast  chan outbound
	register   chan *WSClient
	unregister chan *WSClient
	done       chan struct{}
	logger     *logrus.Logger
	mutex      sync.RWMutex
}

func NewWebSocketHub(logger *logrus.Logger) *WebSocketHub {
	return &WebSocketHub{
		clients:    make(map[*WSClient]bool),
		broadcast:  make(chan outbound, 256),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run owns the client set until ctx ends
func (h *WebSocketHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			close(h.done)
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()

			h.logger.WithFields(logrus.Fields{
				"run_id":        client.RunID,
				"total_clients": total,
			}).Info("WebSocket client connected")

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			total := len(h.clients)
			h.mutex.Unlock()

			h.logger.WithFields(logrus.Fields{
				"run_id":        client.RunID,
				"total_clients": total,
			}).Info("WebSocket client disconnected")

		case msg := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				if client.RunID != "" && msg.runID != "" && client.RunID != msg.runID {
					continue
				}
				select {
				case client.Send <- msg.data:
				default:
					// slow consumer
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// HandleWebSocket upgrades the request. ?run_id= narrows the stream to one run.
func (h *WebSocketHub) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upgrade WebSocket connection")
		return
	}

	client := &WSClient{
		RunID: c.Query("run_id"),
		Conn:  conn,
		Send:  make(chan []byte, 256),
		Hub:   h,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// Publish queues an event for every interested client. It never blocks the
// caller; events are dropped when the hub is saturated.
func (h *WebSocketHub) Publish(eventType, runID string, data interface{}) {
	payload, err := json.Marshal(Event{
		Type:      eventType,
		RunID:     runID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal WebSocket message")
		return
	}

	select {
	case h.broadcast <- outbound{runID: runID, data: payload}:
	default:
		h.logger.WithField("type", eventType).Warn("WebSocket broadcast queue full, dropping event")
	}
}

// GetConnectionCount returns the total number of active connections
func (h *WebSocketHub) GetConnectionCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (c *WSClient) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.WithError(err).Error("WebSocket error")
			}
			return
		}
	}
}

func (c *WSClient) writePump() {
	defer c.Conn.Close()

	for message := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			c.Hub.logger.WithError(err).Error("Failed to write WebSocket message")
			return
		}
	}
	if err := c.Conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
		c.Hub.logger.WithError(err).Debug("Failed to send WebSocket close frame")
	}
}
