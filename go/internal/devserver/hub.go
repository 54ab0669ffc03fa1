package devserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/gamenight/liveboard/go/internal/models"
)

// Hub manages the push channel connections of all dashboard clients
type Hub struct {
	connections map[*Connection]bool
	mu          sync.RWMutex

	upgrader websocket.Upgrader
	config   HubConfig

	broadcastCh chan broadcastMessage
}

// Connection represents one client's push channel
type Connection struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
	Hub  *Hub

	ConnectedAt time.Time
}

// HubConfig holds configuration for push connections
type HubConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

type broadcastMessage struct {
	envelope models.PushEnvelope
	exclude  *Connection // skip the sender when relaying
}

// DefaultHubConfig returns default push hub configuration
func DefaultHubConfig() HubConfig {
	return HubConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  64 * 1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Dev server, allow all origins
			return true
		},
	}
}

// NewHub creates a push hub
func NewHub(config HubConfig) *Hub {
	return &Hub{
		connections: make(map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan broadcastMessage, 256),
	}
}

// Start begins processing broadcast messages
func (h *Hub) Start(ctx context.Context) {
	log.Info().Msg("push hub started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("push hub shutting down")
			return
		case message := <-h.broadcastCh:
			h.handleBroadcast(message)
		}
	}
}

// HandleConnection upgrades an HTTP request to a push channel
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan []byte, 256),
		Hub:         h,
		ConnectedAt: time.Now(),
	}

	h.register(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Int("total", h.ConnectionCount()).
		Msg("push client connected")
	return nil
}

func (h *Hub) register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[conn] = true
}

func (h *Hub) unregister(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.connections[conn]; exists {
		delete(h.connections, conn)
		close(conn.Send)
		log.Info().Str("connection_id", conn.ID).Msg("push client disconnected")
	}
}

// ConnectionCount returns the number of connected clients
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Broadcast queues an envelope for delivery to every connected client
func (h *Hub) Broadcast(envelope models.PushEnvelope) {
	select {
	case h.broadcastCh <- broadcastMessage{envelope: envelope}:
	default:
		log.Warn().Str("type", string(envelope.Type)).Msg("broadcast channel full, dropping message")
	}
}

// relay queues an envelope received from one client for delivery to
// every other client
func (h *Hub) relay(envelope models.PushEnvelope, from *Connection) {
	select {
	case h.broadcastCh <- broadcastMessage{envelope: envelope, exclude: from}:
	default:
		log.Warn().Str("type", string(envelope.Type)).Msg("broadcast channel full, dropping relay")
	}
}

func (h *Hub) handleBroadcast(message broadcastMessage) {
	h.mu.RLock()
	targets := make([]*Connection, 0, len(h.connections))
	for conn := range h.connections {
		if conn == message.exclude {
			continue
		}
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	data, err := json.Marshal(message.envelope)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal push envelope")
		return
	}

	for _, conn := range targets {
		select {
		case conn.Send <- data:
		default:
			// Slow or dead client, drop it
			log.Warn().Str("connection_id", conn.ID).Msg("send buffer full, closing connection")
			h.unregister(conn)
			conn.Conn.Close()
		}
	}
}

// writePump sends queued messages and pings to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Hub.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Hub.unregister(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Hub.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("push write failed")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Hub.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump relays inbound envelopes from one client to all others.
// Client sends are fire-and-forget, so malformed frames are dropped
// without a reply.
func (c *Connection) readPump() {
	defer func() {
		c.Hub.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Hub.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("unexpected push close")
			}
			return
		}

		var envelope models.PushEnvelope
		if err := json.Unmarshal(message, &envelope); err != nil {
			log.Warn().Err(err).Str("connection_id", c.ID).Msg("dropping malformed client envelope")
			continue
		}
		c.Hub.relay(envelope, c)
		c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.ReadTimeout))
	}
}
