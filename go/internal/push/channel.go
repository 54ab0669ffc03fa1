package push

import (
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/gamenight/liveboard/go/internal/models"
)

// State is the push channel connection state
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Config holds configuration for the push channel
type Config struct {
	URL              string
	MinReconnectWait time.Duration
	MaxReconnectWait time.Duration
	WriteTimeout     time.Duration
	HandshakeTimeout time.Duration
}

// DefaultConfig returns default push channel configuration
func DefaultConfig(url string) Config {
	return Config{
		URL:              url,
		MinReconnectWait: 1 * time.Second,
		MaxReconnectWait: 30 * time.Second,
		WriteTimeout:     10 * time.Second,
		HandshakeTimeout: 10 * time.Second,
	}
}

// Handler receives decoded push envelopes in arrival order
type Handler func(models.PushEnvelope)

// Channel maintains the persistent duplex connection to the backend.
// It reconnects with exponential backoff plus jitter up to a capped
// maximum, and exposes an explicit connection state machine:
// disconnected -> connecting -> connected -> disconnected.
//
// Inbound envelopes are handed to the handler synchronously from a
// single read loop, so per-channel arrival order is preserved.
// Outbound sends are fire-and-forget: no ack, no delivery guarantee.
type Channel struct {
	config  Config
	clock   clockwork.Clock
	handler Handler
	dialer  *websocket.Dialer

	mu     sync.Mutex
	conn   *websocket.Conn
	state  State
	closed bool

	done chan struct{}
}

// NewChannel creates a push channel. The handler must not be nil.
func NewChannel(config Config, handler Handler) *Channel {
	return NewChannelWithClock(config, handler, clockwork.NewRealClock())
}

// NewChannelWithClock creates a push channel with an injected clock
func NewChannelWithClock(config Config, handler Handler, clock clockwork.Clock) *Channel {
	return &Channel{
		config:  config,
		clock:   clock,
		handler: handler,
		dialer: &websocket.Dialer{
			HandshakeTimeout: config.HandshakeTimeout,
		},
		done: make(chan struct{}),
	}
}

// Start launches the connect/read loop. It returns immediately; the
// loop runs until Close.
func (c *Channel) Start() {
	go c.run()
}

func (c *Channel) run() {
	attempt := 0
	for {
		if c.isClosed() {
			return
		}

		c.setState(StateConnecting)
		conn, _, err := c.dialer.Dial(c.config.URL, nil)
		if err != nil {
			c.setState(StateDisconnected)
			delay := c.nextDelay(attempt)
			attempt++
			log.Warn().
				Err(err).
				Str("url", c.config.URL).
				Dur("retry_in", delay).
				Msg("push channel connect failed")
			if !c.sleep(delay) {
				return
			}
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			conn.Close()
			return
		}
		c.conn = conn
		c.mu.Unlock()
		c.setState(StateConnected)
		attempt = 0
		log.Info().Str("url", c.config.URL).Msg("push channel connected")

		c.readLoop(conn)

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		c.setState(StateDisconnected)

		if c.isClosed() {
			return
		}
		delay := c.nextDelay(attempt)
		attempt++
		log.Warn().Dur("retry_in", delay).Msg("push channel dropped, reconnecting")
		if !c.sleep(delay) {
			return
		}
	}
}

// readLoop decodes inbound envelopes until the connection fails
func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Msg("unexpected push channel close")
			}
			conn.Close()
			return
		}

		var envelope models.PushEnvelope
		if err := json.Unmarshal(message, &envelope); err != nil {
			log.Warn().Err(err).Msg("discarding malformed push message")
			continue
		}
		c.handler(envelope)
	}
}

// Send writes an envelope to the connection, fire-and-forget. A send
// while disconnected or a write failure is logged and dropped; the
// next poll tick carries the change to other clients anyway.
func (c *Channel) Send(envelope models.PushEnvelope) {
	data, err := json.Marshal(envelope)
	if err != nil {
		log.Warn().Err(err).Str("type", string(envelope.Type)).Msg("failed to encode push envelope")
		return
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		log.Debug().Str("type", string(envelope.Type)).Msg("push send skipped, not connected")
		return
	}

	conn.SetWriteDeadline(c.clock.Now().Add(c.config.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Warn().Err(err).Str("type", string(envelope.Type)).Msg("push send failed")
	}
}

// Close tears down the connection and stops the reconnect loop
func (c *Channel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	conn := c.conn
	c.conn = nil
	close(c.done)
	c.mu.Unlock()

	if conn != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			c.clock.Now().Add(time.Second))
		conn.Close()
	}
	c.setState(StateDisconnected)
}

// State returns the current connection state
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Channel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// nextDelay computes the reconnect wait for the given attempt:
// exponential growth from MinReconnectWait, capped at
// MaxReconnectWait, with up to 25% additive jitter.
func (c *Channel) nextDelay(attempt int) time.Duration {
	delay := c.config.MinReconnectWait
	for i := 0; i < attempt && delay < c.config.MaxReconnectWait; i++ {
		delay *= 2
	}
	if delay > c.config.MaxReconnectWait {
		delay = c.config.MaxReconnectWait
	}
	jitter := time.Duration(rand.Int63n(int64(delay/4) + 1))
	if delay+jitter > c.config.MaxReconnectWait {
		return c.config.MaxReconnectWait
	}
	return delay + jitter
}

// sleep waits for d on the injected clock; returns false if the
// channel was closed while waiting
func (c *Channel) sleep(d time.Duration) bool {
	select {
	case <-c.clock.After(d):
		return true
	case <-c.done:
		return false
	}
}
