// Package wsconn provides a WebSocket client with reconnection, built on coder/websocket.
package wsconn

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/fd1az/perpetual-pools/internal/apperror"
)

// State represents the connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateClosed       State = "closed"
)

// Config holds WebSocket client configuration.
type Config struct {
	URL            string
	Name           string // used in errors and logs
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  int // 0 = infinite
	PingInterval   time.Duration
	PongTimeout    time.Duration
	ReadTimeout    time.Duration // 0 = none
	WriteTimeout   time.Duration
	MaxMessageSize int64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(url, name string) Config {
	return Config{
		URL:            url,
		Name:           name,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		MaxReconnects:  0,
		PingInterval:   30 * time.Second,
		PongTimeout:    10 * time.Second,
		WriteTimeout:   5 * time.Second,
		MaxMessageSize: 4 << 20, // full pool snapshots can be large
	}
}

// MessageHandler receives every inbound message.
type MessageHandler func(ctx context.Context, msg []byte)

// StateHandler observes state transitions. err is set on failures.
type StateHandler func(state State, err error)

// Client is a WebSocket client that reconnects with exponential backoff.
type Client struct {
	config Config

	conn   *websocket.Conn
	connMu sync.RWMutex

	state   State
	stateMu sync.RWMutex

	onMessage     MessageHandler
	onStateChange StateHandler
	handlersMu    sync.RWMutex

	messages chan []byte

	runCtx    context.Context
	runCancel context.CancelFunc
	closed    atomic.Bool
}

// New creates a new WebSocket client.
func New(config Config) (*Client, error) {
	if config.URL == "" {
		return nil, apperror.New(apperror.CodeValidationError, apperror.WithContext("wsconn: empty URL"))
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = time.Second
	}
	if config.MaxBackoff < config.InitialBackoff {
		config.MaxBackoff = config.InitialBackoff
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		config:    config,
		state:     StateDisconnected,
		messages:  make(chan []byte, 100),
		runCtx:    ctx,
		runCancel: cancel,
	}, nil
}

// OnMessage registers the inbound message handler. Without one, messages
// are delivered on Messages().
func (c *Client) OnMessage(h MessageHandler) {
	c.handlersMu.Lock()
	c.onMessage = h
	c.handlersMu.Unlock()
}

// OnStateChange registers a state transition observer.
func (c *Client) OnStateChange(h StateHandler) {
	c.handlersMu.Lock()
	c.onStateChange = h
	c.handlersMu.Unlock()
}

// Connect dials once. On success the read loop runs until Close, and
// dropped connections are re-dialed in the background.
func (c *Client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return apperror.New(apperror.CodeWebSocketClosed, apperror.WithContext(c.config.Name))
	}

	c.setState(StateConnecting, nil)
	if err := c.dial(ctx); err != nil {
		c.setState(StateDisconnected, err)
		return apperror.New(apperror.CodeWebSocketConnectionError,
			apperror.WithContext(c.config.Name),
			apperror.WithCause(err))
	}
	c.setState(StateConnected, nil)
	return nil
}

// ConnectWithRetry dials until it succeeds, ctx ends, or MaxReconnects is hit.
func (c *Client) ConnectWithRetry(ctx context.Context) error {
	backoff := c.config.InitialBackoff
	for attempt := 0; ; attempt++ {
		err := c.Connect(ctx)
		if err == nil {
			return nil
		}
		if c.config.MaxReconnects > 0 && attempt+1 >= c.config.MaxReconnects {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = nextBackoff(backoff, c.config.MaxBackoff)
	}
}

func (c *Client) dial(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.config.URL, nil)
	if err != nil {
		return err
	}
	if c.config.MaxMessageSize > 0 {
		conn.SetReadLimit(c.config.MaxMessageSize)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	go c.readLoop(conn)
	if c.config.PingInterval > 0 {
		go c.pingLoop(conn)
	}
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		ctx := c.runCtx
		var cancel context.CancelFunc = func() {}
		if c.config.ReadTimeout > 0 {
			ctx, cancel = context.WithTimeout(c.runCtx, c.config.ReadTimeout)
		}
		_, data, err := conn.Read(ctx)
		cancel()
		if err != nil {
			c.handleDisconnect(conn, err)
			return
		}

		c.handlersMu.RLock()
		h := c.onMessage
		c.handlersMu.RUnlock()

		if h != nil {
			h(c.runCtx, data)
			continue
		}
		select {
		case c.messages <- data:
		default:
			// slow consumer, drop
		}
	}
}

func (c *Client) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.runCtx.Done():
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(c.runCtx, c.config.PongTimeout)
			err := conn.Ping(ctx)
			cancel()
			if err != nil {
				// Closing unblocks the read loop, which owns reconnection.
				conn.Close(websocket.StatusGoingAway, "pong timeout")
				return
			}
		}
	}
}

func (c *Client) handleDisconnect(conn *websocket.Conn, cause error) {
	if c.closed.Load() {
		return
	}

	c.connMu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.connMu.Unlock()
	conn.Close(websocket.StatusInternalError, "read failed")

	c.setState(StateReconnecting, cause)
	go c.reconnect()
}

func (c *Client) reconnect() {
	backoff := c.config.InitialBackoff
	for attempt := 1; ; attempt++ {
		select {
		case <-c.runCtx.Done():
			return
		case <-time.After(backoff):
		}

		err := c.dial(c.runCtx)
		if err == nil {
			if c.closed.Load() {
				return
			}
			c.setState(StateConnected, nil)
			return
		}
		if c.config.MaxReconnects > 0 && attempt >= c.config.MaxReconnects {
			c.setState(StateDisconnected, fmt.Errorf("gave up after %d reconnects: %w", attempt, err))
			return
		}
		backoff = nextBackoff(backoff, c.config.MaxBackoff)
	}
}

// Send writes a text message.
func (c *Client) Send(ctx context.Context, msg []byte) error {
	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()
	if conn == nil {
		return apperror.New(apperror.CodeWebSocketSendError,
			apperror.WithContext(fmt.Sprintf("%s: not connected", c.config.Name)))
	}

	if c.config.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.WriteTimeout)
		defer cancel()
	}
	if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
		return apperror.New(apperror.CodeWebSocketSendError,
			apperror.WithContext(c.config.Name),
			apperror.WithCause(err))
	}
	return nil
}

// SendJSON marshals v and sends it as a text message.
func (c *Client) SendJSON(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return apperror.New(apperror.CodeWebSocketSendError,
			apperror.WithContext("marshal payload"),
			apperror.WithCause(err))
	}
	return c.Send(ctx, data)
}

// Messages returns inbound messages when no OnMessage handler is set.
func (c *Client) Messages() <-chan []byte {
	return c.messages
}

// State returns the current connection state.
func (c *Client) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// IsConnected reports whether the client holds a live connection.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Close closes the connection and stops reconnecting. Safe to call twice.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.runCancel()

	c.connMu.Lock()
	conn := c.conn
	c.conn = nil
	c.connMu.Unlock()

	if conn != nil {
		conn.Close(websocket.StatusNormalClosure, "client closing")
	}
	c.setState(StateClosed, nil)
	return nil
}

func (c *Client) setState(state State, err error) {
	c.stateMu.Lock()
	if c.state == StateClosed {
		c.stateMu.Unlock()
		return
	}
	c.state = state
	c.stateMu.Unlock()

	c.handlersMu.RLock()
	h := c.onStateChange
	c.handlersMu.RUnlock()
	if h != nil {
		h(state, err)
	}
}

func nextBackoff(cur, max time.Duration) time.Duration {
	next := cur * 2
	if next > max {
		return max
	}
	return next
}
