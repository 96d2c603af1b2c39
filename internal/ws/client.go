// Package ws provides a reconnecting websocket client used by the market
// stream layer. It owns the connection lifecycle and fans raw frames out to
// subscribers; decoding and routing by stream name happen above it.
package ws

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/lxzan/gws"
	"github.com/rs/zerolog"
)

// ConnState is a point in the connection lifecycle.
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateReconnecting
	// StateClosed is terminal; a closed client cannot reconnect.
	StateClosed
)

// String returns the state name for logging.
func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Config holds configuration options for a websocket client.
type Config struct {
	// URL is the websocket server endpoint to connect to.
	URL string
	// ReconnectEnabled determines whether automatic reconnection is enabled.
	ReconnectEnabled bool
	// ReconnectBaseWait is the wait before the first reconnection attempt.
	ReconnectBaseWait time.Duration
	// ReconnectMaxWait caps the exponential backoff between attempts.
	ReconnectMaxWait time.Duration
	// PingInterval is the duration between keepalive pings.
	PingInterval time.Duration
	// PongWait is the maximum time to wait for a pong before the connection
	// is considered dead.
	PongWait time.Duration
	// BufferSize is the capacity of subscriber frame buffers.
	BufferSize int
}

// Client manages a websocket connection with reconnection and frame fanout.
type Client struct {
	config  Config
	state   atomic.Int32
	conn    *gws.Conn
	handler *eventHandler
	logger  zerolog.Logger

	mu                sync.RWMutex
	subs              map[string]*subscription
	connectedChan     chan struct{}
	stopChan          chan struct{}
	wg                sync.WaitGroup
	reconnectAttempts int
}

// subscription is one named frame receiver. Its mutex serializes delivery
// against close so the fanout path never sends on a closed channel.
type subscription struct {
	name   string
	mu     sync.Mutex
	frames chan []byte
	closed bool
}

// deliver queues a frame without blocking. It reports whether the frame was
// queued and whether the subscription is still open.
func (s *subscription) deliver(frame []byte) (delivered, open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, false
	}
	select {
	case s.frames <- frame:
		return true, true
	default:
		return false, true
	}
}

// close marks the subscription dead and closes its channel exactly once.
func (s *subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.frames)
	}
}

type eventHandler struct {
	client *Client
}

// NewClient creates a websocket client. Zero-valued config fields get
// defaults.
func NewClient(config Config) *Client {
	if config.ReconnectBaseWait == 0 {
		config.ReconnectBaseWait = time.Second
	}
	if config.ReconnectMaxWait == 0 {
		config.ReconnectMaxWait = 30 * time.Second
	}
	if config.PingInterval == 0 {
		config.PingInterval = 10 * time.Second
	}
	if config.PongWait == 0 {
		config.PongWait = 20 * time.Second
	}
	if config.BufferSize == 0 {
		config.BufferSize = 100
	}

	c := &Client{
		config:        config,
		subs:          make(map[string]*subscription),
		connectedChan: make(chan struct{}),
		stopChan:      make(chan struct{}),
		logger:        zerolog.Nop(),
	}
	c.handler = &eventHandler{client: c}
	return c
}

// SetLogger configures the logger for the websocket client.
func (c *Client) SetLogger(logger zerolog.Logger) {
	c.logger = logger
}

func (c *Client) loadState() ConnState {
	return ConnState(c.state.Load())
}

func (c *Client) storeState(s ConnState) {
	c.state.Store(int32(s))
}

func (c *Client) swapState(from, to ConnState) bool {
	return c.state.CompareAndSwap(int32(from), int32(to))
}

func (h *eventHandler) OnOpen(socket *gws.Conn) {
	h.client.storeState(StateConnected)

	h.client.mu.Lock()
	h.client.reconnectAttempts = 0
	select {
	case <-h.client.connectedChan:
	default:
		close(h.client.connectedChan)
	}
	h.client.mu.Unlock()

	h.client.logger.Info().
		Str("url", h.client.config.URL).
		Msg("websocket connected")

	_ = socket.SetDeadline(time.Now().Add(h.client.config.PingInterval + h.client.config.PongWait))
}

func (h *eventHandler) OnClose(socket *gws.Conn, err error) {
	h.client.storeState(StateDisconnected)

	h.client.mu.Lock()
	h.client.connectedChan = make(chan struct{})
	h.client.mu.Unlock()

	h.client.logger.Warn().
		Err(err).
		Str("url", h.client.config.URL).
		Msg("websocket disconnected")

	if h.client.config.ReconnectEnabled {
		select {
		case <-h.client.stopChan:
			return
		default:
			go h.client.attemptReconnect()
		}
	}
}

func (h *eventHandler) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(h.client.config.PingInterval + h.client.config.PongWait))
	_ = socket.WritePong(nil)
}

func (h *eventHandler) OnPong(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(h.client.config.PingInterval + h.client.config.PongWait))
}

func (h *eventHandler) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()

	data := message.Bytes()
	if len(data) == 0 {
		return
	}

	h.client.mu.RLock()
	subs := make([]*subscription, 0, len(h.client.subs))
	for _, sub := range h.client.subs {
		subs = append(subs, sub)
	}
	h.client.mu.RUnlock()

	// Frames are copied per subscriber since message.Bytes is recycled
	// after this callback returns. Delivery goes through the subscription
	// mutex: a concurrent Drop or Close marks it dead before closing the
	// channel, so this path cannot send on a closed channel.
	for _, sub := range subs {
		frame := make([]byte, len(data))
		copy(frame, data)
		if delivered, open := sub.deliver(frame); !delivered && open {
			h.client.logger.Warn().Str("subscriber", sub.name).Msg("frame buffer full, dropping")
		}
	}
}

// Connect establishes the websocket connection. It blocks until the
// connection is open, the context expires, or the client is closed.
func (c *Client) Connect(ctx context.Context) error {
	if !c.swapState(StateDisconnected, StateConnecting) {
		current := c.loadState()
		if current == StateConnected {
			return nil
		}
		return fmt.Errorf("invalid state for connect: %s", current)
	}

	socket, _, err := gws.NewClient(c.handler, &gws.ClientOption{
		Addr: c.config.URL,
	})
	if err != nil {
		c.storeState(StateDisconnected)
		return fmt.Errorf("connect websocket: %w", err)
	}

	c.mu.Lock()
	c.conn = socket
	connected := c.connectedChan
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		socket.ReadLoop()
	}()

	select {
	case <-connected:
		return nil
	case <-ctx.Done():
		_ = socket.NetConn().Close()
		c.storeState(StateDisconnected)
		return ctx.Err()
	case <-c.stopChan:
		_ = socket.NetConn().Close()
		c.storeState(StateClosed)
		return fmt.Errorf("client stopped")
	}
}

// Close shuts the client down and releases all subscriptions.
func (c *Client) Close() error {
	if !c.swapState(StateConnected, StateClosed) &&
		!c.swapState(StateConnecting, StateClosed) &&
		!c.swapState(StateReconnecting, StateClosed) &&
		!c.swapState(StateDisconnected, StateClosed) {
		return nil
	}

	close(c.stopChan)

	c.mu.Lock()
	if c.conn != nil {
		_ = c.conn.NetConn().Close()
	}
	subs := c.subs
	c.subs = make(map[string]*subscription)
	c.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}

	c.wg.Wait()
	return nil
}

// State returns the current connection state.
func (c *Client) State() ConnState {
	return c.loadState()
}

// IsConnected reports whether the websocket has an active connection.
func (c *Client) IsConnected() bool {
	return c.loadState() == StateConnected
}

// Frames registers a named subscriber and returns its frame channel.
// Every raw frame received on the socket is delivered to every subscriber.
func (c *Client) Frames(name string) <-chan []byte {
	sub := &subscription{
		name:   name,
		frames: make(chan []byte, c.config.BufferSize),
	}

	c.mu.Lock()
	c.subs[name] = sub
	c.mu.Unlock()

	c.logger.Debug().Str("subscriber", name).Msg("frame subscriber registered")
	return sub.frames
}

// Drop removes the named subscriber and closes its channel.
func (c *Client) Drop(name string) {
	c.mu.Lock()
	sub, ok := c.subs[name]
	if ok {
		delete(c.subs, name)
	}
	c.mu.Unlock()

	if ok {
		sub.close()
	}
}

// Subscribers returns the names of all registered frame subscribers.
func (c *Client) Subscribers() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.subs))
	for name := range c.subs {
		names = append(names, name)
	}
	return names
}

// WriteMessage sends raw bytes as a text frame.
func (c *Client) WriteMessage(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.conn == nil || c.loadState() != StateConnected {
		return fmt.Errorf("websocket not connected")
	}
	return c.conn.WriteMessage(gws.OpcodeText, data)
}

// SendJSON marshals v with sonic and sends it as a text frame.
func (c *Client) SendJSON(v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return c.WriteMessage(data)
}

// SendPing sends a keepalive ping frame.
func (c *Client) SendPing() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.conn == nil || c.loadState() != StateConnected {
		return fmt.Errorf("websocket not connected")
	}
	return c.conn.WritePing(nil)
}

func (c *Client) attemptReconnect() {
	if !c.swapState(StateDisconnected, StateReconnecting) {
		return
	}

	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		c.mu.Lock()
		attempts := c.reconnectAttempts
		c.reconnectAttempts++
		c.mu.Unlock()

		wait := c.backoff(attempts)
		c.logger.Info().
			Dur("wait", wait).
			Int("attempt", attempts+1).
			Msg("attempting reconnect")

		select {
		case <-time.After(wait):
		case <-c.stopChan:
			return
		}

		c.storeState(StateDisconnected)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := c.Connect(ctx); err != nil {
			cancel()
			c.logger.Error().Err(err).
				Int("attempt", attempts+1).
				Msg("reconnect failed")
			c.swapState(StateConnecting, StateReconnecting)
			c.swapState(StateDisconnected, StateReconnecting)
			continue
		}
		cancel()

		c.logger.Info().Msg("reconnected")
		return
	}
}

func (c *Client) backoff(attempts int) time.Duration {
	return min(c.config.ReconnectBaseWait*time.Duration(1<<uint(attempts)), c.config.ReconnectMaxWait)
}
