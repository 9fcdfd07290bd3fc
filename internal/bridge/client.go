package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// result is delivered to a pending Call.
type result struct {
	resp Response
	err  error
}

// Client is a request/response connection to a wallet bridge. It dials on
// first use and redials on the next call after the connection drops.
type Client struct {
	cfg    ClientConfig
	logger *slog.Logger

	// Serializes dials
	dialMu sync.Mutex

	// State
	mu        sync.RWMutex
	conn      *websocket.Conn
	connected bool
	closed    bool
	lastSeen  time.Time

	// Write serialization
	writeMu sync.Mutex

	// Command/response correlation
	pendingMu sync.Mutex
	pending   map[int64]chan result
	cmdID     int64 // Atomic counter

	errors chan error
}

// NewClient creates a bridge client. It does not dial.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		cfg:     cfg,
		logger:  logger,
		pending: make(map[int64]chan result),
		errors:  make(chan error, 1),
	}
}

// Connect dials the bridge unless a connection is already up.
func (c *Client) Connect(ctx context.Context) error {
	c.dialMu.Lock()
	defer c.dialMu.Unlock()

	c.mu.RLock()
	closed, connected := c.closed, c.connected
	c.mu.RUnlock()
	if closed {
		return ErrAlreadyClosed
	}
	if connected {
		return nil
	}

	header := http.Header{}
	if c.cfg.Origin != "" {
		header.Set("Origin", c.cfg.Origin)
	}
	if c.cfg.UserAgent != "" {
		header.Set("User-Agent", c.cfg.UserAgent)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		return fmt.Errorf("dial bridge: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.lastSeen = time.Now()
	c.mu.Unlock()

	// Bridge pings count as traffic
	conn.SetPingHandler(func(data string) error {
		c.touch()
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(data),
			time.Now().Add(time.Second),
		)
	})

	go c.readLoop(conn)
	if c.cfg.PingTimeout > 0 {
		go c.heartbeatLoop(conn)
	}

	c.logger.Debug("bridge connected", "url", c.cfg.URL)
	return nil
}

// Close closes the connection. The client cannot be reused afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return nil
	}

	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	c.teardown(conn, ErrAlreadyClosed)
	return nil
}

// IsConnected returns the current connection state.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Errors returns a channel of asynchronous connection errors.
func (c *Client) Errors() <-chan error {
	return c.errors
}

// Call sends method with params and decodes the result into out. A nil out
// discards the result. Bridge-reported failures are returned as *RPCError.
func (c *Client) Call(ctx context.Context, method string, params, out interface{}) error {
	raw, err := c.CallRaw(ctx, method, params)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if len(raw) == 0 {
		return fmt.Errorf("%s: %w: empty result", method, ErrMalformedResponse)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: %w: %v", method, ErrMalformedResponse, err)
	}
	return nil
}

// CallRaw sends method with params and returns the undecoded result.
func (c *Client) CallRaw(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}

	if c.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.CallTimeout)
		defer cancel()
	}

	id := atomic.AddInt64(&c.cmdID, 1)
	respCh := make(chan result, 1)

	c.pendingMu.Lock()
	c.pending[id] = respCh
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	data, err := json.Marshal(Request{ID: id, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", method, err)
	}
	if err := c.send(data); err != nil {
		return nil, fmt.Errorf("send %s: %w", method, err)
	}

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s: %w", method, ErrTimeout)
		}
		return nil, ctx.Err()

	case r := <-respCh:
		if r.err != nil {
			return nil, fmt.Errorf("%s: %w", method, r.err)
		}
		if r.resp.Error != nil {
			return nil, r.resp.Error
		}
		return r.resp.Result, nil
	}
}

// send writes raw bytes to the connection.
func (c *Client) send(data []byte) error {
	c.mu.RLock()
	conn, connected := c.conn, c.connected
	c.mu.RUnlock()
	if !connected || conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.cfg.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

// readLoop routes responses to pending calls until the connection fails.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.teardown(conn, err)
			return
		}
		c.touch()

		var resp Response
		if err := json.Unmarshal(data, &resp); err != nil || resp.ID == 0 {
			c.logger.Warn("ignoring unexpected bridge message", "bytes", len(data))
			continue
		}
		c.route(resp)
	}
}

// heartbeatLoop tears the connection down when the bridge goes quiet.
func (c *Client) heartbeatLoop(conn *websocket.Conn) {
	interval := c.cfg.PingTimeout / 4
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.RLock()
		current := c.conn == conn
		lastSeen := c.lastSeen
		c.mu.RUnlock()

		if !current {
			return
		}
		if time.Since(lastSeen) > c.cfg.PingTimeout {
			c.logger.Warn("no traffic from bridge, connection stale",
				"last_seen", lastSeen,
				"timeout", c.cfg.PingTimeout,
			)
			c.teardown(conn, ErrStaleConnection)
			return
		}
	}
}

// route sends a response to the waiting caller.
func (c *Client) route(resp Response) {
	c.pendingMu.Lock()
	ch, ok := c.pending[resp.ID]
	if ok {
		delete(c.pending, resp.ID)
	}
	c.pendingMu.Unlock()

	if !ok {
		c.logger.Debug("response for unknown request", "id", resp.ID)
		return
	}
	select {
	case ch <- result{resp: resp}:
	default:
	}
}

// teardown retires conn if it is still current and fails pending calls.
func (c *Client) teardown(conn *websocket.Conn, cause error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.connected = false
	closedByUs := c.closed
	c.mu.Unlock()

	conn.Close()

	if !closedByUs {
		c.logger.Warn("bridge connection lost", "error", cause)
		select {
		case c.errors <- cause:
		default:
		}
	}

	c.failPending(fmt.Errorf("%w: %v", ErrConnectionLost, cause))
}

func (c *Client) failPending(err error) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()

	for id, ch := range c.pending {
		select {
		case ch <- result{err: err}:
		default:
		}
		delete(c.pending, id)
	}
}

func (c *Client) touch() {
	c.mu.Lock()
	c.lastSeen = time.Now()
	c.mu.Unlock()
}
