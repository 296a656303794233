package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
)

var (
	// ErrNotConnected is returned by Send when no connection is open. The
	// token is dropped, never queued.
	ErrNotConnected = errors.New("not connected")

	// ErrReconnectExhausted is returned by Run once the backoff policy gives up.
	ErrReconnectExhausted = errors.New("reconnect attempts exhausted")
)

const writeWait = 10 * time.Second

// Handler receives connection lifecycle events. All callbacks run on the
// goroutine that called Run, so inbound frames are seen strictly in order.
type Handler interface {
	// OnOpen is called once per established connection, before any frame
	// from that connection is delivered.
	OnOpen()
	// OnMessage is called for every inbound text frame.
	OnMessage(data []byte)
	// OnClose is called when a connection ends. err is nil for a deliberate
	// Close or context cancellation.
	OnClose(err error)
}

// ConnConfig holds transport settings for a game session connection.
type ConnConfig struct {
	URL            string
	Path           string
	ConnectTimeout time.Duration
	PingInterval   time.Duration
	Backoff        Backoff
}

// Conn owns the websocket to one game session endpoint.
type Conn struct {
	cfg     ConnConfig
	handler Handler
	logger  *log.Logger
	clock   quartz.Clock

	mu        sync.RWMutex
	ws        *websocket.Conn
	connected bool

	writeMu sync.Mutex

	closed    chan struct{}
	closeOnce sync.Once
}

// NewConn creates a connection manager. Nothing is dialled until Run.
func NewConn(cfg ConnConfig, handler Handler, logger *log.Logger, clock quartz.Clock) *Conn {
	return &Conn{
		cfg:     cfg,
		handler: handler,
		logger:  logger.WithPrefix("conn"),
		clock:   clock,
		closed:  make(chan struct{}),
	}
}

// Endpoint returns the websocket URL that Run dials.
func (c *Conn) Endpoint() (string, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	// Ensure WebSocket scheme
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
		// Already correct
	default:
		return "", fmt.Errorf("invalid server URL scheme %q", u.Scheme)
	}

	if c.cfg.Path != "" {
		u.Path = c.cfg.Path
	}

	return u.String(), nil
}

// Run dials the endpoint and pumps inbound frames to the handler until ctx is
// cancelled, Close is called, or the reconnect policy gives up.
func (c *Conn) Run(ctx context.Context) error {
	endpoint, err := c.Endpoint()
	if err != nil {
		return err
	}

	attempt := 0
	for {
		opened, err := c.runOnce(ctx, endpoint)
		if c.stopped(ctx) {
			return nil
		}
		if opened {
			attempt = 0
		}

		if c.cfg.Backoff.MaxAttempts == 0 {
			return err
		}
		if attempt >= c.cfg.Backoff.MaxAttempts {
			return fmt.Errorf("%w after %d attempts: %w", ErrReconnectExhausted, attempt, err)
		}

		delay := c.cfg.Backoff.Delay(attempt)
		attempt++
		c.logger.Warn("Connection lost, reconnecting", "attempt", attempt, "delay", delay, "error", err)

		if !c.wait(ctx, delay) {
			return nil
		}
	}
}

// runOnce dials and reads until the connection ends. opened reports whether
// the dial succeeded.
func (c *Conn) runOnce(ctx context.Context, endpoint string) (opened bool, err error) {
	c.logger.Info("Connecting to server", "url", endpoint)

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.ConnectTimeout}
	ws, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		c.logger.Debug("Dial failed", "error", err)
		return false, fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	// Close may have raced the dial
	select {
	case <-c.closed:
		c.mu.Unlock()
		_ = ws.Close()
		return true, nil
	default:
	}
	c.ws = ws
	c.connected = true
	c.mu.Unlock()

	done := make(chan struct{})
	stop := context.AfterFunc(ctx, func() { _ = ws.Close() })
	defer stop()

	if c.cfg.PingInterval > 0 {
		go c.pingLoop(ws, done)
	}

	c.logger.Info("Connected to server")
	c.handler.OnOpen()

	err = c.readLoop(ws)
	close(done)

	c.mu.Lock()
	c.connected = false
	c.ws = nil
	c.mu.Unlock()
	_ = ws.Close()

	if c.stopped(ctx) {
		err = nil
	}
	c.handler.OnClose(err)
	c.logger.Info("Disconnected from server")
	return true, err
}

func (c *Conn) readLoop(ws *websocket.Conn) error {
	for {
		msgType, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return fmt.Errorf("read: %w", err)
		}
		if msgType != websocket.TextMessage {
			c.logger.Debug("Ignoring non-text frame", "type", msgType)
			continue
		}
		c.handler.OnMessage(data)
	}
}

func (c *Conn) pingLoop(ws *websocket.Conn, done <-chan struct{}) {
	ticker := c.clock.NewTicker(c.cfg.PingInterval, "conn", "ping")
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.writeMu.Lock()
			_ = ws.SetWriteDeadline(c.clock.Now().Add(writeWait))
			err := ws.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// wait sleeps for d on the clock. It returns false if the connection was
// stopped in the meantime.
func (c *Conn) wait(ctx context.Context, d time.Duration) bool {
	timer := c.clock.NewTimer(d, "conn", "backoff")
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	case <-c.closed:
		return false
	}
}

func (c *Conn) stopped(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// Send writes one plain text token. It fails fast with ErrNotConnected when
// there is no open connection; nothing is buffered for later.
func (c *Conn) Send(token string) error {
	c.mu.RLock()
	ws, connected := c.ws, c.connected
	c.mu.RUnlock()

	if !connected || ws == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = ws.SetWriteDeadline(c.clock.Now().Add(writeWait))
	if err := ws.WriteMessage(websocket.TextMessage, []byte(token)); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

// IsConnected returns whether a connection is currently open
func (c *Conn) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Close tears the connection down without a close handshake and stops any
// pending reconnect. It is safe to call more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)

		c.mu.Lock()
		defer c.mu.Unlock()

		if c.ws != nil {
			_ = c.ws.Close() // Ignore close errors during shutdown
		}
		c.connected = false
	})
	return nil
}
