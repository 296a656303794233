// Package session implements the interactive blackjack session client: it
// consumes the server's event stream, keeps the local view of the hand, and
// turns player intents into outbound tokens.
package session

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lox/bjtrainer/internal/client"
	"github.com/lox/bjtrainer/internal/protocol"
)

// Transport is the connection a session talks through. *client.Conn is the
// production implementation.
type Transport interface {
	Run(ctx context.Context) error
	Send(token string) error
	Close() error
}

// Observer is notified of state changes and out-of-band server text. Calls
// may come from the read goroutine, timer goroutines or the caller of an
// intent method, so implementations must be safe for concurrent use.
type Observer interface {
	StateChanged(Snapshot)
	TextReceived(text string)
}

// Config holds session behaviour settings.
type Config struct {
	Conn             client.ConnConfig
	AutoSelect       bool
	ModeToken        string
	InitialBet       int
	ResultClearDelay time.Duration
	CompleteDelay    time.Duration
}

// DefaultConfig returns the settings the trainer uses when nothing is configured
func DefaultConfig() Config {
	return Config{
		Conn: client.ConnConfig{
			URL:            "http://localhost:8010",
			Path:           "/ws/game",
			ConnectTimeout: 10 * time.Second,
			PingInterval:   54 * time.Second,
		},
		AutoSelect:       true,
		ModeToken:        protocol.ModeConsole,
		InitialBet:       10,
		ResultClearDelay: 2 * time.Second,
		CompleteDelay:    4 * time.Second,
	}
}

// Option configures a Session
type Option func(*Session)

// WithClock sets the clock used for result timers and the transport.
func WithClock(clock quartz.Clock) Option {
	return func(s *Session) { s.clock = clock }
}

// WithTransport replaces the websocket transport, mainly for tests.
func WithTransport(t Transport) Option {
	return func(s *Session) { s.transport = t }
}

// WithObserver registers an observer for state changes.
func WithObserver(o Observer) Option {
	return func(s *Session) { s.observer = o }
}

// WithDiagnostics routes absorbed failures to ch. Sends never block.
func WithDiagnostics(ch chan<- Diagnostic) Option {
	return func(s *Session) { s.diagnostics = ch }
}

// WithOnComplete sets the callback fired when a hand's result lifecycle ends.
func WithOnComplete(fn func()) Option {
	return func(s *Session) { s.onComplete = fn }
}

// Session is one connected play sequence with the game server.
type Session struct {
	id     string
	cfg    Config
	logger *log.Logger
	clock  quartz.Clock

	transport   Transport
	store       *Store
	results     *resultLifecycle
	observer    Observer
	diagnostics chan<- Diagnostic
	onComplete  func()
}

// New creates a session. Nothing is dialled until Run.
func New(cfg Config, logger *log.Logger, opts ...Option) *Session {
	id := uuid.NewString()
	s := &Session{
		id:     id,
		cfg:    cfg,
		logger: logger.WithPrefix("session").With("session", id[:8]),
		clock:  quartz.NewReal(),
		store:  NewStore(cfg.InitialBet),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.results = newResultLifecycle(s.clock, cfg.ResultClearDelay, cfg.CompleteDelay)
	if s.transport == nil {
		s.transport = client.NewConn(cfg.Conn, s, logger, s.clock)
	}
	return s
}

// ID returns the session identifier used in logs
func (s *Session) ID() string {
	return s.id
}

// Snapshot returns the current state
func (s *Session) Snapshot() Snapshot {
	return s.store.Snapshot()
}

// Run connects and processes events until ctx is cancelled, Close is called,
// or the transport gives up. Pending result timers are stopped on return.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		err := s.transport.Run(gctx)
		if err != nil {
			s.report(DiagTransport, err)
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		s.results.stop()
		return nil
	})

	return g.Wait()
}

// Close tears the session down: the connection is closed without a handshake
// and pending result timers are cancelled.
func (s *Session) Close() error {
	s.results.stop()
	return s.transport.Close()
}

// OnOpen implements client.Handler
func (s *Session) OnOpen() {
	s.store.setConnected(true)
	s.logger.Info("Session connected")

	// Once per connection, before any inbound frame is handled
	if s.cfg.AutoSelect {
		if err := s.send(s.cfg.ModeToken); err != nil {
			s.logger.Warn("Failed to select mode", "error", err)
		}
	}
	s.notify()
}

// OnMessage implements client.Handler
func (s *Session) OnMessage(data []byte) {
	_ = s.Dispatch(data)
}

// OnClose implements client.Handler
func (s *Session) OnClose(err error) {
	s.store.setConnected(false)
	if err != nil {
		s.logger.Warn("Session disconnected", "error", err)
		s.report(DiagTransport, err)
	}
	s.notify()
}

func (s *Session) notify() {
	if s.observer != nil {
		s.observer.StateChanged(s.store.Snapshot())
	}
}
