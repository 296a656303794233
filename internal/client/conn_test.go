package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu        sync.Mutex
	opens     int
	messages  []string
	closeErrs []error

	onOpen func()
}

func (h *recordingHandler) OnOpen() {
	h.mu.Lock()
	h.opens++
	fn := h.onOpen
	h.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (h *recordingHandler) OnMessage(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, string(data))
}

func (h *recordingHandler) OnClose(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closeErrs = append(h.closeErrs, err)
}

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func newWSServer(t *testing.T, serve func(ws *websocket.Conn)) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		serve(ws)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func runWithTimeout(t *testing.T, c *Conn) error {
	t.Helper()

	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(context.Background()) }()

	select {
	case err := <-errCh:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
		return nil
	}
}

func TestEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		path    string
		want    string
		wantErr bool
	}{
		{name: "http", url: "http://localhost:8010", path: "/ws/game", want: "ws://localhost:8010/ws/game"},
		{name: "https", url: "https://tables.example.com", path: "/ws/game", want: "wss://tables.example.com/ws/game"},
		{name: "ws kept", url: "ws://127.0.0.1:9000", path: "/ws/game", want: "ws://127.0.0.1:9000/ws/game"},
		{name: "path from url", url: "ws://127.0.0.1:9000/custom", want: "ws://127.0.0.1:9000/custom"},
		{name: "bad scheme", url: "ftp://localhost", path: "/ws/game", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConn(ConnConfig{URL: tt.url, Path: tt.path}, &recordingHandler{}, testLogger(), quartz.NewReal())
			got, err := c.Endpoint()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSendWithoutConnection(t *testing.T) {
	c := NewConn(ConnConfig{URL: "http://localhost:1"}, &recordingHandler{}, testLogger(), quartz.NewReal())

	assert.False(t, c.IsConnected())
	assert.ErrorIs(t, c.Send("h"), ErrNotConnected)
}

func TestConnDeliversFramesInOrder(t *testing.T) {
	tokens := make(chan string, 1)
	srv := newWSServer(t, func(ws *websocket.Conn) {
		_, token, err := ws.ReadMessage()
		if err != nil {
			return
		}
		tokens <- string(token)

		_ = ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"text","text":"one"}`))
		_ = ws.WriteMessage(websocket.BinaryMessage, []byte{0x01})
		_ = ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"text","text":"two"}`))
		_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	})

	handler := &recordingHandler{}
	c := NewConn(ConnConfig{URL: srv.URL, Path: "/ws/game", ConnectTimeout: time.Second}, handler, testLogger(), quartz.NewReal())
	handler.onOpen = func() {
		assert.True(t, c.IsConnected())
		assert.NoError(t, c.Send("console"))
	}

	err := runWithTimeout(t, c)
	assert.Error(t, err, "a drop without reconnect ends Run")
	assert.NotErrorIs(t, err, ErrReconnectExhausted)

	assert.Equal(t, "console", <-tokens)

	handler.mu.Lock()
	defer handler.mu.Unlock()
	assert.Equal(t, 1, handler.opens)
	assert.Equal(t, []string{`{"type":"text","text":"one"}`, `{"type":"text","text":"two"}`}, handler.messages)
	require.Len(t, handler.closeErrs, 1)
	assert.Error(t, handler.closeErrs[0])
	assert.False(t, c.IsConnected())
}

func TestConnCloseStopsRun(t *testing.T) {
	srv := newWSServer(t, func(ws *websocket.Conn) {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	})

	handler := &recordingHandler{}
	c := NewConn(ConnConfig{URL: srv.URL, Path: "/ws/game", Backoff: Backoff{MaxAttempts: 3, Initial: time.Millisecond}}, handler, testLogger(), quartz.NewReal())
	handler.onOpen = func() { _ = c.Close() }

	assert.NoError(t, runWithTimeout(t, c))
	assert.NoError(t, c.Close(), "close is idempotent")

	handler.mu.Lock()
	defer handler.mu.Unlock()
	assert.Equal(t, 1, handler.opens)
	assert.Equal(t, []error{nil}, handler.closeErrs)
}

func TestConnContextCancel(t *testing.T) {
	srv := newWSServer(t, func(ws *websocket.Conn) {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	handler := &recordingHandler{onOpen: cancel}
	c := NewConn(ConnConfig{URL: srv.URL, Path: "/ws/game"}, handler, testLogger(), quartz.NewReal())

	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}

func TestConnReconnects(t *testing.T) {
	var connections atomic.Int32
	srv := newWSServer(t, func(ws *websocket.Conn) {
		if connections.Add(1) == 1 {
			// Drop the first connection once the mode token arrives
			_, _, _ = ws.ReadMessage()
			return
		}
		_ = ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"text","text":"back"}`))
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	})

	handler := &recordingHandler{}
	c := NewConn(ConnConfig{
		URL:     srv.URL,
		Path:    "/ws/game",
		Backoff: Backoff{MaxAttempts: 2, Initial: time.Millisecond, Max: 5 * time.Millisecond},
	}, handler, testLogger(), quartz.NewReal())

	var sent atomic.Int32
	handler.onOpen = func() {
		if c.Send("console") == nil {
			sent.Add(1)
		}
	}

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	require.Eventually(t, func() bool {
		handler.mu.Lock()
		defer handler.mu.Unlock()
		return len(handler.messages) == 1
	}, 5*time.Second, 5*time.Millisecond)

	require.NoError(t, c.Close())
	assert.NoError(t, <-done)

	handler.mu.Lock()
	defer handler.mu.Unlock()
	assert.Equal(t, 2, handler.opens)
	assert.Equal(t, int32(2), sent.Load(), "mode token sent once per connection")
	assert.Equal(t, []string{`{"type":"text","text":"back"}`}, handler.messages)
}

func TestConnReconnectExhausted(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	handler := &recordingHandler{}
	c := NewConn(ConnConfig{
		URL:            url,
		Path:           "/ws/game",
		ConnectTimeout: time.Second,
		Backoff:        Backoff{MaxAttempts: 2, Initial: time.Millisecond},
	}, handler, testLogger(), quartz.NewReal())

	err := runWithTimeout(t, c)
	require.ErrorIs(t, err, ErrReconnectExhausted)
	assert.Contains(t, err.Error(), "after 2 attempts")

	handler.mu.Lock()
	defer handler.mu.Unlock()
	assert.Zero(t, handler.opens)
	assert.Empty(t, handler.closeErrs)
}

func TestConnDialFailureWithoutReconnect(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewConn(ConnConfig{URL: url, Path: "/ws/game", Backoff: NoReconnect}, &recordingHandler{}, testLogger(), quartz.NewReal())

	err := runWithTimeout(t, c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect")
}

func TestBackoffDelay(t *testing.T) {
	tests := []struct {
		name    string
		backoff Backoff
		attempt int
		want    time.Duration
	}{
		{name: "first attempt", backoff: Backoff{Initial: 500 * time.Millisecond, Multiplier: 2}, attempt: 0, want: 500 * time.Millisecond},
		{name: "grows", backoff: Backoff{Initial: 500 * time.Millisecond, Multiplier: 2}, attempt: 3, want: 4 * time.Second},
		{name: "capped", backoff: Backoff{Initial: 500 * time.Millisecond, Max: time.Second, Multiplier: 2}, attempt: 5, want: time.Second},
		{name: "default multiplier", backoff: Backoff{Initial: 100 * time.Millisecond}, attempt: 2, want: 400 * time.Millisecond},
		{name: "constant", backoff: Backoff{Initial: 100 * time.Millisecond, Multiplier: 1}, attempt: 4, want: 100 * time.Millisecond},
		{name: "no delay", backoff: NoReconnect, attempt: 1, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.backoff.Delay(tt.attempt))
		})
	}
}
