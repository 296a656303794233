package simulation_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/bjtrainer/internal/protocol"
	"github.com/lox/bjtrainer/internal/replay"
	"github.com/lox/bjtrainer/internal/simulation"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func newClient(t *testing.T, handler http.Handler) *simulation.Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	c, err := simulation.NewClient(ts.URL, ts.Client(), testLogger())
	require.NoError(t, err)
	return c
}

func TestSimulateAppliesDefaults(t *testing.T) {
	var got protocol.SimulateRequest
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/simulate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_ = json.NewEncoder(w).Encode(protocol.SimulateSummary{NumGames: got.NumGames, Balance: got.Balance})
	}))

	summary, err := c.Simulate(context.Background(), simulation.Request{BetAmount: 25})
	require.NoError(t, err)

	assert.Equal(t, simulation.Request{NumGames: 200, Balance: 1000, BetAmount: 25, NumDecks: 8}, got)
	assert.Equal(t, 200, summary.NumGames)
}

func TestSimulateRejectsInvalidRequest(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the server")
	}))

	_, err := c.Simulate(context.Background(), simulation.Request{NumGames: -1})
	assert.ErrorContains(t, err, "invalid simulation request")
}

func TestStatusError(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "engine unavailable", http.StatusServiceUnavailable)
	}))

	_, err := c.Simulate(context.Background(), simulation.Request{})
	var statusErr *simulation.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, "engine unavailable", statusErr.Body)
	assert.Contains(t, err.Error(), "503 Service Unavailable")

	_, err = c.Results(context.Background())
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.MethodGet, statusErr.Method)
}

func TestAgainstReplayServer(t *testing.T) {
	srv := replay.NewServer(replay.DefaultScript(), testLogger(), replay.WithSeed(9))
	c := newClient(t, srv.Handler())

	summary, err := c.Simulate(context.Background(), simulation.Request{NumGames: 10, Balance: 100000})
	require.NoError(t, err)
	assert.Equal(t, 10, summary.NumGames)
	assert.Equal(t, 100000, summary.Balance)

	results, err := c.Results(context.Background())
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(results), "\n"), 10)
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "http", url: "http://localhost:8010", want: "http://localhost:8010/results"},
		{name: "trailing slash", url: "http://localhost:8010/", want: "http://localhost:8010/results"},
		{name: "websocket scheme", url: "wss://tables.example.com", want: "https://tables.example.com/results"},
		{name: "bad scheme", url: "ftp://localhost", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := simulation.NewClient(tt.url, nil, testLogger())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.ResultsURL())
		})
	}
}
