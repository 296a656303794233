// Package simulation is the HTTP client for the game server's batch
// simulation endpoints.
package simulation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/bjtrainer/internal/protocol"
)

// Request and Summary are the /simulate wire types
type (
	Request = protocol.SimulateRequest
	Summary = protocol.SimulateSummary
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// Client talks to the simulation endpoints of one server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewClient creates a client for the server at baseURL. A nil httpClient
// uses one with a generous timeout, since large simulations take a while.
func NewClient(baseURL string, httpClient *http.Client, logger *log.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	default:
		return nil, fmt.Errorf("invalid server URL scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")

	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}

	return &Client{
		baseURL:    u.String(),
		httpClient: httpClient,
		logger:     logger.WithPrefix("simulation"),
	}, nil
}

// Simulate runs a batch simulation. Zero fields in req take the front end
// defaults.
func (c *Client) Simulate(ctx context.Context, req Request) (*Summary, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation request: %w", err)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	c.logger.Info("Running simulation",
		"games", req.NumGames,
		"balance", req.Balance,
		"bet", req.BetAmount,
		"decks", req.NumDecks)

	resp, err := c.do(ctx, http.MethodPost, "/simulate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var summary Summary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}

	c.logger.Info("Simulation complete", "games", summary.NumGames, "profit", summary.TotalProfit)
	return &summary, nil
}

// Results fetches the plain text results of the last simulation.
func (c *Client) Results(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/results", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read results: %w", err)
	}
	return string(data), nil
}

// ResultsURL returns the direct download link for the results file
func (c *Client) ResultsURL() string {
	return c.baseURL + "/results"
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	endpoint := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{
			Method:     method,
			URL:        endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}
	return resp, nil
}
