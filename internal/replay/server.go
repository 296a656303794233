// Package replay serves recorded game sessions over the game server's
// websocket protocol, along with the simulation HTTP endpoints, so the
// trainer can be exercised without the real backend.
package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/lox/bjtrainer/internal/protocol"
	"github.com/lox/bjtrainer/internal/randutil"
)

// Version is reported by the health endpoint
const Version = "0.1.0"

const (
	writeWait       = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Run records one websocket client's pass through the script.
type Run struct {
	ID         int
	Received   []string
	Mismatches int
	Completed  bool
}

// Option configures a Server
type Option func(*Server)

// WithSeed fixes the shoe seed used by simulations.
func WithSeed(seed int64) Option {
	return func(s *Server) { s.seed = seed }
}

// Server plays a Script to every websocket client and runs simulations.
type Server struct {
	script   *Script
	logger   *log.Logger
	seed     int64
	upgrader websocket.Upgrader
	router   chi.Router

	mu      sync.Mutex
	runs    []Run
	results []string
}

// NewServer creates a replay server for script.
func NewServer(script *Script, logger *log.Logger, opts ...Option) *Server {
	s := &Server{
		script: script,
		logger: logger.WithPrefix("replay"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Local tool; any origin may connect
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", s.handleHealth)
	r.Get("/ws/game", s.handleWebSocket)
	r.Post("/simulate", s.handleSimulate)
	r.Get("/results", s.handleResults)
	s.router = r

	return s
}

// Handler returns the HTTP handler serving all endpoints
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Starting replay server", "addr", addr, "script", s.script.Name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Runs returns a copy of the recorded websocket runs
func (s *Server) Runs() []Run {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Run, len(s.runs))
	for i, r := range s.runs {
		r.Received = append([]string(nil), r.Received...)
		out[i] = r
	}
	return out
}

// Mismatches returns the total number of unexpected tokens across all runs
func (s *Server) Mismatches() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, r := range s.runs {
		n += r.Mismatches
	}
	return n
}

func (s *Server) startRun() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, Run{ID: len(s.runs) + 1})
	return len(s.runs) - 1
}

func (s *Server) updateRun(idx int, fn func(*Run)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.runs[idx])
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	idx := s.startRun()
	logger := s.logger.With("run", idx+1)
	logger.Info("Client connected")

	if err := s.play(conn, idx, logger); err != nil {
		logger.Info("Client disconnected", "error", err)
		return
	}
	s.updateRun(idx, func(run *Run) { run.Completed = true })
	logger.Info("Script complete")

	// Keep the socket open so the client decides when the session ends
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			logger.Info("Client disconnected")
			return
		}
		s.updateRun(idx, func(run *Run) { run.Received = append(run.Received, string(data)) })
	}
}

func (s *Server) play(conn *websocket.Conn, idx int, logger *log.Logger) error {
	for i, step := range s.script.Steps {
		if step.Expect != "" {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
			token := string(data)
			s.updateRun(idx, func(run *Run) {
				run.Received = append(run.Received, token)
				if !step.Matches(token) {
					run.Mismatches++
				}
			})
			if !step.Matches(token) {
				logger.Warn("Unexpected token", "step", i, "want", step.Expect, "got", token)
			}
		}

		for _, frame := range step.Send {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
		}
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, protocol.Health{
		Status:  "ok",
		Message: "Replay server is running",
		Version: Version,
	})
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req protocol.SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	seed := randutil.Seed(s.seed)
	sim := newSimulation(req, seed)
	summary := sim.run()
	if summary.NumGames > 0 {
		if err := sim.stats.Validate(); err != nil {
			s.logger.Error("Simulation statistics inconsistent", "error", err, "seed", seed)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	s.mu.Lock()
	s.results = sim.lines
	s.mu.Unlock()

	s.logger.Info("Simulation complete",
		"games", summary.NumGames,
		"requested", req.NumGames,
		"profit", summary.TotalProfit,
		"seed", seed)
	for _, line := range sim.logs {
		s.logger.Debug(line)
	}

	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	var b strings.Builder
	for _, line := range s.results {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for _, run := range s.runs {
		fmt.Fprintf(&b, "run%d: received: %s mismatches: %d completed: %t\n",
			run.ID, strings.Join(run.Received, ","), run.Mismatches, run.Completed)
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="results.txt"`)
	_, _ = w.Write([]byte(b.String())) // Ignore write errors for results
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) // Ignore encode errors after headers are sent
}
