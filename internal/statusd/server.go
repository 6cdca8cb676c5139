// Package statusd exposes a small loopback HTTP server with the engine's
// current status and a live WebSocket log stream.
package statusd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zhoulinyu/imbot/internal/logging"
)

// Snapshot is the status document served at /status.
type Snapshot struct {
	State   string `json:"state"`
	Cursor  int64  `json:"cursor"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// SnapshotFunc produces the current status on demand.
type SnapshotFunc func() Snapshot

// Server serves status and log-stream endpoints on the loopback interface.
type Server struct {
	port     int
	snapshot SnapshotFunc
	logs     *logging.Broadcaster
	log      *logging.Logger

	startedAt  time.Time
	listener   net.Listener
	httpServer *http.Server
	upgrader   websocket.Upgrader
}

func New(port int, snapshot SnapshotFunc, logs *logging.Broadcaster, log *logging.Logger) *Server {
	return &Server{
		port:     port,
		snapshot: snapshot,
		logs:     logs,
		log:      log.Sub("statusd"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// Start listens on 127.0.0.1 and serves until ctx is cancelled. It returns
// once the listener is up.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", s.port))
	if err != nil {
		return fmt.Errorf("starting status server: %w", err)
	}
	s.listener = ln
	s.startedAt = time.Now()

	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/logs/stream", s.handleLogStream)
	s.httpServer = &http.Server{Handler: mux}

	s.log.Info().Str("addr", ln.Addr().String()).Msg("status server ready")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("status server failed")
		}
	}()
	return nil
}

// Addr returns the bound address, or empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := s.snapshot()
	snap.Uptime = time.Since(s.startedAt).Round(time.Second).String()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

func (s *Server) handleLogStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	lines, cancel := s.logs.Subscribe()
	defer cancel()

	s.log.Debug().Str("remote", r.RemoteAddr).Msg("log stream attached")

	// Drain the client side only to notice disconnects.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	for line := range lines {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, line); err != nil {
			return
		}
	}
}
