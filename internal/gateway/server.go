// Package gateway is the localhost hook server: agent plugins POST event
// envelopes here, and live-view clients stream window frames over WebSocket.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/nextlevelbuilder/discode/internal/bus"
	"github.com/nextlevelbuilder/discode/internal/config"
	"github.com/nextlevelbuilder/discode/internal/hook"
	"github.com/nextlevelbuilder/discode/internal/pipeline"
	"github.com/nextlevelbuilder/discode/internal/routing"
	"github.com/nextlevelbuilder/discode/internal/term"
)

// maxEnvelopeBytes bounds a single hook request body.
const maxEnvelopeBytes = 1 << 20

// Server is the hook HTTP server.
type Server struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	windows  *term.Manager
	eventPub bus.EventPublisher

	upgrader websocket.Upgrader
	limiter  *rate.Limiter

	mu      sync.RWMutex
	clients map[string]*viewClient

	httpServer *http.Server
	mux        *http.ServeMux
}

// NewServer creates a hook server. windows and eventPub may be nil when the
// live view is not wired.
func NewServer(cfg *config.Config, p *pipeline.Pipeline, windows *term.Manager, eventPub bus.EventPublisher) *Server {
	s := &Server{
		cfg:      cfg,
		pipeline: p,
		windows:  windows,
		eventPub: eventPub,
		clients:  make(map[string]*viewClient),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// Hook server is loopback-only; browser origin checks do not apply.
		CheckOrigin: func(*http.Request) bool { return true },
	}
	if rps := cfg.Hook.RateLimitRPS; rps > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(rps), rps*2)
	}
	return s
}

// BuildMux creates and caches the HTTP mux with all routes registered.
func (s *Server) BuildMux() *http.ServeMux {
	if s.mux != nil {
		return s.mux
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/opencode-event", s.handleHookEvent)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ws/view", s.handleViewSocket)
	s.mux = mux
	return mux
}

// Start begins listening on the configured loopback address and blocks until
// ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	mux := s.BuildMux()

	addr := fmt.Sprintf("%s:%d", s.cfg.Hook.Host, s.cfg.Hook.Port)
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	slog.Info("hook server starting", "addr", addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("hook server: %w", err)
	}
	return nil
}

// BroadcastFrames publishes a styled frame for every registered window on a
// ticker until ctx is cancelled. Live-view subscribers pick these up through
// the bus.
func (s *Server) BroadcastFrames(ctx context.Context, interval time.Duration) {
	if s.windows == nil || s.eventPub == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, id := range s.windows.IDs() {
				win := s.windows.Get(id)
				if win == nil {
					continue
				}
				s.eventPub.Broadcast(bus.Event{Name: "frame", Payload: map[string]any{
					"window": id,
					"status": win.Status(),
					"frame":  win.Frame(),
				}})
			}
		}
	}
}

// isLoopback reports whether the request peer is a loopback address.
func isLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// handleHookEvent accepts one envelope per POST. All agents share this path;
// the envelope's agentType field discriminates.
func (s *Server) handleHookEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"ok": false, "reason": "POST only"})
		return
	}
	if !isLoopback(r.RemoteAddr) {
		slog.Warn("rejecting non-loopback hook peer", "remote", r.RemoteAddr)
		writeJSON(w, http.StatusForbidden, map[string]any{"ok": false, "reason": "loopback only"})
		return
	}
	if s.limiter != nil && !s.limiter.Allow() {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{"ok": false, "reason": "rate limited"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxEnvelopeBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "errors": []string{"unreadable body"}})
		return
	}

	env, errs := hook.Validate(body)
	if errs != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "errors": errs})
		return
	}

	if err := s.pipeline.Handle(r.Context(), env); err != nil {
		switch {
		case errors.Is(err, routing.ErrUnknownProject), errors.Is(err, routing.ErrUnknownChannel):
			writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "reason": "no channel"})
		default:
			slog.Error("hook event failed", "type", env.Type, "project", env.ProjectName, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "reason": "internal error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	windows := 0
	if s.windows != nil {
		windows = len(s.windows.IDs())
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "windows": windows})
}

// StartTestServer creates a listener on a random loopback port and returns
// the actual address and a start function. Used for integration tests.
func StartTestServer(s *Server, ctx context.Context) (addr string, start func()) {
	mux := http.NewServeMux()
	mux.HandleFunc("/opencode-event", s.handleHookEvent)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ws/view", s.handleViewSocket)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		panic("listen: " + err.Error())
	}

	s.httpServer = &http.Server{Handler: mux}
	addr = ln.Addr().String()

	start = func() {
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			s.httpServer.Shutdown(shutdownCtx)
		}()
		s.httpServer.Serve(ln)
	}

	return addr, start
}

// viewClient is one live-view WebSocket subscriber.
type viewClient struct {
	id       string
	windowID string
	conn     *websocket.Conn
	send     chan bus.Event
	done     chan struct{}
	once     sync.Once
}

func (c *viewClient) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// handleViewSocket streams window frames to a browser or TUI. The window
// query parameter scopes the stream to one window id; absent means all.
func (s *Server) handleViewSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("view socket upgrade failed", "error", err)
		return
	}

	client := &viewClient{
		id:       uuid.NewString(),
		windowID: r.URL.Query().Get("window"),
		conn:     conn,
		send:     make(chan bus.Event, 16),
		done:     make(chan struct{}),
	}
	s.registerClient(client)
	defer s.unregisterClient(client)

	// Initial frame so the viewer is not blank until the next broadcast.
	if s.windows != nil && client.windowID != "" {
		if win := s.windows.Get(client.windowID); win != nil {
			client.send <- bus.Event{Name: "frame", Payload: map[string]any{
				"window": client.windowID,
				"frame":  win.Frame(),
			}}
		}
	}

	go client.writeLoop()
	client.readLoop()
}

func (c *viewClient) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case event := <-c.send:
			if err := c.conn.WriteJSON(event); err != nil {
				c.close()
				return
			}
		}
	}
}

// readLoop drains the connection until the peer goes away. Inbound frames
// are ignored; the view is one-way.
func (c *viewClient) readLoop() {
	defer c.close()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) registerClient(c *viewClient) {
	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()

	if s.eventPub != nil {
		s.eventPub.Subscribe(c.id, func(event bus.Event) {
			if c.windowID != "" {
				if payload, ok := event.Payload.(map[string]any); ok {
					if wid, _ := payload["window"].(string); wid != "" && wid != c.windowID {
						return
					}
				}
			}
			select {
			case c.send <- event:
			default:
				// Slow viewer; drop the frame rather than stall the bus.
			}
		})
	}
	slog.Info("view client connected", "id", c.id, "window", c.windowID)
}

func (s *Server) unregisterClient(c *viewClient) {
	s.mu.Lock()
	delete(s.clients, c.id)
	s.mu.Unlock()
	if s.eventPub != nil {
		s.eventPub.Unsubscribe(c.id)
	}
	c.close()
	slog.Info("view client disconnected", "id", c.id)
}
