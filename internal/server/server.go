package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GriffinCanCode/screencue/internal/journal"
	"github.com/GriffinCanCode/screencue/internal/monitor"
	"github.com/GriffinCanCode/screencue/internal/trace"
)

// StatusSource exposes the live monitor snapshot.
type StatusSource interface {
	Status() monitor.Status
}

// EventFeed hands out event subscriptions.
type EventFeed interface {
	Subscribe() (<-chan monitor.Event, func())
}

// History reads persisted events. It may be nil when the journal is disabled.
type History interface {
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
}

// Message types.
type StatusMessage struct {
	Type   string         `json:"type"`
	Status monitor.Status `json:"status"`
}

type EventMessage struct {
	Type  string        `json:"type"`
	Event monitor.Event `json:"event"`
}

// Server handles HTTP and WebSocket connections.
type Server struct {
	status  StatusSource
	events  EventFeed
	history History
	clients atomic.Int32
}

// New creates a new server. history may be nil.
func New(status StatusSource, events EventFeed, history History) *Server {
	return &Server{status: status, events: events, history: history}
}

// Clients returns the number of connected WebSocket subscribers.
func (s *Server) Clients() int { return int(s.clients.Load()) }

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("/ws", s.handleWebSocket)

	// REST API
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Apply middleware: trace -> CORS
	return corsMiddleware(trace.Middleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.status.Status()
	code := http.StatusOK
	state := "ok"
	if !st.Running {
		code = http.StatusServiceUnavailable
		state = "stopped"
	}
	writeJSON(w, code, map[string]string{"status": state, "phase": st.Phase.String()})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status.Status())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "journal disabled"})
		return
	}
	limit := HistoryDefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, HistoryMaxLimit)
	}
	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		trace.Logger(r.Context()).Error("history query failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		trace.Logger(r.Context()).Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	s.clients.Add(1)
	defer s.clients.Add(-1)

	// Get trace context from HTTP upgrade request
	log := trace.Logger(r.Context())
	log.Info("websocket connected", "remote", r.RemoteAddr)

	// subscribers only listen; CloseRead cancels ctx when the peer goes away
	ctx := conn.CloseRead(r.Context())

	events, cancel := s.events.Subscribe()
	defer cancel()

	if err := s.write(ctx, conn, StatusMessage{Type: "status", Status: s.status.Status()}); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			log.Debug("websocket closed", "remote", r.RemoteAddr)
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := s.write(ctx, conn, EventMessage{Type: "event", Event: ev}); err != nil {
				log.Debug("websocket write error", "error", err)
				return
			}
		}
	}
}

func (s *Server) write(ctx context.Context, conn *websocket.Conn, msg any) error {
	ctx, cancel := context.WithTimeout(ctx, WSWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
