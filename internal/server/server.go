// Package server exposes the assistant over HTTP: JSON chat, SSE and
// WebSocket streaming, flight lookups, and operational status.
package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/flightlinehq/flightline/internal/flights"
	"github.com/flightlinehq/flightline/internal/llm"
	"github.com/flightlinehq/flightline/internal/orchestrator"
	"github.com/flightlinehq/flightline/internal/session"
)

// Chatter is the orchestration surface the server depends on.
type Chatter interface {
	Chat(ctx context.Context, sessionID, userMessage string) (string, error)
	ChatStream(ctx context.Context, sessionID, userMessage string, emit orchestrator.EmitFunc) error
}

// Server is the HTTP API.
type Server struct {
	chatter  Chatter
	flights  *flights.Service
	sessions *session.Store
	metrics  *llm.Metrics // may be nil
	log      zerolog.Logger

	httpServer *http.Server
}

// Config carries the server's collaborators.
type Config struct {
	Addr     string
	Chatter  Chatter
	Flights  *flights.Service
	Sessions *session.Store
	Metrics  *llm.Metrics
}

// New builds the server and its routes.
func New(cfg Config) *Server {
	s := &Server{
		chatter:  cfg.Chatter,
		flights:  cfg.Flights,
		sessions: cfg.Sessions,
		metrics:  cfg.Metrics,
		log:      log.With().Str("component", "server").Logger(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/chat/stream", s.handleChatStream)
	mux.HandleFunc("GET /ws/chat", s.handleWebSocket)
	mux.HandleFunc("DELETE /api/chat/sessions/{id}", s.handleClearSession)
	mux.HandleFunc("GET /api/flights/search", s.handleFlightSearch)
	mux.HandleFunc("GET /api/flights/{number}", s.handleFlightDetails)
	mux.HandleFunc("GET /api/status", s.handleStatus)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.accessLog(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe blocks serving requests until Shutdown.
func (s *Server) ListenAndServe() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("http server listening")
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// accessLog logs one line per request.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush forwards to the underlying writer so SSE streaming works through
// the access-log wrapper.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack forwards to the underlying writer so the WebSocket upgrade works
// through the access-log wrapper.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}
