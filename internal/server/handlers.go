package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/flightlinehq/flightline/internal/llm"
	"github.com/flightlinehq/flightline/internal/orchestrator"
)

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeChatRequest validates the chat payload. A missing session ID gets
// a fresh one so stateless clients still work.
func decodeChatRequest(r *http.Request) (chatRequest, error) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, fmt.Errorf("invalid JSON body")
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return req, fmt.Errorf("message is required")
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	return req, nil
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, err := decodeChatRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	answer, err := s.chatter.Chat(r.Context(), req.SessionID, req.Message)
	if err != nil {
		s.log.Error().Err(err).Str("session", req.SessionID).Msg("chat turn failed")
		var exhausted *llm.AllProvidersExhaustedError
		if errors.As(err, &exhausted) {
			writeJSON(w, http.StatusServiceUnavailable, chatResponse{
				SessionID: req.SessionID,
				Response:  "I'm sorry, our assistant is experiencing high demand right now. Please try again in a moment.",
			})
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to generate a response")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{SessionID: req.SessionID, Response: answer})
}

// handleChatStream streams the answer as Server-Sent Events. Each text
// delta is one data frame; errors arrive in-band as a final frame and the
// stream closes with [DONE].
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, err := decodeChatRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Session-Id", req.SessionID)
	w.WriteHeader(http.StatusOK)

	closed := false
	emit := func(ev orchestrator.StreamEvent) error {
		switch ev.Kind {
		case orchestrator.EventText:
			return writeSSE(w, flusher, orchestrator.StreamEvent{Text: ev.Text})
		case orchestrator.EventError:
			return writeSSE(w, flusher, orchestrator.StreamEvent{Err: ev.Err})
		case orchestrator.EventDone:
			closed = true
			_, err := fmt.Fprint(w, "data: [DONE]\n\n")
			flusher.Flush()
			return err
		}
		return nil
	}

	if err := s.chatter.ChatStream(r.Context(), req.SessionID, req.Message, emit); err != nil {
		// The client went away or writing failed; nothing more to send.
		s.log.Debug().Err(err).Str("session", req.SessionID).Msg("stream aborted")
		return
	}
	// An in-band error event is terminal but does not emit [DONE] itself.
	if !closed {
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.sessions.Clear(id)
	writeJSON(w, http.StatusOK, map[string]string{"session_id": id, "status": "cleared"})
}

func (s *Server) handleFlightSearch(w http.ResponseWriter, r *http.Request) {
	origin := r.URL.Query().Get("origin")
	destination := r.URL.Query().Get("destination")
	if origin == "" || destination == "" {
		writeError(w, http.StatusBadRequest, "origin and destination are required")
		return
	}
	results := s.flights.Search(origin, destination, 10)
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(results),
		"flights": results,
	})
}

func (s *Server) handleFlightDetails(w http.ResponseWriter, r *http.Request) {
	number := r.PathValue("number")
	flight, ok := s.flights.ByNumber(number)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("flight %s not found", number))
		return
	}
	writeJSON(w, http.StatusOK, flight)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Count(),
	}
	if s.metrics != nil {
		status["llm"] = s.metrics.Snapshot()
	}
	writeJSON(w, http.StatusOK, status)
}
