package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/flightlinehq/flightline/internal/orchestrator"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Browser clients connect from the web widget's origin; auth is out of
	// scope for this surface.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const wsWriteTimeout = 10 * time.Second

type wsInbound struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type wsOutbound struct {
	Type      string `json:"type"` // chunk, error, done
	SessionID string `json:"session_id,omitempty"`
	Text      string `json:"text,omitempty"`
	Error     string `json:"error,omitempty"`
}

// handleWebSocket serves a persistent chat connection: one inbound JSON
// message per user turn, a sequence of chunk frames back, terminated by a
// done (or in-band error) frame.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sessionID := uuid.NewString()
	s.log.Info().Str("session", sessionID).Msg("websocket connected")

	for {
		var in wsInbound
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn().Err(err).Str("session", sessionID).Msg("websocket read failed")
			}
			return
		}
		if in.SessionID != "" {
			sessionID = in.SessionID
		}
		if strings.TrimSpace(in.Message) == "" {
			if err := s.writeWS(conn, wsOutbound{Type: "error", SessionID: sessionID, Error: "message is required"}); err != nil {
				return
			}
			continue
		}

		emit := func(ev orchestrator.StreamEvent) error {
			switch ev.Kind {
			case orchestrator.EventText:
				return s.writeWS(conn, wsOutbound{Type: "chunk", Text: ev.Text})
			case orchestrator.EventError:
				return s.writeWS(conn, wsOutbound{Type: "error", SessionID: sessionID, Error: ev.Err})
			case orchestrator.EventDone:
				return s.writeWS(conn, wsOutbound{Type: "done", SessionID: sessionID})
			}
			return nil
		}

		if err := s.chatter.ChatStream(r.Context(), sessionID, in.Message, emit); err != nil {
			s.log.Debug().Err(err).Str("session", sessionID).Msg("websocket stream aborted")
			return
		}
	}
}

func (s *Server) writeWS(conn *websocket.Conn, out wsOutbound) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(out)
}
