package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightlinehq/flightline/internal/flights"
	"github.com/flightlinehq/flightline/internal/llm"
	"github.com/flightlinehq/flightline/internal/orchestrator"
	"github.com/flightlinehq/flightline/internal/session"
)

type fakeChatter struct {
	answer string
	err    error
	events []orchestrator.StreamEvent

	lastSession string
	lastMessage string
}

func (f *fakeChatter) Chat(_ context.Context, sessionID, userMessage string) (string, error) {
	f.lastSession = sessionID
	f.lastMessage = userMessage
	return f.answer, f.err
}

func (f *fakeChatter) ChatStream(_ context.Context, sessionID, userMessage string, emit orchestrator.EmitFunc) error {
	f.lastSession = sessionID
	f.lastMessage = userMessage
	for _, ev := range f.events {
		if err := emit(ev); err != nil {
			return err
		}
	}
	return nil
}

func newTestServer(chatter *fakeChatter) *Server {
	return New(Config{
		Addr:     "127.0.0.1:0",
		Chatter:  chatter,
		Flights:  flights.NewService(),
		Sessions: session.NewStore(),
	})
}

func TestChatReturnsAnswer(t *testing.T) {
	chatter := &fakeChatter{answer: "Namaste! How may I help?"}
	srv := httptest.NewServer(newTestServer(chatter).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/chat", "application/json",
		strings.NewReader(`{"session_id":"s1","message":"hello"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body chatResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "s1", body.SessionID)
	assert.Equal(t, "Namaste! How may I help?", body.Response)
	assert.Equal(t, "hello", chatter.lastMessage)
}

func TestChatGeneratesSessionID(t *testing.T) {
	chatter := &fakeChatter{answer: "hi"}
	srv := httptest.NewServer(newTestServer(chatter).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/chat", "application/json",
		strings.NewReader(`{"message":"hello"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body chatResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.SessionID)
	assert.Equal(t, body.SessionID, chatter.lastSession)
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	srv := httptest.NewServer(newTestServer(&fakeChatter{}).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/chat", "application/json",
		strings.NewReader(`{"message":"   "}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatExhaustedReturnsServiceUnavailable(t *testing.T) {
	chatter := &fakeChatter{err: &llm.AllProvidersExhaustedError{Attempts: 5}}
	srv := httptest.NewServer(newTestServer(chatter).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/chat", "application/json",
		strings.NewReader(`{"session_id":"s1","message":"hello"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	var body chatResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body.Response, "high demand")
}

func TestChatStreamEmitsSSEFrames(t *testing.T) {
	chatter := &fakeChatter{events: []orchestrator.StreamEvent{
		{Kind: orchestrator.EventText, Text: "Hello"},
		{Kind: orchestrator.EventText, Text: " there"},
		{Kind: orchestrator.EventDone},
	}}
	srv := httptest.NewServer(newTestServer(chatter).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/chat/stream", "application/json",
		strings.NewReader(`{"session_id":"s1","message":"hello"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "s1", resp.Header.Get("X-Session-Id"))

	frames := readSSEFrames(t, resp)
	require.Equal(t, []string{`{"text":"Hello"}`, `{"text":" there"}`, "[DONE]"}, frames)
}

func TestChatStreamErrorFrameIsTerminal(t *testing.T) {
	chatter := &fakeChatter{events: []orchestrator.StreamEvent{
		{Kind: orchestrator.EventText, Text: "partial"},
		{Kind: orchestrator.EventError, Err: "something broke"},
	}}
	srv := httptest.NewServer(newTestServer(chatter).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/chat/stream", "application/json",
		strings.NewReader(`{"session_id":"s1","message":"hello"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	frames := readSSEFrames(t, resp)
	require.Equal(t, []string{`{"text":"partial"}`, `{"error":"something broke"}`, "[DONE]"}, frames)
}

func readSSEFrames(t *testing.T, resp *http.Response) []string {
	t.Helper()
	var frames []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			frames = append(frames, data)
		}
	}
	require.NoError(t, scanner.Err())
	return frames
}

func TestFlightSearch(t *testing.T) {
	srv := httptest.NewServer(newTestServer(&fakeChatter{}).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/flights/search?origin=Delhi&destination=Mumbai")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Count   int              `json:"count"`
		Flights []flights.Flight `json:"flights"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Greater(t, body.Count, 0)
	assert.Equal(t, "DEL", body.Flights[0].Origin)
}

func TestFlightSearchRequiresParams(t *testing.T) {
	srv := httptest.NewServer(newTestServer(&fakeChatter{}).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/flights/search?origin=Delhi")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFlightDetails(t *testing.T) {
	srv := httptest.NewServer(newTestServer(&fakeChatter{}).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/flights/AI%20865")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var flight flights.Flight
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&flight))
	assert.Equal(t, "AI 865", flight.Number)
}

func TestFlightDetailsNotFound(t *testing.T) {
	srv := httptest.NewServer(newTestServer(&fakeChatter{}).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/flights/AI%20999")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestClearSession(t *testing.T) {
	server := newTestServer(&fakeChatter{})
	server.sessions.Append("s1", llm.UserMessage("hello"))
	srv := httptest.NewServer(server.Handler())
	defer srv.Close()

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/chat/sessions/s1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, server.sessions.History("s1"))
}

func TestStatus(t *testing.T) {
	server := newTestServer(&fakeChatter{})
	server.sessions.Append("s1", llm.UserMessage("hello"))
	srv := httptest.NewServer(server.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(1), body["sessions"])
}
