package orchestrator

import (
	"context"
	"errors"
	"strings"

	"github.com/flightlinehq/flightline/internal/llm"
)

// EventKind discriminates stream events delivered to transport layers.
type EventKind int

const (
	// EventText carries an incremental text delta.
	EventText EventKind = iota
	// EventError is a final delta carrying an error payload; the stream
	// ends after it, letting clients render partial output gracefully.
	EventError
	// EventDone marks the successful end of the stream.
	EventDone
)

// StreamEvent is one element of the public streaming contract.
type StreamEvent struct {
	Kind EventKind `json:"-"`
	Text string    `json:"text,omitempty"`
	Err  string    `json:"error,omitempty"`
}

// EmitFunc receives stream events in order. A non-nil return aborts the
// stream (client gone); the upstream provider connection is released.
type EmitFunc func(StreamEvent) error

// accumulator is the single state machine shared by the first pass and the
// post-tool pass: it forwards text deltas to the client while buffering the
// full text and collecting requested tool calls.
type accumulator struct {
	text  strings.Builder
	calls []llm.ToolCall
	emit  EmitFunc
}

func (a *accumulator) sink(chunk llm.StreamChunk) error {
	switch chunk.Kind {
	case llm.ChunkText:
		a.text.WriteString(chunk.Text)
		return a.emit(StreamEvent{Kind: EventText, Text: chunk.Text})
	case llm.ChunkToolCall:
		a.calls = append(a.calls, *chunk.ToolCall)
	case llm.ChunkError:
		return chunk.Err
	}
	return nil
}

// ChatStream runs one streaming turn. Text deltas are forwarded as they
// arrive; tool calls are collected during the first pass and executed once
// before a second, tool-free pass streams the final answer. The
// accumulated text is committed to session memory when the turn ends,
// including after a mid-stream failure, so the user-visible partial output
// and the recorded history agree.
func (o *Orchestrator) ChatStream(ctx context.Context, sessionID, userMessage string, emit EmitFunc) error {
	tc := o.prepare(ctx, sessionID, userMessage)
	acc := &accumulator{emit: emit}

	err := o.invoker.Stream(ctx, &llm.Request{
		Messages:     tc.history,
		SystemPrompt: tc.systemPrompt,
		Temperature:  o.temperature,
		Tools:        o.registry.Defs(),
	}, acc.sink)
	if err != nil {
		return o.finishStreamWithError(sessionID, acc, err, emit)
	}

	if len(acc.calls) > 0 {
		working := o.withToolResults(ctx, tc.history, acc.text.String(), acc.calls)
		err = o.invoker.Stream(ctx, &llm.Request{
			Messages:     working,
			SystemPrompt: tc.systemPrompt,
			Temperature:  o.temperature,
		}, acc.sink)
		if err != nil {
			return o.finishStreamWithError(sessionID, acc, err, emit)
		}
	}

	if text := acc.text.String(); text != "" {
		o.sessions.Append(sessionID, llm.AssistantMessage(text))
	}
	return emit(StreamEvent{Kind: EventDone})
}

// finishStreamWithError commits whatever partial text accumulated, then
// delivers the error in-band as the stream's final event. A stream that
// produced nothing at all still yields exactly one synthetic error event,
// never a silent empty stream.
func (o *Orchestrator) finishStreamWithError(sessionID string, acc *accumulator, err error, emit EmitFunc) error {
	o.log.Error().Err(err).Str("session", sessionID).Msg("stream turn failed")
	if text := acc.text.String(); text != "" {
		o.sessions.Append(sessionID, llm.AssistantMessage(text))
	}
	return emit(StreamEvent{Kind: EventError, Err: userFacingError(err)})
}

// userFacingError maps internal failures to the apology shown to users.
func userFacingError(err error) string {
	var exhausted *llm.AllProvidersExhaustedError
	if errors.As(err, &exhausted) {
		return "I'm sorry, our assistant is experiencing high demand right now. Please try again in a moment."
	}
	return "I'm sorry, something went wrong while generating the response. Please try again."
}
