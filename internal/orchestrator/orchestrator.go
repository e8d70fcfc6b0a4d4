// Package orchestrator drives one conversation turn end to end: session
// bookkeeping, language detection, retrieval, prompt assembly, the model
// invocation with its single tool round, and the final answer commit.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/flightlinehq/flightline/internal/llm"
	"github.com/flightlinehq/flightline/internal/prompt"
	"github.com/flightlinehq/flightline/internal/retrieval"
	"github.com/flightlinehq/flightline/internal/session"
	"github.com/flightlinehq/flightline/internal/tools"
)

// retrievalK is how many passages each turn pulls into context.
const retrievalK = 3

// defaultTemperature matches the conversational register the persona is
// tuned for.
const defaultTemperature = 0.7

// Detector resolves the language of a user message given the session's
// previous language.
type Detector interface {
	Detect(text, sessionHint string) string
}

// Orchestrator coordinates the collaborators for chat turns. Construct
// once and share; all methods are safe for concurrent use across sessions.
type Orchestrator struct {
	invoker     llm.Invoker
	sessions    *session.Store
	detector    Detector
	searcher    retrieval.Searcher // nil disables retrieval
	assembler   *prompt.Assembler
	registry    *tools.Registry
	temperature float64
	log         zerolog.Logger
}

// Config carries the orchestrator's collaborators.
type Config struct {
	Invoker   llm.Invoker
	Sessions  *session.Store
	Detector  Detector
	Searcher  retrieval.Searcher
	Assembler *prompt.Assembler
	Registry  *tools.Registry

	// Temperature for model invocations; 0 selects the default.
	Temperature float64
}

// New creates an orchestrator.
func New(cfg Config) *Orchestrator {
	temp := cfg.Temperature
	if temp == 0 {
		temp = defaultTemperature
	}
	assembler := cfg.Assembler
	if assembler == nil {
		assembler = prompt.NewAssembler()
	}
	return &Orchestrator{
		invoker:     cfg.Invoker,
		sessions:    cfg.Sessions,
		detector:    cfg.Detector,
		searcher:    cfg.Searcher,
		assembler:   assembler,
		registry:    cfg.Registry,
		temperature: temp,
		log:         log.With().Str("component", "orchestrator").Logger(),
	}
}

// turnContext is the per-turn state built before the model is invoked.
type turnContext struct {
	sessionID    string
	systemPrompt string
	history      []llm.Message
}

// prepare appends the user message, resolves the language hint, retrieves
// context best-effort, and assembles the prompt. The user message is
// committed before anything can fail, so a retried call sees consistent
// history.
func (o *Orchestrator) prepare(ctx context.Context, sessionID, userMessage string) turnContext {
	o.sessions.Append(sessionID, llm.UserMessage(userMessage))

	lang := o.detector.Detect(userMessage, o.sessions.Language(sessionID))
	o.sessions.SetLanguage(sessionID, lang)

	var passages []retrieval.Passage
	if o.searcher != nil {
		found, err := o.searcher.Search(ctx, userMessage, retrievalK)
		if err != nil {
			// Retrieval is best-effort: degrade to empty context.
			o.log.Warn().Err(err).Str("session", sessionID).
				Msg("retrieval failed, continuing without context")
		} else {
			passages = found
		}
	}

	systemPrompt, history := o.assembler.Assemble(o.sessions.History(sessionID), lang, passages)
	return turnContext{sessionID: sessionID, systemPrompt: systemPrompt, history: history}
}

// Chat runs one synchronous turn and returns the assistant's final answer.
func (o *Orchestrator) Chat(ctx context.Context, sessionID, userMessage string) (string, error) {
	tc := o.prepare(ctx, sessionID, userMessage)

	resp, err := o.invoker.Invoke(ctx, &llm.Request{
		Messages:     tc.history,
		SystemPrompt: tc.systemPrompt,
		Temperature:  o.temperature,
		Tools:        o.registry.Defs(),
	})
	if err != nil {
		return "", fmt.Errorf("model invocation: %w", err)
	}

	final := resp.Content
	if len(resp.ToolCalls) > 0 {
		final, err = o.resolveTools(ctx, tc, resp)
		if err != nil {
			return "", err
		}
	}

	o.sessions.Append(sessionID, llm.AssistantMessage(final))
	return final, nil
}

// resolveTools executes the requested tool calls and re-invokes the model
// without tools for the natural-language answer. Exactly one tool round
// runs per turn; a second batch of tool calls from the final pass is not
// honored.
func (o *Orchestrator) resolveTools(ctx context.Context, tc turnContext, resp *llm.CompletionResponse) (string, error) {
	working := o.withToolResults(ctx, tc.history, resp.Content, resp.ToolCalls)

	final, err := o.invoker.Invoke(ctx, &llm.Request{
		Messages:     working,
		SystemPrompt: tc.systemPrompt,
		Temperature:  o.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("post-tool invocation: %w", err)
	}
	return final.Content, nil
}

// withToolResults extends history with the assistant's tool request and
// one ToolResult per call. Results are working-list only; they are never
// written to session memory.
func (o *Orchestrator) withToolResults(ctx context.Context, history []llm.Message, content string, calls []llm.ToolCall) []llm.Message {
	working := make([]llm.Message, len(history), len(history)+1+len(calls))
	copy(working, history)
	working = append(working, llm.ToolRequestMessage(content, calls))

	for _, call := range calls {
		result := o.registry.Dispatch(ctx, call)
		o.log.Info().Str("tool", call.Name).Str("call_id", call.ID).Msg("tool resolved")
		working = append(working, llm.ToolResultMessage(call.ID, call.Name, result))
	}
	return working
}
