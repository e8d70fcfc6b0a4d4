package prompt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightlinehq/flightline/internal/llm"
	"github.com/flightlinehq/flightline/internal/retrieval"
)

func fixedClock() time.Time {
	return time.Date(2026, time.August, 25, 10, 0, 0, 0, time.UTC)
}

func TestSystemPromptContainsPersonaAndDate(t *testing.T) {
	a := NewAssemblerWithClock(fixedClock)
	sp := a.SystemPrompt("en", nil)

	assert.Contains(t, sp, "Maharaja Assistant")
	assert.Contains(t, sp, "NEVER state \"I am a large language model\"")
	assert.Contains(t, sp, "2026-08-25")
	assert.Contains(t, sp, "Tuesday, August 25, 2026")
}

func TestSystemPromptLanguageDirective(t *testing.T) {
	a := NewAssemblerWithClock(fixedClock)

	sp := a.SystemPrompt("es", nil)
	assert.Contains(t, sp, "DETECTED USER LANGUAGE: SPANISH (es)")
	assert.Contains(t, sp, "not Portuguese")
}

func TestSystemPromptRendersPassages(t *testing.T) {
	a := NewAssemblerWithClock(fixedClock)
	sp := a.SystemPrompt("en", []retrieval.Passage{
		{Text: "Two pieces up to 23 kg.", Source: "baggage.md"},
		{Text: "Web check-in opens 48 hours before departure.", Source: ""},
	})

	assert.Contains(t, sp, "RELEVANT CONTEXT")
	assert.Contains(t, sp, "--- FROM DOCUMENT: baggage.md ---\nTwo pieces up to 23 kg.")
	assert.Contains(t, sp, "--- FROM DOCUMENT: Unknown ---")
}

func TestSystemPromptOmitsEmptyContext(t *testing.T) {
	a := NewAssemblerWithClock(fixedClock)
	assert.NotContains(t, a.SystemPrompt("en", nil), "RELEVANT CONTEXT")
}

func TestAssemblePassesHistoryThrough(t *testing.T) {
	a := NewAssemblerWithClock(fixedClock)
	history := []llm.Message{
		llm.UserMessage("hi"),
		llm.AssistantMessage("Namaste!"),
		llm.UserMessage("baggage rules?"),
	}

	sp, msgs := a.Assemble(history, "en", nil)
	require.NotEmpty(t, sp)
	assert.Equal(t, history, msgs)
}
