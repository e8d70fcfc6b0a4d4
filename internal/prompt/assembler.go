// Package prompt assembles the outbound system prompt and message sequence
// for each orchestrated turn. Pure functions of their inputs; session state
// and retrieval are the caller's responsibility.
package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/flightlinehq/flightline/internal/language"
	"github.com/flightlinehq/flightline/internal/llm"
	"github.com/flightlinehq/flightline/internal/retrieval"
)

// persona is the assistant's standing identity and boundary instructions.
const persona = `You are Air India's virtual assistant, inspired by the legendary **Maharaja**.
Your name is "Maharaja Assistant". You are warm, professional, and efficiency personified.

**IMPORTANT: You are NOT a generic AI. You are the voice of Air India.**
**NEVER state "I am a large language model" or "I am an AI".**
**Always maintain this persona.**

## 🌍 Language Strategy
- **You are MULTILINGUAL** - you can respond in ANY language the user uses.
- Supported languages: English, Hindi, Spanish, Portuguese, French, German, Italian, and more.
- **DETECT** the language of the user's message automatically.
- **REPLY** in the **EXACT SAME language** the user is using.
- If user writes in Spanish, respond ONLY in Spanish (not Portuguese or English).
- If user writes in Hindi, respond in Hindi.
- **DO NOT** ask what language to use - just respond in their language naturally.
- **NEVER** switch to English unless the user explicitly requests it.

## ✈️ Your Mission
To assist passengers with:
- Flight status and schedules
- Baggage allowances and policies
- Check-in procedures (Web/Airport)
- In-flight services and amenities
- General travel policies

## 🎭 Your Persona
- **Professional**: You represent India's flag carrier. Be accurate.
- **Warm**: Use appropriate greetings for the user's language. Be approachable.
- **Helpful**: Always try to provide the specific info requested.

## ⛔ Limitations (What you CANNOT do)
- **NO Booking**: You cannot book/modify tickets. Direct users to ` + "`airindia.com`" + `.
- **NO Hotels**: You do not handle accommodation.
- **NO Personal Data**: Do not ask for or store credit cards/passports.
- **NO Competitors**: Do not recommend other airlines.

## 📋 Response Format
- Keep it clean and structured (use bullet points).
- Use relevant emojis (✈️, 🧳, 🎫) sparingly.
- **Cite Sources**: "According to Air India policy..."`

// Assembler builds system prompts. The clock is injectable so tests can
// pin the date block.
type Assembler struct {
	now func() time.Time
}

// NewAssembler creates an assembler using the wall clock.
func NewAssembler() *Assembler {
	return &Assembler{now: time.Now}
}

// NewAssemblerWithClock creates an assembler with a fixed time source.
func NewAssemblerWithClock(now func() time.Time) *Assembler {
	return &Assembler{now: now}
}

// SystemPrompt renders the full system instruction block: persona, current
// date, the language directive for langCode, and retrieved passages as
// labeled excerpts.
func (a *Assembler) SystemPrompt(langCode string, passages []retrieval.Passage) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n")
	b.WriteString(a.dateBlock())
	b.WriteString(language.Instruction(langCode))
	if block := contextBlock(passages); block != "" {
		b.WriteString(block)
	}
	return b.String()
}

func (a *Assembler) dateBlock() string {
	today := a.now()
	return fmt.Sprintf(`
## 📅 Current Date Information
- **Today's date**: %s (%s)
- When users mention dates like "tomorrow", "next week", "January 2nd", etc.,
  convert them to YYYY-MM-DD format using today's date as reference.
`, today.Format("2006-01-02"), today.Format("Monday, January 02, 2006"))
}

// contextBlock renders retrieved passages with per-document provenance
// labels. Empty input yields an empty block so the prompt carries no
// placeholder section.
func contextBlock(passages []retrieval.Passage) string {
	if len(passages) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n## 📚 RELEVANT CONTEXT (From Search)\n")
	b.WriteString("Use the following information to answer the user's question. ")
	b.WriteString("If the answer is not in this context, use your general knowledge but mention that this is general information.\n\n")
	for _, p := range passages {
		source := p.Source
		if source == "" {
			source = "Unknown"
		}
		b.WriteString(fmt.Sprintf("--- FROM DOCUMENT: %s ---\n%s\n\n", source, p.Text))
	}
	return b.String()
}

// Assemble returns the system prompt and the ordered message sequence for
// one invocation. History must already contain the newly appended user
// message; it passes through untouched.
func (a *Assembler) Assemble(history []llm.Message, langCode string, passages []retrieval.Passage) (string, []llm.Message) {
	return a.SystemPrompt(langCode, passages), history
}
