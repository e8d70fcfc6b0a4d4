package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightlinehq/flightline/internal/orchestrator"
)

type scriptedBackend struct {
	events []orchestrator.StreamEvent
	asked  []string
}

func (b *scriptedBackend) ChatStream(_ context.Context, _, userMessage string, emit orchestrator.EmitFunc) error {
	b.asked = append(b.asked, userMessage)
	for _, ev := range b.events {
		if err := emit(ev); err != nil {
			return err
		}
	}
	return nil
}

func sizedModel(backend Backend) Model {
	m := NewModel(backend)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model)
}

func TestSubmitRecordsTurnAndStartsStreaming(t *testing.T) {
	backend := &scriptedBackend{}
	m := sizedModel(backend)
	m.input.SetValue("flights to Mumbai")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	require.NotNil(t, cmd)
	assert.True(t, m.streaming)
	require.Len(t, m.messages, 2)
	assert.Equal(t, roleUser, m.messages[0].role)
	assert.Equal(t, "flights to Mumbai", m.messages[0].text)
	assert.Equal(t, roleAssistant, m.messages[1].role)
	assert.Empty(t, m.input.Value())
}

func TestSubmitIgnoresBlankInput(t *testing.T) {
	m := sizedModel(&scriptedBackend{})
	m.input.SetValue("   ")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	assert.False(t, m.streaming)
	assert.Empty(t, m.messages)
}

func TestStreamEventsAccumulateIntoAssistantMessage(t *testing.T) {
	m := sizedModel(&scriptedBackend{})
	m.messages = []chatMessage{
		{role: roleUser, text: "hi"},
		{role: roleAssistant, text: ""},
	}
	m.streaming = true
	m.events = make(chan orchestrator.StreamEvent, 1)

	updated, _ := m.Update(streamEventMsg{Kind: orchestrator.EventText, Text: "Namaste"})
	m = updated.(Model)
	updated, _ = m.Update(streamEventMsg{Kind: orchestrator.EventText, Text: "!"})
	m = updated.(Model)

	assert.Equal(t, "Namaste!", m.messages[1].text)
	assert.True(t, m.streaming)

	updated, _ = m.Update(streamEventMsg{Kind: orchestrator.EventDone})
	m = updated.(Model)
	assert.False(t, m.streaming)
}

func TestStreamErrorRendersErrorLine(t *testing.T) {
	m := sizedModel(&scriptedBackend{})
	m.messages = []chatMessage{
		{role: roleUser, text: "hi"},
		{role: roleAssistant, text: "part"},
	}
	m.streaming = true
	m.events = make(chan orchestrator.StreamEvent, 1)

	updated, _ := m.Update(streamEventMsg{Kind: orchestrator.EventError, Err: "high demand"})
	m = updated.(Model)

	require.Len(t, m.messages, 3)
	assert.Equal(t, roleError, m.messages[2].role)
	assert.Equal(t, "high demand", m.messages[2].text)
	assert.False(t, m.streaming)
}

func TestEnterWhileStreamingIsIgnored(t *testing.T) {
	m := sizedModel(&scriptedBackend{})
	m.streaming = true
	m.input.SetValue("second question")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	assert.Nil(t, cmd)
	assert.Empty(t, m.messages)
	assert.Equal(t, "second question", m.input.Value())
}
