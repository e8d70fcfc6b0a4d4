// Package llm provides LLM provider integrations for Flightline.
// Supports Google Gemini and Groq with credential/model rotation.
package llm

import (
	"context"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a structured request from the model to invoke a tool.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Message is a single conversation message. Assistant messages may carry
// tool calls; tool messages carry the result for a specific call ID.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolName   string     `json:"tool_name,omitempty"`
}

// UserMessage builds a user message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// AssistantMessage builds a plain assistant message.
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

// ToolRequestMessage builds the assistant message that carries tool calls.
func ToolRequestMessage(content string, calls []ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// ToolResultMessage builds the message feeding a tool result back to the model.
// The call ID must reference a preceding ToolRequestMessage in the same pass.
func ToolResultMessage(callID, toolName, result string) Message {
	return Message{Role: RoleTool, Content: result, ToolCallID: callID, ToolName: toolName}
}

// ToolDef advertises a callable tool to the model.
// Parameters is a JSON-schema object describing the arguments.
type ToolDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// CompletionRequest is a single chat completion request.
type CompletionRequest struct {
	Messages     []Message `json:"messages"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
	Tools        []ToolDef `json:"tools,omitempty"`
	Temperature  float64   `json:"temperature"`
	MaxTokens    int       `json:"max_tokens,omitempty"`
}

// CompletionResponse is the model's reply to a CompletionRequest.
type CompletionResponse struct {
	Content          string     `json:"content"`
	ToolCalls        []ToolCall `json:"tool_calls,omitempty"`
	Model            string     `json:"model"`
	FinishReason     string     `json:"finish_reason,omitempty"`
	PromptTokens     int        `json:"prompt_tokens,omitempty"`
	CompletionTokens int        `json:"completion_tokens,omitempty"`
}

// ChunkKind discriminates the streaming chunk union.
type ChunkKind int

const (
	// ChunkText carries an incremental text delta.
	ChunkText ChunkKind = iota
	// ChunkToolCall carries one complete requested tool call.
	ChunkToolCall
	// ChunkEnd marks the natural end of a stream.
	ChunkEnd
	// ChunkError carries an in-band stream error.
	ChunkError
)

// StreamChunk is one element of a streamed completion: a tagged union of
// text delta, tool call, end-of-stream marker, or error.
type StreamChunk struct {
	Kind     ChunkKind
	Text     string
	ToolCall *ToolCall
	Err      error
}

// StreamFunc receives stream chunks in emission order. Returning a non-nil
// error stops the stream and releases the upstream connection.
type StreamFunc func(chunk StreamChunk) error

// Client is a single (provider, model, credential) LLM binding.
type Client interface {
	// Complete sends one completion request and blocks for the full response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Stream sends a completion request and forwards chunks as they arrive.
	Stream(ctx context.Context, req *CompletionRequest, fn StreamFunc) error

	// ModelName returns the bound model identifier.
	ModelName() string
}
