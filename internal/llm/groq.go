package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const defaultGroqEndpoint = "https://api.groq.com/openai/v1"

// GroqProvider implements Provider for Groq's OpenAI-compatible API.
// Groq offers generous free-tier quotas and very low latency, which makes
// it the natural cross-provider fallback for Gemini quota exhaustion.
type GroqProvider struct {
	baseProvider
}

// NewGroqProvider creates a new Groq provider.
func NewGroqProvider(cfg ProviderConfig) *GroqProvider {
	return &GroqProvider{baseProvider: newBaseProvider(cfg, defaultGroqEndpoint)}
}

// Name returns the provider identifier.
func (p *GroqProvider) Name() string { return "groq" }

// NewClient creates a client bound to one (model, credential) combination.
func (p *GroqProvider) NewClient(model, apiKey string) Client {
	return &groqClient{provider: p, model: model, apiKey: apiKey}
}

type groqClient struct {
	provider *GroqProvider
	model    string
	apiKey   string
}

func (c *groqClient) ModelName() string { return c.model }

// Complete sends a chat completion request to Groq.
func (c *groqClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	groqReq := c.buildRequest(req, false)
	resp, err := c.do(ctx, groqReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var groqResp groqChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&groqResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(groqResp.Choices) == 0 {
		return nil, fmt.Errorf("groq %s: no choices in response", c.model)
	}

	choice := groqResp.Choices[0]
	toolCalls, err := parseGroqToolCalls(choice.Message.ToolCalls)
	if err != nil {
		return nil, err
	}

	return &CompletionResponse{
		Content:          choice.Message.Content,
		ToolCalls:        toolCalls,
		Model:            groqResp.Model,
		FinishReason:     choice.FinishReason,
		PromptTokens:     groqResp.Usage.PromptTokens,
		CompletionTokens: groqResp.Usage.CompletionTokens,
	}, nil
}

// Stream sends a streaming chat completion request. Tool call fragments are
// assembled across deltas and emitted as complete calls before ChunkEnd.
func (c *groqClient) Stream(ctx context.Context, req *CompletionRequest, fn StreamFunc) error {
	groqReq := c.buildRequest(req, true)
	resp, err := c.do(ctx, groqReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Tool call deltas arrive as fragments keyed by index: the first carries
	// id and name, later ones append argument text.
	pending := map[int]*groqToolCallDelta{}
	var order []int

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}

		var chunk groqStreamResponse
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return fmt.Errorf("decode stream chunk: %w", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta

		if delta.Content != "" {
			if err := fn(StreamChunk{Kind: ChunkText, Text: delta.Content}); err != nil {
				return err
			}
		}
		for _, tc := range delta.ToolCalls {
			existing, ok := pending[tc.Index]
			if !ok {
				copied := tc
				pending[tc.Index] = &copied
				order = append(order, tc.Index)
				continue
			}
			existing.Function.Arguments += tc.Function.Arguments
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}

	for _, idx := range order {
		call, err := pending[idx].toToolCall()
		if err != nil {
			return err
		}
		if err := fn(StreamChunk{Kind: ChunkToolCall, ToolCall: &call}); err != nil {
			return err
		}
	}

	return fn(StreamChunk{Kind: ChunkEnd})
}

func (c *groqClient) do(ctx context.Context, groqReq groqChatRequest) (*http.Response, error) {
	body, err := json.Marshal(groqReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := c.provider.config.Endpoint + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.provider.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := readLimitedBody(resp.Body, MaxErrorBodySize)
		resp.Body.Close()
		return nil, &APIError{Provider: "groq", Model: c.model, Status: resp.StatusCode, Body: string(bodyBytes)}
	}
	return resp, nil
}

// buildRequest converts the provider-agnostic request to OpenAI wire format.
func (c *groqClient) buildRequest(req *CompletionRequest, stream bool) groqChatRequest {
	out := groqChatRequest{
		Model:       c.model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      stream,
	}
	if out.MaxTokens == 0 {
		out.MaxTokens = c.provider.config.MaxTokens
	}

	if req.SystemPrompt != "" {
		out.Messages = append(out.Messages, groqMessage{Role: "system", Content: req.SystemPrompt})
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleAssistant:
			gm := groqMessage{Role: "assistant", Content: msg.Content}
			for _, call := range msg.ToolCalls {
				args, _ := json.Marshal(call.Arguments)
				gm.ToolCalls = append(gm.ToolCalls, groqToolCall{
					ID:   call.ID,
					Type: "function",
					Function: groqFunctionCall{
						Name:      call.Name,
						Arguments: string(args),
					},
				})
			}
			out.Messages = append(out.Messages, gm)
		case RoleTool:
			out.Messages = append(out.Messages, groqMessage{
				Role:       "tool",
				Content:    msg.Content,
				ToolCallID: msg.ToolCallID,
			})
		default:
			out.Messages = append(out.Messages, groqMessage{Role: string(msg.Role), Content: msg.Content})
		}
	}

	for _, tool := range req.Tools {
		out.Tools = append(out.Tools, groqTool{
			Type: "function",
			Function: groqFunctionDef{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}

	return out
}

func parseGroqToolCalls(raw []groqToolCall) ([]ToolCall, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	calls := make([]ToolCall, 0, len(raw))
	for _, tc := range raw {
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("parse tool call arguments for %s: %w", tc.Function.Name, err)
			}
		}
		calls = append(calls, ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: args})
	}
	return calls, nil
}

// Groq API types (OpenAI-compatible)
type groqChatRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	Tools       []groqTool    `json:"tools,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type groqMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []groqToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type groqTool struct {
	Type     string          `json:"type"`
	Function groqFunctionDef `json:"function"`
}

type groqFunctionDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type groqToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function groqFunctionCall `json:"function"`
}

type groqFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type groqChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int `json:"index"`
		Message      struct {
			Role      string         `json:"role"`
			Content   string         `json:"content"`
			ToolCalls []groqToolCall `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type groqStreamResponse struct {
	Choices []struct {
		Delta struct {
			Content   string              `json:"content"`
			ToolCalls []groqToolCallDelta `json:"tool_calls"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type groqToolCallDelta struct {
	Index    int              `json:"index"`
	ID       string           `json:"id"`
	Function groqFunctionCall `json:"function"`
}

func (d *groqToolCallDelta) toToolCall() (ToolCall, error) {
	args := map[string]any{}
	if d.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(d.Function.Arguments), &args); err != nil {
			return ToolCall{}, fmt.Errorf("parse streamed tool call arguments for %s: %w", d.Function.Name, err)
		}
	}
	return ToolCall{ID: d.ID, Name: d.Function.Name, Arguments: args}, nil
}
