package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const defaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"

// GeminiProvider implements Provider for Google Gemini.
type GeminiProvider struct {
	baseProvider
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(cfg ProviderConfig) *GeminiProvider {
	return &GeminiProvider{baseProvider: newBaseProvider(cfg, defaultGeminiEndpoint)}
}

// Name returns the provider identifier.
func (p *GeminiProvider) Name() string { return "gemini" }

// NewClient creates a client bound to one (model, credential) combination.
func (p *GeminiProvider) NewClient(model, apiKey string) Client {
	return &geminiClient{provider: p, model: model, apiKey: apiKey}
}

type geminiClient struct {
	provider *GeminiProvider
	model    string
	apiKey   string
}

func (c *geminiClient) ModelName() string { return c.model }

// Complete sends a generateContent request to Gemini.
func (c *geminiClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	body, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.provider.config.Endpoint, c.model)
	resp, err := c.do(ctx, url, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var geminiResp geminiGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(geminiResp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini %s: no candidates in response", c.model)
	}

	candidate := geminiResp.Candidates[0]
	var content strings.Builder
	var toolCalls []ToolCall
	for _, part := range candidate.Content.Parts {
		content.WriteString(part.Text)
		if part.FunctionCall != nil {
			toolCalls = append(toolCalls, ToolCall{
				// Gemini does not assign call IDs; generate one so tool
				// results can reference their originating call.
				ID:        uuid.NewString(),
				Name:      part.FunctionCall.Name,
				Arguments: part.FunctionCall.Args,
			})
		}
	}

	return &CompletionResponse{
		Content:          content.String(),
		ToolCalls:        toolCalls,
		Model:            c.model,
		FinishReason:     candidate.FinishReason,
		PromptTokens:     geminiResp.UsageMetadata.PromptTokenCount,
		CompletionTokens: geminiResp.UsageMetadata.CandidatesTokenCount,
	}, nil
}

// Stream sends a streamGenerateContent request and forwards SSE chunks.
func (c *geminiClient) Stream(ctx context.Context, req *CompletionRequest, fn StreamFunc) error {
	body, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", c.provider.config.Endpoint, c.model)
	resp, err := c.do(ctx, url, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}

		var chunk geminiGenerateResponse
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return fmt.Errorf("decode stream chunk: %w", err)
		}
		if len(chunk.Candidates) == 0 {
			continue
		}
		for _, part := range chunk.Candidates[0].Content.Parts {
			if part.Text != "" {
				if err := fn(StreamChunk{Kind: ChunkText, Text: part.Text}); err != nil {
					return err
				}
			}
			if part.FunctionCall != nil {
				call := ToolCall{
					ID:        uuid.NewString(),
					Name:      part.FunctionCall.Name,
					Arguments: part.FunctionCall.Args,
				}
				if err := fn(StreamChunk{Kind: ChunkToolCall, ToolCall: &call}); err != nil {
					return err
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}

	return fn(StreamChunk{Kind: ChunkEnd})
}

func (c *geminiClient) do(ctx context.Context, url string, body []byte) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	// Key goes in a header, not the URL, to keep it out of logs.
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.provider.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := readLimitedBody(resp.Body, MaxErrorBodySize)
		resp.Body.Close()
		return nil, &APIError{Provider: "gemini", Model: c.model, Status: resp.StatusCode, Body: string(bodyBytes)}
	}
	return resp, nil
}

// buildRequest converts the provider-agnostic request to Gemini's wire format.
func (c *geminiClient) buildRequest(req *CompletionRequest) geminiGenerateRequest {
	out := geminiGenerateRequest{}
	out.GenerationConfig.Temperature = req.Temperature
	out.GenerationConfig.MaxOutputTokens = req.MaxTokens
	if out.GenerationConfig.MaxOutputTokens == 0 {
		out.GenerationConfig.MaxOutputTokens = c.provider.config.MaxTokens
	}

	if req.SystemPrompt != "" {
		out.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemPrompt}}}
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleAssistant:
			parts := []geminiPart{}
			if msg.Content != "" {
				parts = append(parts, geminiPart{Text: msg.Content})
			}
			for _, call := range msg.ToolCalls {
				parts = append(parts, geminiPart{FunctionCall: &geminiFunctionCall{
					Name: call.Name,
					Args: call.Arguments,
				}})
			}
			out.Contents = append(out.Contents, geminiContent{Role: "model", Parts: parts})
		case RoleTool:
			out.Contents = append(out.Contents, geminiContent{
				Role: "user",
				Parts: []geminiPart{{FunctionResponse: &geminiFunctionResponse{
					Name:     msg.ToolName,
					Response: map[string]any{"content": msg.Content},
				}}},
			})
		default:
			out.Contents = append(out.Contents, geminiContent{
				Role:  "user",
				Parts: []geminiPart{{Text: msg.Content}},
			})
		}
	}

	if len(req.Tools) > 0 {
		decls := make([]geminiFunctionDeclaration, 0, len(req.Tools))
		for _, tool := range req.Tools {
			decls = append(decls, geminiFunctionDeclaration{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			})
		}
		out.Tools = []geminiTool{{FunctionDeclarations: decls}}
	}

	return out
}

// Gemini API types
type geminiGenerateRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Tools             []geminiTool           `json:"tools,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text             string                  `json:"text,omitempty"`
	FunctionCall     *geminiFunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *geminiFunctionResponse `json:"functionResponse,omitempty"`
}

type geminiFunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

type geminiFunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type geminiTool struct {
	FunctionDeclarations []geminiFunctionDeclaration `json:"functionDeclarations"`
}

type geminiFunctionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
			Role  string       `json:"role"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}
