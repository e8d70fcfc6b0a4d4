package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProvider builds clients whose outcomes are scripted per
// (model, credential) key, and records the order combinations were tried.
type scriptedProvider struct {
	name string

	mu       sync.Mutex
	calls    []string
	fail     map[string]error
	response string

	// streamText maps keys to text emitted before the scripted failure,
	// for testing mid-stream failure semantics.
	streamText map[string]string
}

func newScriptedProvider(name string) *scriptedProvider {
	return &scriptedProvider{
		name:       name,
		fail:       map[string]error{},
		response:   "ok",
		streamText: map[string]string{},
	}
}

func (p *scriptedProvider) Name() string { return p.name }

func (p *scriptedProvider) NewClient(model, apiKey string) Client {
	return &scriptedClient{provider: p, key: model + "#" + apiKey, model: model}
}

func (p *scriptedProvider) record(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, key)
}

func (p *scriptedProvider) callLog() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

type scriptedClient struct {
	provider *scriptedProvider
	key      string
	model    string
}

func (c *scriptedClient) ModelName() string { return c.model }

func (c *scriptedClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	c.provider.record(c.key)
	if err := c.provider.fail[c.key]; err != nil {
		return nil, err
	}
	return &CompletionResponse{Content: c.provider.response, Model: c.model}, nil
}

func (c *scriptedClient) Stream(ctx context.Context, req *CompletionRequest, fn StreamFunc) error {
	c.provider.record(c.key)
	if text := c.provider.streamText[c.key]; text != "" {
		if err := fn(StreamChunk{Kind: ChunkText, Text: text}); err != nil {
			return err
		}
	}
	if err := c.provider.fail[c.key]; err != nil {
		return err
	}
	return fn(StreamChunk{Kind: ChunkEnd})
}

func twoByTwoPool(p Provider) *Pool {
	return NewPool(p,
		[]string{"model-a", "model-b"},
		[]Credential{{ID: "primary", Key: "k1"}, {ID: "fallback", Key: "k2"}},
	)
}

func TestPoolModelMajorOrder(t *testing.T) {
	p := newScriptedProvider("gemini")
	pool := twoByTwoPool(p)

	combos := pool.Combinations()
	require.Len(t, combos, 4)
	assert.Equal(t, "gemini/model-a#primary", combos[0].String())
	assert.Equal(t, "gemini/model-a#fallback", combos[1].String())
	assert.Equal(t, "gemini/model-b#primary", combos[2].String())
	assert.Equal(t, "gemini/model-b#fallback", combos[3].String())
}

func TestCursorNextWraps(t *testing.T) {
	c := &Cursor{}
	got := []int{c.Next(3), c.Next(3), c.Next(3), c.Next(3)}
	assert.Equal(t, []int{0, 1, 2, 0}, got)
}

func TestInvokeAdvancesCursorPerCall(t *testing.T) {
	p := newScriptedProvider("gemini")
	m := NewManager(twoByTwoPool(p), nil, &Cursor{})

	req := &Request{Messages: []Message{UserMessage("hi")}}
	for i := 0; i < 3; i++ {
		_, err := m.Invoke(context.Background(), req)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"model-a#k1", "model-a#k2", "model-b#k1"}, p.callLog())
}

func TestInvokeSweepsPastFailures(t *testing.T) {
	p := newScriptedProvider("gemini")
	p.fail["model-a#k1"] = &APIError{Provider: "gemini", Model: "model-a", Status: 429, Body: "quota"}
	p.fail["model-a#k2"] = &APIError{Provider: "gemini", Model: "model-a", Status: 401, Body: "bad key"}
	m := NewManager(twoByTwoPool(p), nil, &Cursor{})

	resp, err := m.Invoke(context.Background(), &Request{Messages: []Message{UserMessage("hi")}})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	// Fatal and retryable failures both advance the sweep.
	assert.Equal(t, []string{"model-a#k1", "model-a#k2", "model-b#k1"}, p.callLog())
}

func TestInvokeCursorMovesOncePerInvocation(t *testing.T) {
	p := newScriptedProvider("gemini")
	p.fail["model-a#k1"] = &APIError{Status: 503}
	p.fail["model-a#k2"] = &APIError{Status: 503}
	m := NewManager(twoByTwoPool(p), nil, &Cursor{})

	_, err := m.Invoke(context.Background(), &Request{Messages: []Message{UserMessage("one")}})
	require.NoError(t, err)

	// The first invocation swept three slots but consumed only one cursor
	// tick, so the second starts at slot 1.
	p.mu.Lock()
	p.calls = nil
	p.mu.Unlock()
	_, err = m.Invoke(context.Background(), &Request{Messages: []Message{UserMessage("two")}})
	require.NoError(t, err)
	assert.Equal(t, []string{"model-a#k2"}, p.callLog()[:1])
}

func TestInvokeCrossProviderFallback(t *testing.T) {
	gemini := newScriptedProvider("gemini")
	gemini.fail["model-a#k1"] = &APIError{Status: 429}
	gemini.fail["model-a#k2"] = &APIError{Status: 429}
	gemini.fail["model-b#k1"] = &APIError{Status: 429}
	gemini.fail["model-b#k2"] = &APIError{Status: 429}

	groq := newScriptedProvider("groq")
	groq.response = "from groq"
	groqPool := NewPool(groq, []string{"llama"}, []Credential{{ID: "groq", Key: "g1"}})

	m := NewManager(twoByTwoPool(gemini), groqPool, &Cursor{})
	resp, err := m.Invoke(context.Background(), &Request{Messages: []Message{UserMessage("hi")}})
	require.NoError(t, err)
	assert.Equal(t, "from groq", resp.Content)
	assert.Len(t, gemini.callLog(), 4)
	assert.Equal(t, []string{"llama#g1"}, groq.callLog())
}

func TestInvokeAllProvidersExhausted(t *testing.T) {
	gemini := newScriptedProvider("gemini")
	for _, key := range []string{"model-a#k1", "model-a#k2", "model-b#k1", "model-b#k2"} {
		gemini.fail[key] = &APIError{Status: 429, Body: "quota"}
	}
	groq := newScriptedProvider("groq")
	groq.fail["llama#g1"] = fmt.Errorf("connection refused")
	groqPool := NewPool(groq, []string{"llama"}, []Credential{{ID: "groq", Key: "g1"}})

	m := NewManager(twoByTwoPool(gemini), groqPool, &Cursor{})
	_, err := m.Invoke(context.Background(), &Request{Messages: []Message{UserMessage("hi")}})
	require.Error(t, err)

	var exhausted *AllProvidersExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 5, exhausted.Attempts)
	assert.EqualError(t, exhausted.LastErr, "connection refused")
}

func TestExplicitModelBypassesRotation(t *testing.T) {
	p := newScriptedProvider("gemini")
	p.fail["pinned#k1"] = &APIError{Status: 429}
	m := NewManager(twoByTwoPool(p), nil, &Cursor{})

	resp, err := m.Invoke(context.Background(), &Request{
		Messages:      []Message{UserMessage("hi")},
		ExplicitModel: "pinned",
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, []string{"pinned#k1", "pinned#k2"}, p.callLog())

	// Explicit-model calls must not move the shared cursor.
	p.mu.Lock()
	p.calls = nil
	p.mu.Unlock()
	_, err = m.Invoke(context.Background(), &Request{Messages: []Message{UserMessage("hi")}})
	require.NoError(t, err)
	assert.Equal(t, []string{"model-a#k1"}, p.callLog())
}

func TestExplicitModelExhaustsCredentialChain(t *testing.T) {
	p := newScriptedProvider("gemini")
	p.fail["pinned#k1"] = &APIError{Status: 401}
	p.fail["pinned#k2"] = &APIError{Status: 401}
	m := NewManager(twoByTwoPool(p), nil, &Cursor{})

	_, err := m.Invoke(context.Background(), &Request{
		Messages:      []Message{UserMessage("hi")},
		ExplicitModel: "pinned",
	})
	var exhausted *AllProvidersExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 2, exhausted.Attempts)
}

func TestStreamAdvancesBeforeFirstChunk(t *testing.T) {
	p := newScriptedProvider("gemini")
	p.fail["model-a#k1"] = &APIError{Status: 429}
	p.streamText["model-a#k2"] = "streamed"
	m := NewManager(twoByTwoPool(p), nil, &Cursor{})

	var got string
	err := m.Stream(context.Background(), &Request{Messages: []Message{UserMessage("hi")}}, func(ch StreamChunk) error {
		if ch.Kind == ChunkText {
			got += ch.Text
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "streamed", got)
	assert.Equal(t, []string{"model-a#k1", "model-a#k2"}, p.callLog())
}

func TestStreamFailureAfterEmissionSurfaces(t *testing.T) {
	p := newScriptedProvider("gemini")
	p.streamText["model-a#k1"] = "partial "
	p.fail["model-a#k1"] = errors.New("stream cut")
	m := NewManager(twoByTwoPool(p), nil, &Cursor{})

	var got string
	err := m.Stream(context.Background(), &Request{Messages: []Message{UserMessage("hi")}}, func(ch StreamChunk) error {
		if ch.Kind == ChunkText {
			got += ch.Text
		}
		return nil
	})
	require.EqualError(t, err, "stream cut")
	assert.Equal(t, "partial ", got)
	// No further combination is attempted once output has been forwarded.
	assert.Equal(t, []string{"model-a#k1"}, p.callLog())
}

func TestStreamAllExhausted(t *testing.T) {
	p := newScriptedProvider("gemini")
	for _, key := range []string{"model-a#k1", "model-a#k2", "model-b#k1", "model-b#k2"} {
		p.fail[key] = &APIError{Status: 503}
	}
	m := NewManager(twoByTwoPool(p), nil, &Cursor{})

	err := m.Stream(context.Background(), &Request{Messages: []Message{UserMessage("hi")}}, func(StreamChunk) error {
		return nil
	})
	var exhausted *AllProvidersExhaustedError
	require.ErrorAs(t, err, &exhausted)
}

func TestMetricsRecordAttempts(t *testing.T) {
	p := newScriptedProvider("gemini")
	p.fail["model-a#k1"] = &APIError{Status: 429}
	m := NewManager(twoByTwoPool(p), nil, &Cursor{})

	_, err := m.Invoke(context.Background(), &Request{Messages: []Message{UserMessage("hi")}})
	require.NoError(t, err)

	snap := m.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap["gemini/model-a#primary"].Errors)
	assert.Equal(t, int64(1), snap["gemini/model-a#fallback"].Calls)
	assert.Equal(t, int64(0), snap["gemini/model-a#fallback"].Errors)
}
