package llm

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Combination identifies one (provider, model, credential) binding in a
// rotation pool. Immutable and comparable.
type Combination struct {
	Provider     string
	Model        string
	CredentialID string
}

func (c Combination) String() string {
	return fmt.Sprintf("%s/%s#%s", c.Provider, c.Model, c.CredentialID)
}

// Credential pairs an API key with a stable label used in logs and metrics.
// The key value itself never appears in either.
type Credential struct {
	ID  string
	Key string
}

// Cursor is the shared rotation pointer. Next is a single atomic
// read-and-increment, so concurrent callers always land on distinct pool
// slots. Inject a fresh Cursor in tests for a deterministic start index.
type Cursor struct {
	n atomic.Int64
}

// Next returns the current slot for a pool of the given size and advances
// the cursor. The advance happens before any network call is made, giving
// proactive load distribution across calls.
func (c *Cursor) Next(size int) int {
	if size <= 0 {
		return 0
	}
	v := c.n.Add(1) - 1
	return int(v % int64(size))
}

// Pool is the ordered set of (model, credential) combinations for one
// provider: the cartesian product of the model list and the credential
// list, model-major (all credentials for model 1, then model 2, ...).
// Built once from configuration and never mutated afterwards.
type Pool struct {
	provider Provider
	creds    []Credential
	entries  []poolEntry
}

type poolEntry struct {
	combo  Combination
	client Client
}

// NewPool builds the rotation pool for a provider.
func NewPool(provider Provider, models []string, creds []Credential) *Pool {
	p := &Pool{provider: provider, creds: creds}
	for _, model := range models {
		for _, cred := range creds {
			p.entries = append(p.entries, poolEntry{
				combo: Combination{
					Provider:     provider.Name(),
					Model:        model,
					CredentialID: cred.ID,
				},
				client: provider.NewClient(model, cred.Key),
			})
		}
	}
	return p
}

// Size returns the number of combinations in the pool.
func (p *Pool) Size() int { return len(p.entries) }

// Combinations returns the pool's combinations in order.
func (p *Pool) Combinations() []Combination {
	combos := make([]Combination, len(p.entries))
	for i, e := range p.entries {
		combos[i] = e.combo
	}
	return combos
}

// Request is one orchestrated LLM invocation.
type Request struct {
	Messages     []Message
	SystemPrompt string
	Temperature  float64
	Tools        []ToolDef

	// ExplicitModel bypasses rotation: each of the provider's credentials
	// is tried for this model in registration order, without moving the
	// cursor.
	ExplicitModel string
}

// Invoker is the orchestrator-facing contract of the rotation manager.
type Invoker interface {
	Invoke(ctx context.Context, req *Request) (*CompletionResponse, error)
	Stream(ctx context.Context, req *Request, fn StreamFunc) error
}

// Manager selects and rotates among provider combinations. All callers
// share one cursor and the immutable pools; the manager owns both.
type Manager struct {
	primary  *Pool
	fallback *Pool // may be nil
	cursor   *Cursor
	metrics  *Metrics
	log      zerolog.Logger
}

// NewManager creates a rotation manager over a primary pool and an optional
// cross-provider fallback pool. A nil cursor allocates a fresh one.
func NewManager(primary, fallback *Pool, cursor *Cursor) *Manager {
	if cursor == nil {
		cursor = &Cursor{}
	}
	return &Manager{
		primary:  primary,
		fallback: fallback,
		cursor:   cursor,
		metrics:  NewMetrics(),
		log:      log.With().Str("component", "llm").Logger(),
	}
}

// Metrics returns the manager's per-combination call metrics.
func (m *Manager) Metrics() *Metrics { return m.metrics }

// attemptOutcome is the explicit result of one combination attempt. The
// sweep folds these over the pool instead of threading control flow through
// error handling.
type attemptOutcome struct {
	resp  *CompletionResponse
	err   error
	class failureClass
}

// Invoke runs one completion with rotation and fallback. It returns the
// first successful response, or AllProvidersExhaustedError after every
// combination in the primary pool and the cross-provider fallback failed.
func (m *Manager) Invoke(ctx context.Context, req *Request) (*CompletionResponse, error) {
	if req.ExplicitModel != "" {
		return m.invokeExplicit(ctx, req)
	}

	resp, attempts, lastErr := m.sweep(ctx, m.primary, req)
	if resp != nil {
		return resp, nil
	}

	if m.fallback != nil {
		m.log.Warn().Str("provider", m.primary.provider.Name()).
			Msg("primary pool exhausted, switching to fallback provider")
		var fbAttempts int
		resp, fbAttempts, lastErr = m.sweep(ctx, m.fallback, req)
		attempts += fbAttempts
		if resp != nil {
			return resp, nil
		}
	}

	return nil, &AllProvidersExhaustedError{Attempts: attempts, LastErr: lastErr}
}

// sweep attempts combinations in pool order starting at the cursor slot,
// wrapping around, until one succeeds or all are exhausted.
func (m *Manager) sweep(ctx context.Context, pool *Pool, req *Request) (*CompletionResponse, int, error) {
	n := pool.Size()
	if n == 0 {
		return nil, 0, fmt.Errorf("provider %s: no combinations configured", pool.provider.Name())
	}

	// Advance the cursor before any network call: consecutive invocations
	// land on different combinations even when they overlap in time.
	start := m.cursor.Next(n)

	var lastErr error
	for i := 0; i < n; i++ {
		entry := pool.entries[(start+i)%n]
		outcome := m.attempt(ctx, entry, req)
		if outcome.err == nil {
			return outcome.resp, i + 1, nil
		}
		lastErr = outcome.err
		m.log.Warn().
			Str("combination", entry.combo.String()).
			Bool("retryable", outcome.class == failureRetryable).
			Err(outcome.err).
			Msg("combination failed, advancing")
	}
	return nil, n, lastErr
}

func (m *Manager) attempt(ctx context.Context, entry poolEntry, req *Request) attemptOutcome {
	start := time.Now()
	resp, err := entry.client.Complete(ctx, &CompletionRequest{
		Messages:     req.Messages,
		SystemPrompt: req.SystemPrompt,
		Tools:        req.Tools,
		Temperature:  req.Temperature,
	})
	m.metrics.Record(entry.combo, err, time.Since(start))
	if err != nil {
		return attemptOutcome{err: err, class: classify(err)}
	}
	return attemptOutcome{resp: resp}
}

// invokeExplicit is the explicit-model path: a pure credential fallback
// chain, no cursor movement.
func (m *Manager) invokeExplicit(ctx context.Context, req *Request) (*CompletionResponse, error) {
	pool := m.primary
	var lastErr error
	attempts := 0
	for _, cred := range pool.creds {
		entry := poolEntry{
			combo: Combination{
				Provider:     pool.provider.Name(),
				Model:        req.ExplicitModel,
				CredentialID: cred.ID,
			},
			client: pool.provider.NewClient(req.ExplicitModel, cred.Key),
		}
		attempts++
		outcome := m.attempt(ctx, entry, req)
		if outcome.err == nil {
			return outcome.resp, nil
		}
		lastErr = outcome.err
		m.log.Warn().
			Str("combination", entry.combo.String()).
			Err(outcome.err).
			Msg("explicit model attempt failed")
	}
	return nil, &AllProvidersExhaustedError{Attempts: attempts, LastErr: lastErr}
}

// Stream runs one streaming completion with the same selection and fallback
// semantics as Invoke. If a combination fails before emitting anything, the
// sweep advances to the next one; once chunks have been forwarded, a
// failure is surfaced to the caller so partial output is preserved rather
// than duplicated by a retry.
func (m *Manager) Stream(ctx context.Context, req *Request, fn StreamFunc) error {
	err, emitted := m.streamPool(ctx, m.primary, req, fn)
	if err == nil || emitted {
		return err
	}

	lastErr := err
	if m.fallback != nil {
		m.log.Warn().Str("provider", m.primary.provider.Name()).
			Msg("primary pool exhausted mid-rotation, streaming from fallback provider")
		err, emitted = m.streamPool(ctx, m.fallback, req, fn)
		if err == nil || emitted {
			return err
		}
		lastErr = err
	}

	return &AllProvidersExhaustedError{Attempts: m.primary.Size() + m.fallbackSize(), LastErr: lastErr}
}

func (m *Manager) fallbackSize() int {
	if m.fallback == nil {
		return 0
	}
	return m.fallback.Size()
}

// streamPool sweeps one pool. It reports whether any chunk reached the
// caller; after that point no further combinations are attempted.
func (m *Manager) streamPool(ctx context.Context, pool *Pool, req *Request, fn StreamFunc) (err error, emitted bool) {
	n := pool.Size()
	if n == 0 {
		return fmt.Errorf("provider %s: no combinations configured", pool.provider.Name()), false
	}

	start := m.cursor.Next(n)

	var lastErr error
	for i := 0; i < n; i++ {
		entry := pool.entries[(start+i)%n]

		attemptEmitted := false
		wrapped := func(chunk StreamChunk) error {
			if chunk.Kind == ChunkText || chunk.Kind == ChunkToolCall {
				attemptEmitted = true
			}
			return fn(chunk)
		}

		began := time.Now()
		streamErr := entry.client.Stream(ctx, &CompletionRequest{
			Messages:     req.Messages,
			SystemPrompt: req.SystemPrompt,
			Tools:        req.Tools,
			Temperature:  req.Temperature,
		}, wrapped)
		m.metrics.Record(entry.combo, streamErr, time.Since(began))

		if streamErr == nil {
			return nil, true
		}
		if attemptEmitted {
			return streamErr, true
		}
		lastErr = streamErr
		m.log.Warn().
			Str("combination", entry.combo.String()).
			Bool("retryable", classify(streamErr) == failureRetryable).
			Err(streamErr).
			Msg("stream attempt failed before first chunk, advancing")
	}
	return lastErr, false
}
