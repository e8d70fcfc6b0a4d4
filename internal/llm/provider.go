package llm

import (
	"io"
	"net/http"
	"time"
)

// MaxErrorBodySize limits how much error response body we read (1MB).
const MaxErrorBodySize = 1 * 1024 * 1024

// readLimitedBody reads up to maxBytes from r, returning the bytes read.
func readLimitedBody(r io.Reader, maxBytes int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, maxBytes))
}

// Provider builds clients for one LLM vendor. Implementations are stateless
// client factories; a client binds one (model, credential) combination.
type Provider interface {
	// Name returns the provider identifier ("gemini", "groq").
	Name() string

	// NewClient creates a client bound to the given model and API key.
	NewClient(model, apiKey string) Client
}

// ProviderConfig holds vendor-level settings shared by all of a provider's
// clients.
type ProviderConfig struct {
	// Endpoint is the API base URL.
	Endpoint string

	// MaxTokens default for responses (0 = model default).
	MaxTokens int

	// Timeout bounds each network attempt. A timeout is a retryable failure
	// and advances the rotation sweep to the next combination.
	Timeout time.Duration
}

// baseProvider carries the shared HTTP plumbing for HTTP-based providers.
type baseProvider struct {
	config ProviderConfig
	client *http.Client
}

func newBaseProvider(cfg ProviderConfig, defaultEndpoint string) baseProvider {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return baseProvider{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}
