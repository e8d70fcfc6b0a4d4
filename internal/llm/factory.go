package llm

import (
	"fmt"
	"time"
)

// ProviderSettings configures one provider's rotation pool.
type ProviderSettings struct {
	// Models in rotation priority order.
	Models []string
	// Credentials in fallback priority order.
	Credentials []Credential
	// Endpoint overrides the provider's default API base URL.
	Endpoint string
	// MaxTokens default for responses (0 = model default).
	MaxTokens int
	// Timeout per network attempt.
	Timeout time.Duration
}

// ManagerSettings configures the rotation manager. Gemini is the primary
// provider; Groq, when credentialed, is the cross-provider fallback.
type ManagerSettings struct {
	Gemini ProviderSettings
	Groq   ProviderSettings
}

// BuildManager constructs the rotation manager from settings. The primary
// pool requires at least one model and one credential; the Groq fallback
// pool is built only when Groq credentials are present.
func BuildManager(settings ManagerSettings) (*Manager, error) {
	if len(settings.Gemini.Models) == 0 {
		return nil, fmt.Errorf("no gemini models configured")
	}
	if len(settings.Gemini.Credentials) == 0 {
		return nil, fmt.Errorf("no gemini credentials configured")
	}

	gemini := NewGeminiProvider(ProviderConfig{
		Endpoint:  settings.Gemini.Endpoint,
		MaxTokens: settings.Gemini.MaxTokens,
		Timeout:   settings.Gemini.Timeout,
	})
	primary := NewPool(gemini, settings.Gemini.Models, settings.Gemini.Credentials)

	var fallback *Pool
	if len(settings.Groq.Credentials) > 0 && len(settings.Groq.Models) > 0 {
		groq := NewGroqProvider(ProviderConfig{
			Endpoint:  settings.Groq.Endpoint,
			MaxTokens: settings.Groq.MaxTokens,
			Timeout:   settings.Groq.Timeout,
		})
		fallback = NewPool(groq, settings.Groq.Models, settings.Groq.Credentials)
	}

	return NewManager(primary, fallback, nil), nil
}
