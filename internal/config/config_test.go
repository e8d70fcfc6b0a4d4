package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
	assert.Equal(t, []string{"gemini-2.5-flash-lite", "gemini-2.5-flash"}, cfg.LLM.GeminiModels)
	assert.Len(t, cfg.LLM.GroqModels, 4)
	assert.Equal(t, 60*time.Minute, cfg.SessionTTL())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flightline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
llm:
  gemini_models:
    - gemini-2.5-flash
  temperature: 0.2
session:
  ttl_minutes: 10
`), 0o600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"gemini-2.5-flash"}, cfg.LLM.GeminiModels)
	assert.Equal(t, 0.2, cfg.LLM.Temperature)
	assert.Equal(t, 10*time.Minute, cfg.SessionTTL())
	// Untouched sections keep defaults.
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestAPIKeysFromEnvironment(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "g-primary")
	t.Setenv("GOOGLE_FALLBACK_API_KEY", "g-fallback")
	t.Setenv("GROQ_API_KEY", "q-key")

	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "g-primary", cfg.LLM.GoogleAPIKey)
	assert.Equal(t, "g-fallback", cfg.LLM.GoogleFallbackAPIKey)
	assert.Equal(t, "q-key", cfg.LLM.GroqAPIKey)
}

func TestGeminiKeyAlias(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "alias-key")

	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "alias-key", cfg.LLM.GoogleAPIKey)
}

func TestManagerSettings(t *testing.T) {
	cfg := Default()
	cfg.LLM.GoogleAPIKey = "k1"
	cfg.LLM.GoogleFallbackAPIKey = "k2"
	cfg.LLM.GroqAPIKey = "k3"

	s := cfg.ManagerSettings()
	require.Len(t, s.Gemini.Credentials, 2)
	assert.Equal(t, "primary", s.Gemini.Credentials[0].ID)
	assert.Equal(t, "fallback", s.Gemini.Credentials[1].ID)
	require.Len(t, s.Groq.Credentials, 1)
	assert.Equal(t, 30*time.Second, s.Gemini.Timeout)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "flightline.yaml")
	cfg := Default()
	cfg.Server.Port = 7777

	require.NoError(t, Save(cfg, path))
	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 7777, loaded.Server.Port)
}
