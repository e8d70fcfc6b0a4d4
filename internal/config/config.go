// Package config loads application configuration from flightline.yaml and
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/flightlinehq/flightline/internal/llm"
)

// Config holds all application configuration. Loaded from a YAML file and
// overridable with FLIGHTLINE_-prefixed environment variables; API keys
// additionally honor their conventional unprefixed variables.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	LLM       LLMConfig       `mapstructure:"llm" yaml:"llm"`
	Session   SessionConfig   `mapstructure:"session" yaml:"session"`
	Retrieval RetrievalConfig `mapstructure:"retrieval" yaml:"retrieval"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LLMConfig configures providers, model pools, and rotation.
type LLMConfig struct {
	// GeminiModels is the primary rotation pool, in preference order.
	GeminiModels []string `mapstructure:"gemini_models" yaml:"gemini_models"`

	// GroqModels is the cross-provider fallback pool.
	GroqModels []string `mapstructure:"groq_models" yaml:"groq_models"`

	// GoogleAPIKey / GoogleFallbackAPIKey are the Gemini credential chain.
	GoogleAPIKey         string `mapstructure:"google_api_key" yaml:"google_api_key,omitempty"`
	GoogleFallbackAPIKey string `mapstructure:"google_fallback_api_key" yaml:"google_fallback_api_key,omitempty"`

	// GroqAPIKey enables the Groq fallback pool when set.
	GroqAPIKey string `mapstructure:"groq_api_key" yaml:"groq_api_key,omitempty"`

	// Temperature for chat completions.
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`

	// MaxTokens caps response length (0 = model default).
	MaxTokens int `mapstructure:"max_tokens" yaml:"max_tokens"`

	// TimeoutSeconds bounds each provider network attempt.
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// SessionConfig configures conversation memory.
type SessionConfig struct {
	// TTLMinutes is the idle lifetime of a session.
	TTLMinutes int `mapstructure:"ttl_minutes" yaml:"ttl_minutes"`

	// SweepMinutes is the eviction scan interval.
	SweepMinutes int `mapstructure:"sweep_minutes" yaml:"sweep_minutes"`
}

// RetrievalConfig configures the document index.
type RetrievalConfig struct {
	// IndexPath is the SQLite file backing the passage index.
	IndexPath string `mapstructure:"index_path" yaml:"index_path"`

	// DocsDir is the knowledge-base directory ingested by `flightline ingest`.
	DocsDir string `mapstructure:"docs_dir" yaml:"docs_dir"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8000},
		LLM: LLMConfig{
			GeminiModels: []string{
				"gemini-2.5-flash-lite",
				"gemini-2.5-flash",
			},
			GroqModels: []string{
				"llama-3.3-70b-versatile",
				"llama-3.1-70b-versatile",
				"mixtral-8x7b-32768",
				"llama-3.1-8b-instant",
			},
			Temperature:    0.7,
			MaxTokens:      2048,
			TimeoutSeconds: 30,
		},
		Session:   SessionConfig{TTLMinutes: 60, SweepMinutes: 5},
		Retrieval: RetrievalConfig{IndexPath: "flightline.db", DocsDir: "knowledge_base"},
		Logging:   LoggingConfig{Level: "info", Pretty: false},
	}
}

// Load reads flightline.yaml from the working directory (or the path in
// FLIGHTLINE_CONFIG) over the defaults, then applies environment overrides.
func Load() (*Config, error) {
	path := os.Getenv("FLIGHTLINE_CONFIG")
	if path == "" {
		path = "flightline.yaml"
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from an explicit file path. A missing
// file is not an error; defaults plus environment apply.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("FLIGHTLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyKeyEnv(cfg)
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.host", cfg.Server.Host)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("llm.gemini_models", cfg.LLM.GeminiModels)
	v.SetDefault("llm.groq_models", cfg.LLM.GroqModels)
	v.SetDefault("llm.temperature", cfg.LLM.Temperature)
	v.SetDefault("llm.max_tokens", cfg.LLM.MaxTokens)
	v.SetDefault("llm.timeout_seconds", cfg.LLM.TimeoutSeconds)
	v.SetDefault("session.ttl_minutes", cfg.Session.TTLMinutes)
	v.SetDefault("session.sweep_minutes", cfg.Session.SweepMinutes)
	v.SetDefault("retrieval.index_path", cfg.Retrieval.IndexPath)
	v.SetDefault("retrieval.docs_dir", cfg.Retrieval.DocsDir)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.pretty", cfg.Logging.Pretty)
}

// applyKeyEnv honors the conventional API key variables when the config
// file leaves them empty. GEMINI_API_KEY is accepted as an alias for
// GOOGLE_API_KEY.
func applyKeyEnv(cfg *Config) {
	if cfg.LLM.GoogleAPIKey == "" {
		cfg.LLM.GoogleAPIKey = firstEnv("GOOGLE_API_KEY", "GEMINI_API_KEY")
	}
	if cfg.LLM.GoogleFallbackAPIKey == "" {
		cfg.LLM.GoogleFallbackAPIKey = os.Getenv("GOOGLE_FALLBACK_API_KEY")
	}
	if cfg.LLM.GroqAPIKey == "" {
		cfg.LLM.GroqAPIKey = os.Getenv("GROQ_API_KEY")
	}
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// Save writes the configuration as YAML, creating parent directories.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ManagerSettings converts the LLM section into rotation manager settings.
func (c *Config) ManagerSettings() llm.ManagerSettings {
	timeout := time.Duration(c.LLM.TimeoutSeconds) * time.Second

	gemini := llm.ProviderSettings{
		Models:    c.LLM.GeminiModels,
		MaxTokens: c.LLM.MaxTokens,
		Timeout:   timeout,
	}
	if c.LLM.GoogleAPIKey != "" {
		gemini.Credentials = append(gemini.Credentials,
			llm.Credential{ID: "primary", Key: c.LLM.GoogleAPIKey})
	}
	if c.LLM.GoogleFallbackAPIKey != "" {
		gemini.Credentials = append(gemini.Credentials,
			llm.Credential{ID: "fallback", Key: c.LLM.GoogleFallbackAPIKey})
	}

	groq := llm.ProviderSettings{
		Models:    c.LLM.GroqModels,
		MaxTokens: c.LLM.MaxTokens,
		Timeout:   timeout,
	}
	if c.LLM.GroqAPIKey != "" {
		groq.Credentials = []llm.Credential{{ID: "primary", Key: c.LLM.GroqAPIKey}}
	}

	return llm.ManagerSettings{Gemini: gemini, Groq: groq}
}

// SessionTTL returns the session TTL as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLMinutes) * time.Minute
}

// SessionSweepInterval returns the eviction interval as a duration.
func (c *Config) SessionSweepInterval() time.Duration {
	return time.Duration(c.Session.SweepMinutes) * time.Minute
}
