// Package config provides the configuration schema and loader for the
// Parley server.
package config

import "time"

// LogLevel controls log verbosity for the Parley server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for Parley.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Generation GenerationConfig `yaml:"generation"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Transcript TranscriptConfig `yaml:"transcript"`
	Knowledge  KnowledgeConfig  `yaml:"knowledge"`
}

// ServerConfig holds network and logging settings for the Parley server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// GenerationConfig selects the answer-generation backend.
type GenerationConfig struct {
	// Provider names the backend (e.g., "openai", "groq", "pollinations").
	Provider string `yaml:"provider"`

	// Model overrides the provider's default model. Leave empty to use the
	// built-in default.
	Model string `yaml:"model"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`
}

// RetrievalConfig controls the optional knowledge-base lookup that augments
// prompts. Disabled retrieval means answers come from the transcript alone.
type RetrievalConfig struct {
	Enabled bool `yaml:"enabled"`

	// BaseURL is the root of the retrieval HTTP API. When empty the server
	// queries its own knowledge store.
	BaseURL string `yaml:"base_url"`

	// TopK is the number of chunks requested per lookup.
	TopK int `yaml:"top_k"`

	// MinSimilarity filters out weakly related chunks. Cosine range [0, 1].
	// Nil keeps the built-in default; an explicit 0 accepts every chunk.
	MinSimilarity *float64 `yaml:"min_similarity"`
}

// TranscriptConfig tunes the per-session caption buffer.
type TranscriptConfig struct {
	// WindowSeconds bounds how far back the assembled transcript reaches.
	WindowSeconds int `yaml:"window_seconds"`

	// Capacity caps how many utterances a session retains.
	Capacity int `yaml:"capacity"`
}

// Window returns the transcript window as a [time.Duration].
func (t TranscriptConfig) Window() time.Duration {
	return time.Duration(t.WindowSeconds) * time.Second
}

// KnowledgeConfig configures document storage and embeddings.
type KnowledgeConfig struct {
	// PostgresDSN is the connection string for the pgvector-backed store.
	// When empty the knowledge API and local retrieval are unavailable.
	PostgresDSN string `yaml:"postgres_dsn"`

	Embeddings EmbeddingsConfig `yaml:"embeddings"`
}

// EmbeddingsConfig selects the embedding model used for chunk and query
// vectors.
type EmbeddingsConfig struct {
	// BaseURL is the Ollama API root. Defaults to the local daemon.
	BaseURL string `yaml:"base_url"`

	// Model is the embedding model name (e.g., "nomic-embed-text").
	Model string `yaml:"model"`

	// Dimensions is the vector width. Required for models not in the
	// built-in dimension table.
	Dimensions int `yaml:"dimensions"`
}
