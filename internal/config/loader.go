package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/parley-ai/parley/pkg/backend"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Generation
	if cfg.Generation.Provider != "" {
		p := backend.Provider(cfg.Generation.Provider)
		if !p.IsValid() {
			errs = append(errs, fmt.Errorf("generation.provider %q is unknown; valid values: %v", cfg.Generation.Provider, backend.Providers()))
		} else if id, ok := backend.Lookup(p); ok && id.RequiresKey && cfg.Generation.APIKey == "" {
			slog.Warn("generation provider requires an API key but generation.api_key is empty; answer requests will fail",
				"provider", cfg.Generation.Provider)
		}
	}

	// Retrieval
	if cfg.Retrieval.Enabled && cfg.Retrieval.BaseURL == "" && cfg.Knowledge.PostgresDSN == "" {
		errs = append(errs, errors.New("retrieval.enabled requires retrieval.base_url or knowledge.postgres_dsn"))
	}
	if cfg.Retrieval.TopK < 0 {
		errs = append(errs, fmt.Errorf("retrieval.top_k %d must not be negative", cfg.Retrieval.TopK))
	}
	if ms := cfg.Retrieval.MinSimilarity; ms != nil && (*ms < 0 || *ms > 1) {
		errs = append(errs, fmt.Errorf("retrieval.min_similarity %.2f is out of range [0, 1]", *ms))
	}

	// Transcript
	if cfg.Transcript.WindowSeconds < 0 {
		errs = append(errs, fmt.Errorf("transcript.window_seconds %d must not be negative", cfg.Transcript.WindowSeconds))
	}
	if cfg.Transcript.Capacity < 0 {
		errs = append(errs, fmt.Errorf("transcript.capacity %d must not be negative", cfg.Transcript.Capacity))
	}

	// Knowledge
	if cfg.Knowledge.Embeddings.Dimensions < 0 {
		errs = append(errs, fmt.Errorf("knowledge.embeddings.dimensions %d must not be negative", cfg.Knowledge.Embeddings.Dimensions))
	}
	if cfg.Knowledge.PostgresDSN == "" && cfg.Knowledge.Embeddings.Model != "" {
		slog.Warn("knowledge.embeddings is configured but knowledge.postgres_dsn is empty; the document store will be unavailable")
	}

	return errors.Join(errs...)
}
