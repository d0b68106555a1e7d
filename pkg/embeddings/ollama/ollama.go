// Package ollama implements [embeddings.Embedder] against a local Ollama
// server's /api/embed endpoint.
//
// The default model is nomic-embed-text (768 dimensions), matching the
// knowledge store's default schema.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/parley-ai/parley/pkg/embeddings"
)

// DefaultBaseURL is the address of a locally running Ollama instance.
const DefaultBaseURL = "http://localhost:11434"

// DefaultModel is the embedding model used when none is configured.
const DefaultModel = "nomic-embed-text"

var _ embeddings.Embedder = (*Embedder)(nil)

// Embedder calls Ollama's native embed API. Safe for concurrent use.
type Embedder struct {
	baseURL    string
	model      string
	dimensions int
	httpClient *http.Client
}

// Option is a functional option for [New].
type Option func(*Embedder)

// WithHTTPClient replaces the underlying HTTP client, e.g. to set a timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(e *Embedder) {
		if hc != nil {
			e.httpClient = hc
		}
	}
}

// WithDimensions pre-sets the vector length for models missing from the
// built-in table. Required when using a model this package does not know.
func WithDimensions(dims int) Option {
	return func(e *Embedder) {
		if dims > 0 {
			e.dimensions = dims
		}
	}
}

// New creates an [Embedder] for the Ollama server at baseURL (empty selects
// [DefaultBaseURL]) using the given model (empty selects [DefaultModel]).
//
// The vector dimension is resolved from a table of well-known models; for
// anything else supply [WithDimensions] or construction fails.
func New(baseURL, model string, opts ...Option) (*Embedder, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	e := &Embedder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		dimensions: knownDimensions(model),
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(e)
	}
	if e.dimensions == 0 {
		return nil, fmt.Errorf("ollama embeddings: unknown model %q; set dimensions explicitly", model)
	}
	return e, nil
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed implements [embeddings.Embedder].
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.call(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("ollama embeddings: embed: %w", err)
	}
	return vecs[0], nil
}

// EmbedBatch implements [embeddings.Embedder]. A nil or empty texts slice
// returns (nil, nil) without a network call.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vecs, err := e.call(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("ollama embeddings: embed batch: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("ollama embeddings: embed batch: got %d vectors for %d texts", len(vecs), len(texts))
	}
	return vecs, nil
}

// Dimensions implements [embeddings.Embedder].
func (e *Embedder) Dimensions() int { return e.dimensions }

// ModelID implements [embeddings.Embedder].
func (e *Embedder) ModelID() string { return e.model }

// Ping reports whether the Ollama server is reachable. It probes /api/tags,
// which answers without loading a model. Used by readiness checks.
func (e *Embedder) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("ollama embeddings: ping: %w", err)
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama embeddings: ping: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama embeddings: ping: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// call posts one /api/embed request and returns the raw vectors.
func (e *Embedder) call(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embeddings in response")
	}
	return result.Embeddings, nil
}

// knownDimensions maps recognised Ollama embedding models to their output
// dimensions. Returns 0 for unknown models.
func knownDimensions(model string) int {
	switch {
	case strings.Contains(model, "nomic-embed-text"):
		return 768
	case strings.Contains(model, "mxbai-embed-large"):
		return 1024
	case strings.Contains(model, "all-minilm"):
		return 384
	default:
		return 0
	}
}
