// Package retrieval provides the knowledge-retrieval client used to augment
// answer prompts with background context.
//
// The client issues a single search request per query against the knowledge
// service's /search endpoint and formats the hits into one context block.
// Retrieval is strictly best-effort: any transport failure, non-success
// status, or malformed response degrades to an empty context so the answer
// pipeline proceeds without augmentation rather than aborting.
package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// Default retrieval parameters.
const (
	DefaultTopK          = 3
	DefaultMinSimilarity = 0.5
)

// Chunk is one titled piece of retrieved background content with its cosine
// similarity to the query, as returned by the knowledge service.
type Chunk struct {
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

// searchRequest is the JSON body sent to the knowledge service.
type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// searchResponse is the JSON body returned by the knowledge service.
type searchResponse struct {
	Results []Chunk `json:"results"`
}

// Client fetches context blocks from a knowledge-retrieval service.
// Safe for concurrent use.
type Client struct {
	baseURL       string
	topK          int
	minSimilarity float64
	httpClient    *http.Client
}

// Option is a functional option for [New].
type Option func(*Client)

// WithTopK sets the result limit passed to the service. The service, not the
// client, enforces the limit. Values below 1 are ignored.
func WithTopK(k int) Option {
	return func(c *Client) {
		if k >= 1 {
			c.topK = k
		}
	}
}

// WithMinSimilarity sets the similarity threshold below which hits are
// discarded client-side. Must be in [0, 1]; out-of-range values are ignored.
func WithMinSimilarity(min float64) Option {
	return func(c *Client) {
		if min >= 0 && min <= 1 {
			c.minSimilarity = min
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client. Useful for tests and
// for callers that want a transport-level timeout; the retrieval client does
// not impose one itself.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a retrieval [Client] for the knowledge service at baseURL
// (e.g. "http://localhost:8000"). A trailing slash is stripped.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("retrieval: baseURL must not be empty")
	}
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		topK:          DefaultTopK,
		minSimilarity: DefaultMinSimilarity,
		httpClient:    &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// FetchContext runs one search for query and returns the formatted context
// block: every hit with similarity >= the configured threshold rendered as
// "[title]: content", joined with blank lines, in the order the service
// returned them (assumed relevance-descending; the client does not re-sort
// and does not deduplicate).
//
// An empty query returns "" without any network call. All failures return ""
// as well — retrieval never propagates errors.
func (c *Client) FetchContext(ctx context.Context, query string) string {
	if query == "" {
		return ""
	}

	results, err := c.search(ctx, query)
	if err != nil {
		slog.Debug("retrieval degraded to empty context", "err", err)
		return ""
	}

	var parts []string
	for _, r := range results {
		if r.Similarity < c.minSimilarity {
			continue
		}
		parts = append(parts, fmt.Sprintf("[%s]: %s", r.Title, r.Content))
	}
	return strings.Join(parts, "\n\n")
}

// search issues the single POST /search request and decodes the hits.
func (c *Client) search(ctx context.Context, query string) ([]Chunk, error) {
	body, err := json.Marshal(searchRequest{Query: query, Limit: c.topK})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return result.Results, nil
}
