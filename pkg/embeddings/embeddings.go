// Package embeddings defines the provider abstraction for text-embedding
// backends used by the knowledge store.
//
// An embedder maps text to dense float32 vectors for similarity search. All
// vectors produced by one Embedder share the dimensionality reported by
// Dimensions; mixing vectors from different embedders in one index corrupts
// search results.
package embeddings

import "context"

// Embedder is the abstraction over any text-embedding backend.
// Implementations must be safe for concurrent use.
type Embedder interface {
	// Embed computes the vector for a single text. The text is passed to
	// the model verbatim; any model-specific prefixing (e.g. "query: ")
	// is the caller's concern.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch computes vectors for all texts in one backend call.
	// result[i] corresponds to texts[i]; on error no partial results are
	// returned.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the fixed vector length produced by this
	// embedder, constant for its lifetime.
	Dimensions() int

	// ModelID returns the backend model identifier, for logging and for
	// guarding against mixed-model indexes.
	ModelID() string
}
