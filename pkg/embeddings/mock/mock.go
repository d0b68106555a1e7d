// Package mock provides a test double for the embeddings.Embedder interface.
package mock

import (
	"context"
	"sync"

	"github.com/parley-ai/parley/pkg/embeddings"
)

var _ embeddings.Embedder = (*Embedder)(nil)

// Embedder is a deterministic fake: every text maps to a vector of Dims
// length encoding the text length, with a constant second component so that
// texts of different lengths point in different directions and cosine
// ranking between them is meaningful. Set Err to inject failures.
type Embedder struct {
	mu sync.Mutex

	// Dims is the reported vector dimension. Defaults to 4 when zero.
	Dims int

	// Err, if non-nil, is returned by Embed and EmbedBatch.
	Err error

	// Embedded records every text passed to Embed or EmbedBatch in order.
	Embedded []string
}

func (e *Embedder) dims() int {
	if e.Dims == 0 {
		return 4
	}
	return e.Dims
}

func (e *Embedder) vector(text string) []float32 {
	v := make([]float32, e.dims())
	v[0] = float32(len(text))
	v[1] = 1
	return v
}

// Embed implements embeddings.Embedder.
func (e *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.Embedded = append(e.Embedded, text)
	e.mu.Unlock()
	if e.Err != nil {
		return nil, e.Err
	}
	return e.vector(text), nil
}

// EmbedBatch implements embeddings.Embedder.
func (e *Embedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.Embedded = append(e.Embedded, texts...)
	e.mu.Unlock()
	if e.Err != nil {
		return nil, e.Err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

// Dimensions implements embeddings.Embedder.
func (e *Embedder) Dimensions() int { return e.dims() }

// ModelID implements embeddings.Embedder.
func (e *Embedder) ModelID() string { return "mock-embedder" }
