// Package knowledge defines the document store behind the retrieval service:
// user-supplied background documents (resume, project notes, prepared
// answers) chunked, embedded, and indexed for similarity search.
package knowledge

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a referenced document does not exist.
var ErrNotFound = errors.New("knowledge: document not found")

// ErrEmptyDocument is returned when a document yields no indexable chunks.
var ErrEmptyDocument = errors.New("knowledge: document is empty or too short")

// DocumentInfo summarises one stored document. A document is a titled group
// of chunk rows; chunking is invisible to callers except through ChunkCount.
type DocumentInfo struct {
	Title      string    `json:"title"`
	ChunkCount int       `json:"chunks"`
	CreatedAt  time.Time `json:"created_at"`
}

// SearchResult is one chunk matched by a similarity search.
type SearchResult struct {
	Title   string `json:"title"`
	Content string `json:"content"`

	// Similarity is the cosine similarity to the query in [0, 1],
	// higher is closer.
	Similarity float64 `json:"similarity"`
}

// Store is the knowledge-base document store.
// Implementations must be safe for concurrent use.
type Store interface {
	// AddDocument chunks and indexes content under title and returns the
	// number of chunks written. Returns [ErrEmptyDocument] when content
	// produces no chunks. Adding an existing title appends chunks; it
	// does not replace the document.
	AddDocument(ctx context.Context, title, content string) (int, error)

	// ListDocuments returns every distinct document, newest first.
	ListDocuments(ctx context.Context) ([]DocumentInfo, error)

	// DeleteDocument removes all chunks of the titled document and
	// returns how many were deleted. Returns [ErrNotFound] when no chunk
	// matched.
	DeleteDocument(ctx context.Context, title string) (int, error)

	// Search returns up to limit chunks nearest to query, ordered by
	// descending similarity.
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)

	// Count returns the total number of indexed chunks.
	Count(ctx context.Context) (int, error)
}
