// Package postgres implements the knowledge document store on PostgreSQL
// with pgvector for similarity search.
//
// Documents are stored pre-chunked, one row per chunk, each with its
// embedding. The pgvector extension must be available in the target database;
// [NewStore] installs it and the schema via CREATE ... IF NOT EXISTS.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/parley-ai/parley/internal/observe"
	"github.com/parley-ai/parley/pkg/embeddings"
	"github.com/parley-ai/parley/pkg/knowledge"
)

var _ knowledge.Store = (*Store)(nil)

const ddlDocuments = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS documents (
    id          BIGSERIAL    PRIMARY KEY,
    title       TEXT         NOT NULL,
    content     TEXT         NOT NULL,
    chunk_index INTEGER      NOT NULL DEFAULT 0,
    embedding   vector(%d),
    created_at  TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_documents_title ON documents (title);

CREATE INDEX IF NOT EXISTS idx_documents_embedding
    ON documents USING hnsw (embedding vector_cosine_ops);
`

// Store is the PostgreSQL knowledge store. It owns a [pgxpool.Pool] and the
// embedder used to vectorise chunks and queries. All methods are safe for
// concurrent use.
type Store struct {
	pool     *pgxpool.Pool
	embedder embeddings.Embedder
	metrics  *observe.Metrics
}

// Option customises a [Store].
type Option func(*Store)

// WithMetrics sets the metrics instance embedding latency is recorded to.
// Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// NewStore connects to the database at dsn, registers pgvector types on every
// connection, and ensures the schema exists. The embedding column dimension
// is taken from embedder.Dimensions(); changing embedders later requires a
// manual schema migration and reindex.
func NewStore(ctx context.Context, dsn string, embedder embeddings.Embedder, opts ...Option) (*Store, error) {
	if embedder == nil {
		return nil, fmt.Errorf("knowledge store: embedder must not be nil")
	}
	if dims := embedder.Dimensions(); dims <= 0 {
		return nil, fmt.Errorf("knowledge store: embedder reports invalid dimension %d", dims)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("knowledge store: parse dsn: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("knowledge store: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("knowledge store: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, fmt.Sprintf(ddlDocuments, embedder.Dimensions())); err != nil {
		pool.Close()
		return nil, fmt.Errorf("knowledge store: migrate: %w", err)
	}

	s := &Store{pool: pool, embedder: embedder}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s, nil
}

// embedBatch times the embedder call into [observe.Metrics.EmbeddingDuration].
func (s *Store) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	vecs, err := s.embedder.EmbedBatch(ctx, texts)
	s.metrics.EmbeddingDuration.Record(ctx, time.Since(start).Seconds())
	return vecs, err
}

// AddDocument implements [knowledge.Store]. The content is chunked, every
// chunk embedded in one batch call, and the rows inserted in a single
// transaction so a failed embed or insert leaves no partial document.
func (s *Store) AddDocument(ctx context.Context, title, content string) (int, error) {
	chunks := knowledge.Chunk(content)
	if len(chunks) == 0 {
		return 0, knowledge.ErrEmptyDocument
	}

	vecs, err := s.embedBatch(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("knowledge store: embed %q: %w", title, err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("knowledge store: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `
		INSERT INTO documents (title, content, chunk_index, embedding)
		VALUES ($1, $2, $3, $4)`
	for i, chunk := range chunks {
		if _, err := tx.Exec(ctx, q, title, chunk, i, pgvector.NewVector(vecs[i])); err != nil {
			return 0, fmt.Errorf("knowledge store: insert chunk %d of %q: %w", i, title, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("knowledge store: commit %q: %w", title, err)
	}
	return len(chunks), nil
}

// ListDocuments implements [knowledge.Store].
func (s *Store) ListDocuments(ctx context.Context) ([]knowledge.DocumentInfo, error) {
	const q = `
		SELECT title, COUNT(*) AS chunks, MIN(created_at) AS created_at
		FROM   documents
		GROUP  BY title
		ORDER  BY created_at DESC`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("knowledge store: list documents: %w", err)
	}

	docs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (knowledge.DocumentInfo, error) {
		var d knowledge.DocumentInfo
		err := row.Scan(&d.Title, &d.ChunkCount, &d.CreatedAt)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("knowledge store: scan documents: %w", err)
	}
	if docs == nil {
		docs = []knowledge.DocumentInfo{}
	}
	return docs, nil
}

// DeleteDocument implements [knowledge.Store].
func (s *Store) DeleteDocument(ctx context.Context, title string) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE title = $1`, title)
	if err != nil {
		return 0, fmt.Errorf("knowledge store: delete %q: %w", title, err)
	}
	if tag.RowsAffected() == 0 {
		return 0, knowledge.ErrNotFound
	}
	return int(tag.RowsAffected()), nil
}

// Search implements [knowledge.Store]. The query is embedded and matched via
// cosine distance; similarity is reported as 1 - distance so higher means
// closer, matching what retrieval clients filter on.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]knowledge.SearchResult, error) {
	if limit <= 0 {
		limit = 3
	}

	start := time.Now()
	vec, err := s.embedder.Embed(ctx, query)
	s.metrics.EmbeddingDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("knowledge store: embed query: %w", err)
	}

	const q = `
		SELECT title, content, 1 - (embedding <=> $1) AS similarity
		FROM   documents
		ORDER  BY embedding <=> $1
		LIMIT  $2`

	rows, err := s.pool.Query(ctx, q, pgvector.NewVector(vec), limit)
	if err != nil {
		return nil, fmt.Errorf("knowledge store: search: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (knowledge.SearchResult, error) {
		var r knowledge.SearchResult
		err := row.Scan(&r.Title, &r.Content, &r.Similarity)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("knowledge store: scan results: %w", err)
	}
	if results == nil {
		results = []knowledge.SearchResult{}
	}
	return results, nil
}

// Count implements [knowledge.Store].
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("knowledge store: count: %w", err)
	}
	return n, nil
}

// Ping reports whether the database is reachable. Used by readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
