// Package server exposes the Parley HTTP API: caption ingest (plain POST and
// WebSocket stream), answer generation, knowledge document management,
// search, and operational endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parley-ai/parley/internal/extract"
	"github.com/parley-ai/parley/internal/health"
	"github.com/parley-ai/parley/internal/observe"
	"github.com/parley-ai/parley/internal/pipeline"
	"github.com/parley-ai/parley/internal/transcript"
	"github.com/parley-ai/parley/pkg/backend"
	"github.com/parley-ai/parley/pkg/embeddings"
	"github.com/parley-ai/parley/pkg/knowledge"
)

// shutdownTimeout bounds graceful HTTP shutdown in [Server.Run].
const shutdownTimeout = 15 * time.Second

// Server is the Parley HTTP API server. Construct with [New], obtain the
// handler via [Server.Handler], or run it directly with [Server.Run].
type Server struct {
	pipeline *pipeline.Pipeline
	store    knowledge.Store
	embedder embeddings.Embedder
	sessions *sessionRegistry
	metrics  *observe.Metrics
	health   *health.Handler
	now      func() time.Time

	transcriptOpts []transcript.Option
}

// Option customises a [Server].
type Option func(*Server)

// WithStore enables the knowledge document endpoints. Without it document
// and search requests answer 503.
func WithStore(s knowledge.Store) Option {
	return func(srv *Server) { srv.store = s }
}

// WithEmbedder enables the standalone embedding endpoint. Without it embed
// requests answer 503.
func WithEmbedder(e embeddings.Embedder) Option {
	return func(srv *Server) { srv.embedder = e }
}

// WithMetrics sets the metrics instance. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(srv *Server) { srv.metrics = m }
}

// WithHealth sets the health handler. Defaults to one with no readiness
// checks.
func WithHealth(h *health.Handler) Option {
	return func(srv *Server) { srv.health = h }
}

// WithTranscriptOptions configures the per-session transcript buffers.
func WithTranscriptOptions(opts ...transcript.Option) Option {
	return func(srv *Server) { srv.transcriptOpts = opts }
}

// New creates a [Server] answering through p.
func New(p *pipeline.Pipeline, opts ...Option) *Server {
	srv := &Server{
		pipeline: p,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(srv)
	}
	if srv.metrics == nil {
		srv.metrics = observe.DefaultMetrics()
	}
	if srv.health == nil {
		srv.health = health.New()
	}
	srv.sessions = newSessionRegistry(srv.metrics, srv.transcriptOpts...)
	return srv
}

// Handler returns the full route table wrapped in the observability
// middleware.
func (srv *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/captions", srv.handleCaptions)
	mux.HandleFunc("GET /v1/captions/stream", srv.handleCaptionStream)
	mux.HandleFunc("GET /v1/transcript", srv.handleTranscript)
	mux.HandleFunc("POST /v1/answer", srv.handleAnswer)
	mux.HandleFunc("POST /v1/test-connection", srv.handleTestConnection)
	mux.HandleFunc("DELETE /v1/sessions/{id}", srv.handleDeleteSession)

	mux.HandleFunc("POST /v1/documents", srv.handleAddDocument)
	mux.HandleFunc("GET /v1/documents", srv.handleListDocuments)
	mux.HandleFunc("DELETE /v1/documents/{title}", srv.handleDeleteDocument)
	mux.HandleFunc("POST /v1/search", srv.handleSearch)
	mux.HandleFunc("POST /v1/extract", srv.handleExtract)
	mux.HandleFunc("POST /v1/embed", srv.handleEmbed)

	srv.health.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	return observe.Middleware(srv.metrics)(mux)
}

// Run serves the API on addr until ctx is cancelled, then shuts down
// gracefully.
func (srv *Server) Run(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:    addr,
		Handler: srv.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

// apiError is the JSON error envelope. Kind is set for backend failures so
// clients can distinguish configuration mistakes from provider outages.
type apiError struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response encode failed", "err", err)
	}
}

// writeError maps err onto an HTTP status and the [apiError] envelope.
func writeError(w http.ResponseWriter, err error) {
	var be *backend.Error
	switch {
	case errors.As(err, &be):
		status := http.StatusBadGateway
		if be.Kind == backend.KindConfiguration {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, apiError{Error: be.Error(), Kind: string(be.Kind)})
	case errors.Is(err, pipeline.ErrEmptyTranscript):
		writeJSON(w, http.StatusUnprocessableEntity, apiError{Error: "transcript window is empty"})
	case errors.Is(err, knowledge.ErrNotFound):
		writeJSON(w, http.StatusNotFound, apiError{Error: err.Error()})
	case errors.Is(err, knowledge.ErrEmptyDocument):
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
	case errors.Is(err, extract.ErrUnsupportedFormat), errors.Is(err, extract.ErrNoText):
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, apiError{Error: err.Error()})
	}
}

// decodeBody decodes the request body into v, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}
