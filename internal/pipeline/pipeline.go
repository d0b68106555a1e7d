// Package pipeline assembles answers from live transcripts. It chains the
// transcript window, optional knowledge retrieval, prompt construction, and
// backend dispatch into a single Answer call.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/parley-ai/parley/internal/observe"
	"github.com/parley-ai/parley/internal/prompt"
	"github.com/parley-ai/parley/internal/transcript"
	"github.com/parley-ai/parley/pkg/backend"
)

// ErrEmptyTranscript is returned by [Pipeline.Answer] when the transcript
// window contains no utterances to answer from.
var ErrEmptyTranscript = errors.New("pipeline: transcript window is empty")

// testPrompt is sent verbatim by [Pipeline.TestConnection] to verify a
// backend responds at all.
const testPrompt = "Say 'OK' if you can hear me."

// Generator dispatches a prompt to an LLM backend. Satisfied by
// [backend.Dispatcher] and by the mock dispatcher in tests.
type Generator interface {
	Dispatch(ctx context.Context, provider backend.Provider, model, credential, prompt string) (*backend.Response, error)
}

// ContextFetcher supplies knowledge-base context for a query. Satisfied by
// the retrieval client. Implementations fail soft: on any error they return
// the empty string.
type ContextFetcher interface {
	FetchContext(ctx context.Context, query string) string
}

// Pipeline produces answers for one configured backend. It is safe for
// concurrent use; all mutable state lives in the transcript buffers passed
// to [Pipeline.Answer].
type Pipeline struct {
	generator  Generator
	provider   backend.Provider
	model      string
	credential string

	fetcher ContextFetcher
	metrics *observe.Metrics
	now     func() time.Time
}

// Option customises a [Pipeline].
type Option func(*Pipeline)

// WithFetcher enables knowledge retrieval. Without it answers are generated
// from the transcript alone.
func WithFetcher(f ContextFetcher) Option {
	return func(p *Pipeline) { p.fetcher = f }
}

// WithMetrics sets the metrics instance. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithClock overrides the time source used to evaluate the transcript
// window. For tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a [Pipeline] that answers via the given backend provider.
func New(gen Generator, provider backend.Provider, model, credential string, opts ...Option) (*Pipeline, error) {
	if gen == nil {
		return nil, fmt.Errorf("pipeline: generator must not be nil")
	}
	if !provider.IsValid() {
		return nil, fmt.Errorf("pipeline: unknown provider %q", provider)
	}
	p := &Pipeline{
		generator:  gen,
		provider:   provider,
		model:      model,
		credential: credential,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = observe.DefaultMetrics()
	}
	return p, nil
}

// Answer generates an answer to the most recent question in buf. The
// transcript window is rendered, knowledge context fetched when a fetcher is
// configured, and the assembled prompt dispatched to the backend.
//
// Returns [ErrEmptyTranscript] when the window holds nothing to answer.
// Backend failures are returned as [*backend.Error] for the caller to map
// onto its own error surface.
func (p *Pipeline) Answer(ctx context.Context, buf *transcript.Buffer) (string, error) {
	ctx, span := observe.StartSpan(ctx, "pipeline.Answer",
		trace.WithAttributes(observe.Attr("provider", string(p.provider))),
	)
	defer span.End()

	window := buf.Window(p.now())
	if window == "" {
		return "", ErrEmptyTranscript
	}

	var knowledgeContext string
	if p.fetcher != nil {
		start := time.Now()
		knowledgeContext = p.fetcher.FetchContext(ctx, window)
		p.metrics.RetrievalDuration.Record(ctx, time.Since(start).Seconds())
	}

	start := time.Now()
	resp, err := p.generator.Dispatch(ctx, p.provider, p.model, p.credential, prompt.Build(knowledgeContext, window))
	p.metrics.DispatchDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		p.recordError(ctx, err)
		return "", err
	}

	p.metrics.RecordProviderRequest(ctx, string(p.provider), "ok")
	p.metrics.RecordAnswer(ctx, string(p.provider))
	return resp.Text, nil
}

// TestConnection sends a fixed probe prompt to the backend and returns its
// reply. It bypasses transcript assembly and retrieval so that failures
// isolate the backend configuration.
func (p *Pipeline) TestConnection(ctx context.Context) (string, error) {
	ctx, span := observe.StartSpan(ctx, "pipeline.TestConnection",
		trace.WithAttributes(observe.Attr("provider", string(p.provider))),
	)
	defer span.End()

	resp, err := p.generator.Dispatch(ctx, p.provider, p.model, p.credential, testPrompt)
	if err != nil {
		p.recordError(ctx, err)
		return "", err
	}
	p.metrics.RecordProviderRequest(ctx, string(p.provider), "ok")
	return resp.Text, nil
}

// Provider returns the configured backend provider.
func (p *Pipeline) Provider() backend.Provider { return p.provider }

func (p *Pipeline) recordError(ctx context.Context, err error) {
	p.metrics.RecordProviderRequest(ctx, string(p.provider), "error")
	kind := "unknown"
	var be *backend.Error
	if errors.As(err, &be) {
		kind = string(be.Kind)
	}
	p.metrics.RecordProviderError(ctx, string(p.provider), kind)
}
