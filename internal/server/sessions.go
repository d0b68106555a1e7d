package server

import (
	"context"
	"sync"

	"github.com/parley-ai/parley/internal/observe"
	"github.com/parley-ai/parley/internal/transcript"
)

// DefaultSessionID is used when a request does not name a session. Single
// clients never need to manage session IDs explicitly.
const DefaultSessionID = "default"

// sessionRegistry tracks one transcript buffer per caption session. Buffers
// are created on first use and live until explicitly removed.
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*transcript.Buffer
	opts     []transcript.Option
	metrics  *observe.Metrics
}

func newSessionRegistry(metrics *observe.Metrics, opts ...transcript.Option) *sessionRegistry {
	return &sessionRegistry{
		sessions: make(map[string]*transcript.Buffer),
		opts:     opts,
		metrics:  metrics,
	}
}

// get returns the buffer for id, creating it when absent. An empty id maps
// to [DefaultSessionID].
func (r *sessionRegistry) get(ctx context.Context, id string) *transcript.Buffer {
	if id == "" {
		id = DefaultSessionID
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	buf, ok := r.sessions[id]
	if !ok {
		buf = transcript.New(r.opts...)
		r.sessions[id] = buf
		r.metrics.ActiveSessions.Add(ctx, 1)
	}
	return buf
}

// peek returns the buffer for id without creating one. Diagnostic reads use
// this so they do not register phantom sessions.
func (r *sessionRegistry) peek(id string) *transcript.Buffer {
	if id == "" {
		id = DefaultSessionID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id]
}

// remove drops the session's buffer. Reports whether the session existed.
func (r *sessionRegistry) remove(ctx context.Context, id string) bool {
	if id == "" {
		id = DefaultSessionID
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	r.metrics.ActiveSessions.Add(ctx, -1)
	return true
}

func (r *sessionRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
