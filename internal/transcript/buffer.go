// Package transcript maintains the live caption reconciliation buffer.
//
// Incremental caption sources (live ASR, meeting captions) repeatedly resend
// growing and shrinking versions of the same sentence before finalising it.
// The [Buffer] folds that noisy stream into a stable, time-stamped sequence of
// distinct utterances: a fragment that extends the last utterance replaces it
// in place, a fragment that is a contraction of the last utterance is
// discarded, and everything else starts a new utterance.
package transcript

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// Default buffer tuning. These match the behaviour of typical meeting-caption
// sources, where a sentence stabilises within a few revisions and anything
// older than a minute and a half is stale as question context.
const (
	// DefaultCapacity is the maximum number of utterances retained.
	DefaultCapacity = 25

	// DefaultMaxAge is the age threshold for the transcript window.
	DefaultMaxAge = 90 * time.Second

	// minFragmentLen is the shortest fragment worth reconciling. Single
	// characters are caption-rendering noise, never speech.
	minFragmentLen = 2
)

// Utterance is one reconciled unit of spoken text.
type Utterance struct {
	// Text is the utterance text, trimmed and non-empty.
	Text string

	// ObservedAt records when the utterance (or its latest revision) was
	// captured.
	ObservedAt time.Time
}

// Buffer is a capacity-bounded, ordered sequence of reconciled utterances.
// Insertion order is temporal order; when the buffer overflows, the oldest
// entry is evicted first.
//
// Reconciliation reads and conditionally mutates the last entry, so ingestion
// is serialised internally. All methods are safe for concurrent use.
type Buffer struct {
	mu       sync.RWMutex
	entries  []Utterance
	capacity int
	maxAge   time.Duration
}

// Option is a functional option for [New].
type Option func(*Buffer)

// WithCapacity sets the maximum number of utterances retained. Values below 1
// are ignored. Defaults to [DefaultCapacity].
func WithCapacity(n int) Option {
	return func(b *Buffer) {
		if n >= 1 {
			b.capacity = n
		}
	}
}

// WithMaxAge sets the age threshold used by [Buffer.Window]. Non-positive
// values are ignored. Defaults to [DefaultMaxAge].
func WithMaxAge(d time.Duration) Option {
	return func(b *Buffer) {
		if d > 0 {
			b.maxAge = d
		}
	}
}

// New creates an empty [Buffer] with the default capacity and window age.
// Apply [Option] values to override the defaults.
func New(opts ...Option) *Buffer {
	b := &Buffer{
		capacity: DefaultCapacity,
		maxAge:   DefaultMaxAge,
	}
	for _, o := range opts {
		o(b)
	}
	b.entries = make([]Utterance, 0, b.capacity)
	return b
}

// Ingest reconciles a raw caption fragment into the buffer.
//
// The fragment is trimmed first; empty or single-character fragments are
// dropped silently. Otherwise the first matching rule applies, in this exact
// order:
//
//  1. Extension — the fragment starts with or contains the last utterance:
//     the last utterance's text and timestamp are overwritten in place.
//  2. Retraction — the last utterance contains the fragment: dropped.
//  3. Exact duplicate of the last utterance: dropped.
//  4. Otherwise the fragment is appended as a new utterance.
//
// The ordering matters: a fragment equal to the last text satisfies both the
// extension and duplicate checks, and extension must win so the timestamp
// stays fresh. The retraction rule can swallow a genuinely new short utterance
// that happens to be a substring of the previous longer one; this is a known
// limitation of substring-based reconciliation.
//
// Ingest never fails; malformed input is a no-op.
func (b *Buffer) Ingest(rawText string, now time.Time) {
	text := strings.TrimSpace(rawText)
	if utf8.RuneCountInString(text) < minFragmentLen {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if n := len(b.entries); n > 0 {
		last := &b.entries[n-1]

		// Rule 1: extension/revision of the last utterance.
		if strings.HasPrefix(text, last.Text) || strings.Contains(text, last.Text) {
			last.Text = text
			last.ObservedAt = now
			return
		}

		// Rule 2: contraction of the last utterance.
		if strings.Contains(last.Text, text) {
			return
		}

		// Rule 3: exact duplicate. Unreachable after rule 1 in practice,
		// kept to preserve the documented precedence.
		if text == last.Text {
			return
		}
	}

	// Rule 4: new utterance.
	b.entries = append(b.entries, Utterance{Text: text, ObservedAt: now})
	b.evict()
}

// Snapshot returns a copy of the current utterances in chronological order.
func (b *Buffer) Snapshot() []Utterance {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Utterance, len(b.entries))
	copy(out, b.entries)
	return out
}

// Len returns the number of utterances currently held.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Clear discards all utterances. Used on session teardown; the buffer is
// never persisted.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = b.entries[:0]
}

// evict removes the oldest entries until the buffer fits its capacity.
// Must be called with b.mu held.
//
// Survivors are copied to a fresh backing array so evicted entries do not pin
// memory for the lifetime of the session.
func (b *Buffer) evict() {
	if len(b.entries) <= b.capacity {
		return
	}
	keep := b.entries[len(b.entries)-b.capacity:]
	fresh := make([]Utterance, len(keep), b.capacity)
	copy(fresh, keep)
	b.entries = fresh
}
