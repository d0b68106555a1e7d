package transcript

import (
	"strings"
	"time"
)

// Window returns the concatenated text of every utterance younger than the
// configured age threshold, in buffer order, joined with newlines.
//
// It is a pure read over the current buffer state: recomputed fresh on every
// call, never cached, and safe to call at arbitrary frequency. Returns the
// empty string when no utterance qualifies.
func (b *Buffer) Window(now time.Time) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var sb strings.Builder
	for _, u := range b.entries {
		if now.Sub(u.ObservedAt) >= b.maxAge {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(u.Text)
	}
	return sb.String()
}
