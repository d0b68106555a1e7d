package knowledge

import "strings"

// Chunking parameters. Chunks overlap so that a sentence falling on a chunk
// boundary is still retrievable from at least one chunk.
const (
	chunkSize    = 500
	chunkOverlap = 100
)

// Chunk splits text into overlapping chunks of roughly chunkSize characters.
// When a chunk would cut mid-sentence, the split is pulled back to the last
// sentence end or newline, provided that leaves at least half a chunk. Empty
// chunks are dropped; the result is nil for blank input.
func Chunk(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	start := 0
	for start < len(text) {
		// end may run past the text; the stride below is computed from
		// the unclipped value, which is what guarantees termination.
		end := start + chunkSize
		chunk := text[start:min(end, len(text))]

		if end < len(text) {
			breakPoint := max(strings.LastIndexByte(chunk, '.'), strings.LastIndexByte(chunk, '\n'))
			if breakPoint > chunkSize/2 {
				chunk = text[start : start+breakPoint+1]
				end = start + breakPoint + 1
			}
		}

		if c := strings.TrimSpace(chunk); c != "" {
			chunks = append(chunks, c)
		}
		start = end - chunkOverlap
	}
	return chunks
}
