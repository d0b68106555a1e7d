package knowledge

import (
	"strings"
	"testing"
)

func TestChunkText_Short(t *testing.T) {
	chunks := Chunk("A short document.")
	if len(chunks) != 1 || chunks[0] != "A short document." {
		t.Errorf("chunks = %v, want single chunk", chunks)
	}
}

func TestChunkText_Blank(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\n"} {
		if got := Chunk(in); got != nil {
			t.Errorf("Chunk(%q) = %v, want nil", in, got)
		}
	}
}

// TestChunkText_BreaksAtSentence verifies long text splits at a sentence end
// rather than mid-word, as long as the break lands past half a chunk.
func TestChunkText_BreaksAtSentence(t *testing.T) {
	first := strings.Repeat("x", 300) + "."
	second := " " + strings.Repeat("y", 400) + "."
	chunks := Chunk(first + second)

	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want at least 2", len(chunks))
	}
	if chunks[0] != first {
		t.Errorf("first chunk = %d chars ending %q, want sentence-aligned break",
			len(chunks[0]), chunks[0][len(chunks[0])-1:])
	}
}

// TestChunkText_Overlap verifies consecutive chunks share content so a
// boundary sentence stays retrievable.
func TestChunkText_Overlap(t *testing.T) {
	// No sentence ends: forces plain fixed-size strides with overlap.
	text := strings.Repeat("abcdefghij", 120) // 1200 chars
	chunks := Chunk(text)

	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want several", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		tail := chunks[i-1][len(chunks[i-1])-50:]
		if !strings.Contains(chunks[i], tail) {
			t.Errorf("chunk %d does not overlap chunk %d", i, i-1)
		}
	}
}

// TestChunkText_CoversWholeText verifies no text is lost between chunks.
func TestChunkText_CoversWholeText(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40)
	chunks := Chunk(text)

	joined := strings.Join(chunks, "")
	// Every 40-char probe of the source must appear somewhere in a chunk.
	for i := 0; i+40 < len(text); i += 97 {
		probe := strings.TrimSpace(text[i : i+40])
		if !strings.Contains(joined, probe) {
			t.Errorf("probe at %d missing from chunks: %q", i, probe)
		}
	}
}

func TestChunkText_Terminates(t *testing.T) {
	// Inputs near the chunk-size boundary exercised the stride logic.
	for _, n := range []int{499, 500, 501, 599, 600, 601} {
		chunks := Chunk(strings.Repeat("z", n))
		if len(chunks) == 0 {
			t.Errorf("len %d: no chunks", n)
		}
	}
}
