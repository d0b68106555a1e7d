package config_test

import (
	"testing"

	"github.com/parley-ai/parley/internal/config"
)

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{
		Server:     config.ServerConfig{LogLevel: config.LogInfo},
		Generation: config.GenerationConfig{Provider: "groq", APIKey: "k"},
	}
	other := *cfg

	d := config.Diff(cfg, &other)
	if d.LogLevelChanged {
		t.Error("expected LogLevelChanged=false for identical configs")
	}
	if d.Restartable() {
		t.Error("expected Restartable()=false for identical configs")
	}
}

func TestDiff_LogLevelChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{Server: config.ServerConfig{LogLevel: config.LogInfo}}
	new := &config.Config{Server: config.ServerConfig{LogLevel: config.LogDebug}}

	d := config.Diff(old, new)
	if !d.LogLevelChanged {
		t.Fatal("expected LogLevelChanged=true")
	}
	if d.NewLogLevel != config.LogDebug {
		t.Errorf("NewLogLevel = %q, want debug", d.NewLogLevel)
	}
	if d.Restartable() {
		t.Error("log level change should not require a restart")
	}
}

func TestDiff_GenerationChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{Generation: config.GenerationConfig{Provider: "groq"}}
	new := &config.Config{Generation: config.GenerationConfig{Provider: "openai"}}

	d := config.Diff(old, new)
	if !d.GenerationChanged {
		t.Error("expected GenerationChanged=true")
	}
	if !d.Restartable() {
		t.Error("generation change should require a restart")
	}
}

// TestDiff_RetrievalComparedByValue guards against pointer-identity compares:
// two configs loaded from the same YAML hold distinct MinSimilarity pointers
// and must still diff as unchanged.
func TestDiff_RetrievalComparedByValue(t *testing.T) {
	t.Parallel()
	v1, v2 := 0.4, 0.4
	old := &config.Config{Retrieval: config.RetrievalConfig{Enabled: true, MinSimilarity: &v1}}
	new := &config.Config{Retrieval: config.RetrievalConfig{Enabled: true, MinSimilarity: &v2}}

	if d := config.Diff(old, new); d.RetrievalChanged {
		t.Error("equal min_similarity values behind distinct pointers reported as changed")
	}

	v2 = 0.9
	if d := config.Diff(old, new); !d.RetrievalChanged {
		t.Error("expected RetrievalChanged=true for differing min_similarity")
	}

	unset := &config.Config{Retrieval: config.RetrievalConfig{Enabled: true}}
	if d := config.Diff(old, unset); !d.RetrievalChanged {
		t.Error("expected RetrievalChanged=true between set and unset min_similarity")
	}
}

func TestDiff_KnowledgeChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{}
	new := &config.Config{Knowledge: config.KnowledgeConfig{
		Embeddings: config.EmbeddingsConfig{Model: "mxbai-embed-large"},
	}}

	d := config.Diff(old, new)
	if !d.KnowledgeChanged {
		t.Error("expected KnowledgeChanged=true")
	}
}
