package backend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/parley-ai/parley/pkg/backend"
)

// geminiEndpoint adapts a test server URL into the {model} endpoint template.
func geminiEndpoint(srvURL string) string {
	return srvURL + "/v1beta/models/{model}:generateContent"
}

// TestGemini_Success verifies URL-embedded model and key, the contents/parts
// body shape, and answer extraction.
func TestGemini_Success(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"My answer."}]}}]}`))
	}))
	defer srv.Close()

	d := backend.NewDispatcher(backend.WithEndpoint(backend.ProviderGemini, geminiEndpoint(srv.URL)))
	resp, err := d.Dispatch(context.Background(), backend.ProviderGemini, "gemini-1.5-flash", "AIza-test", "the prompt")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if resp.Text != "My answer." {
		t.Errorf("Text = %q", resp.Text)
	}
	if !strings.Contains(gotPath, "gemini-1.5-flash:generateContent") {
		t.Errorf("path = %q, model not substituted", gotPath)
	}
	if gotKey != "AIza-test" {
		t.Errorf("key query param = %q", gotKey)
	}

	// No Authorization header for Gemini; the key travels in the URL.
	contents, _ := gotBody["contents"].([]any)
	if len(contents) != 1 {
		t.Fatalf("contents = %v", gotBody["contents"])
	}
	gc, _ := gotBody["generationConfig"].(map[string]any)
	if gc["maxOutputTokens"] != float64(256) {
		t.Errorf("maxOutputTokens = %v, want 256", gc["maxOutputTokens"])
	}
	if gc["temperature"] != 0.7 {
		t.Errorf("temperature = %v, want 0.7", gc["temperature"])
	}
}

// TestGemini_ProviderError verifies Gemini's error envelope surfaces as a
// provider error.
func TestGemini_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"API key not valid"}}`))
	}))
	defer srv.Close()

	d := backend.NewDispatcher(backend.WithEndpoint(backend.ProviderGemini, geminiEndpoint(srv.URL)))
	_, err := d.Dispatch(context.Background(), backend.ProviderGemini, "", "bad", "p")

	be := asBackendError(t, err)
	if be.Kind != backend.KindProvider {
		t.Errorf("Kind = %q, want %q", be.Kind, backend.KindProvider)
	}
	if be.Message != "API key not valid" {
		t.Errorf("Message = %q", be.Message)
	}
}

// TestGemini_EmptyCandidates verifies the distinct empty-response condition
// for blocked or empty generations.
func TestGemini_EmptyCandidates(t *testing.T) {
	for name, reply := range map[string]string{
		"no candidates": `{"candidates":[]}`,
		"no parts":      `{"candidates":[{"content":{"parts":[]}}]}`,
		"empty text":    `{"candidates":[{"content":{"parts":[{"text":""}]}}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(reply))
			}))
			defer srv.Close()

			d := backend.NewDispatcher(backend.WithEndpoint(backend.ProviderGemini, geminiEndpoint(srv.URL)))
			_, err := d.Dispatch(context.Background(), backend.ProviderGemini, "", "key", "p")

			be := asBackendError(t, err)
			if be.Kind != backend.KindEmptyResponse {
				t.Errorf("Kind = %q, want %q", be.Kind, backend.KindEmptyResponse)
			}
		})
	}
}
