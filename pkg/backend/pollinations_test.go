package backend_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/parley-ai/parley/pkg/backend"
)

// TestPollinations_Success verifies the keyless GET contract: URL-encoded
// prompt in the path, model as a query parameter, plain-text body as the
// answer, and no Authorization header.
func TestPollinations_Success(t *testing.T) {
	var gotPath, gotModel, gotAuth, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotModel = r.URL.Query().Get("model")
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte("A plain text answer."))
	}))
	defer srv.Close()

	d := backend.NewDispatcher(backend.WithEndpoint(backend.ProviderPollinations, srv.URL+"/"))
	resp, err := d.Dispatch(context.Background(), backend.ProviderPollinations, "openai", "", "what is Go?")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if resp.Text != "A plain text answer." {
		t.Errorf("Text = %q", resp.Text)
	}
	wantPath := "/" + url.PathEscape("what is Go?")
	if gotPath != wantPath {
		t.Errorf("path = %q, want %q", gotPath, wantPath)
	}
	if gotModel != "openai" {
		t.Errorf("model = %q", gotModel)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q, keyless provider must not authenticate", gotAuth)
	}
	if gotAccept != "text/plain" {
		t.Errorf("Accept = %q", gotAccept)
	}
}

// TestPollinations_CredentialIgnored verifies a supplied credential is not a
// configuration error for the keyless provider and is not transmitted.
func TestPollinations_CredentialIgnored(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	d := backend.NewDispatcher(backend.WithEndpoint(backend.ProviderPollinations, srv.URL))
	if _, err := d.Dispatch(context.Background(), backend.ProviderPollinations, "", "sk-unneeded", "p"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q, want none", gotAuth)
	}
}

// TestPollinations_ErrorStatus verifies non-success statuses become provider
// errors (there is no error envelope to extract).
func TestPollinations_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	d := backend.NewDispatcher(backend.WithEndpoint(backend.ProviderPollinations, srv.URL))
	_, err := d.Dispatch(context.Background(), backend.ProviderPollinations, "", "", "p")

	be := asBackendError(t, err)
	if be.Kind != backend.KindProvider {
		t.Errorf("Kind = %q, want %q", be.Kind, backend.KindProvider)
	}
}

// TestPollinations_EmptyBody verifies an empty success body is reported as an
// empty response, never as a blank answer.
func TestPollinations_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	d := backend.NewDispatcher(backend.WithEndpoint(backend.ProviderPollinations, srv.URL))
	_, err := d.Dispatch(context.Background(), backend.ProviderPollinations, "", "", "p")

	be := asBackendError(t, err)
	if be.Kind != backend.KindEmptyResponse {
		t.Errorf("Kind = %q, want %q", be.Kind, backend.KindEmptyResponse)
	}
}
