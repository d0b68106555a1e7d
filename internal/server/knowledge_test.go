package server

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/parley-ai/parley/internal/observe"
	"github.com/parley-ai/parley/internal/pipeline"
	"github.com/parley-ai/parley/pkg/backend"
	"github.com/parley-ai/parley/pkg/backend/mock"
	"github.com/parley-ai/parley/pkg/embeddings"
)

var _ embeddings.Embedder = (*fakeEmbedder)(nil)

// fakeEmbedder returns a fixed vector for any input.
type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		vec, err := f.Embed(context.Background(), texts[i])
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return 3 }
func (f *fakeEmbedder) ModelID() string { return "fake-embed" }

func TestEmbed(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	p, err := pipeline.New(&mock.Dispatcher{}, backend.ProviderGroq, "", "key", pipeline.WithMetrics(m))
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	srv := New(p, WithMetrics(m), WithEmbedder(&fakeEmbedder{}))

	rec := doJSON(t, srv.Handler(), "POST", "/v1/embed", embedRequest{Text: "hello"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	resp := decode[embedResponse](t, rec)
	if len(resp.Embedding) != 3 || resp.Dimensions != 3 || resp.Model != "fake-embed" {
		t.Errorf("response = %+v", resp)
	}

	// The endpoint must time the backend call.
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	found := false
	for _, sm := range rm.ScopeMetrics {
		for _, met := range sm.Metrics {
			if met.Name != "parley.embedding.duration" {
				continue
			}
			hist, ok := met.Data.(metricdata.Histogram[float64])
			if !ok || len(hist.DataPoints) == 0 || hist.DataPoints[0].Count != 1 {
				t.Fatalf("embedding duration data = %+v", met.Data)
			}
			found = true
		}
	}
	if !found {
		t.Error("embedding duration histogram was not recorded")
	}
}

func TestEmbed_Validation(t *testing.T) {
	srv := newTestServer(t, &mock.Dispatcher{}, WithEmbedder(&fakeEmbedder{}))
	h := srv.Handler()

	rec := doJSON(t, h, "POST", "/v1/embed", embedRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty text status = %d, want 400", rec.Code)
	}
}

func TestEmbed_WithoutEmbedder503(t *testing.T) {
	srv := newTestServer(t, &mock.Dispatcher{})

	rec := doJSON(t, srv.Handler(), "POST", "/v1/embed", embedRequest{Text: "hello"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestEmbed_BackendError(t *testing.T) {
	emb := &fakeEmbedder{err: errors.New("ollama: connection refused")}
	srv := newTestServer(t, &mock.Dispatcher{}, WithEmbedder(emb))

	rec := doJSON(t, srv.Handler(), "POST", "/v1/embed", embedRequest{Text: "hello"})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

// uploadFile posts data as a multipart form with a single "file" field.
func uploadFile(t *testing.T, h http.Handler, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest("POST", "/v1/extract", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// docxFixture builds a minimal DOCX archive with one paragraph per string.
func docxFixture(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var doc strings.Builder
	doc.WriteString(`<w:document xmlns:w="wml"><w:body>`)
	for _, p := range paragraphs {
		doc.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	doc.WriteString(`</w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	if _, err := f.Write([]byte(doc.String())); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestExtract_DOCXUpload(t *testing.T) {
	srv := newTestServer(t, &mock.Dispatcher{})

	data := docxFixture(t, "Ten years of Go.", "Led the billing rewrite.")
	rec := uploadFile(t, srv.Handler(), "resume.docx", data)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	resp := decode[extractResponse](t, rec)
	want := "Ten years of Go.\n\nLed the billing rewrite."
	if resp.Content != want {
		t.Errorf("content = %q, want %q", resp.Content, want)
	}
	if resp.Units != 2 || resp.Type != "docx" {
		t.Errorf("units = %d, type = %q", resp.Units, resp.Type)
	}
}

func TestExtract_UnsupportedExtension400(t *testing.T) {
	srv := newTestServer(t, &mock.Dispatcher{})

	rec := uploadFile(t, srv.Handler(), "notes.txt", []byte("plain text"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body)
	}
}

func TestExtract_EmptyDocument400(t *testing.T) {
	srv := newTestServer(t, &mock.Dispatcher{})

	rec := uploadFile(t, srv.Handler(), "empty.docx", docxFixture(t))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body)
	}
}

func TestExtract_MissingFileField400(t *testing.T) {
	srv := newTestServer(t, &mock.Dispatcher{})

	req := httptest.NewRequest("POST", "/v1/extract", strings.NewReader("not multipart"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
