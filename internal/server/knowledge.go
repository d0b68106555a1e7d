package server

import (
	"io"
	"net/http"
	"time"

	"github.com/parley-ai/parley/internal/extract"
)

// maxUploadBytes caps document uploads on the extraction endpoint.
const maxUploadBytes = 20 << 20

// requireStore answers 503 when no knowledge store is configured.
func (srv *Server) requireStore(w http.ResponseWriter) bool {
	if srv.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, apiError{Error: "knowledge store is not configured"})
		return false
	}
	return true
}

type addDocumentRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type addDocumentResponse struct {
	Title  string `json:"title"`
	Chunks int    `json:"chunks"`
}

func (srv *Server) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	if !srv.requireStore(w) {
		return
	}
	var req addDocumentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "title is required"})
		return
	}

	chunks, err := srv.store.AddDocument(r.Context(), req.Title, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, addDocumentResponse{Title: req.Title, Chunks: chunks})
}

type documentInfo struct {
	Title     string    `json:"title"`
	Chunks    int       `json:"chunks"`
	CreatedAt time.Time `json:"created_at"`
}

type listDocumentsResponse struct {
	Documents []documentInfo `json:"documents"`
}

func (srv *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if !srv.requireStore(w) {
		return
	}
	docs, err := srv.store.ListDocuments(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]documentInfo, len(docs))
	for i, d := range docs {
		out[i] = documentInfo{Title: d.Title, Chunks: d.ChunkCount, CreatedAt: d.CreatedAt}
	}
	writeJSON(w, http.StatusOK, listDocumentsResponse{Documents: out})
}

type deleteDocumentResponse struct {
	Title  string `json:"title"`
	Chunks int    `json:"chunks"`
}

func (srv *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if !srv.requireStore(w) {
		return
	}
	title := r.PathValue("title")
	chunks, err := srv.store.DeleteDocument(r.Context(), title)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteDocumentResponse{Title: title, Chunks: chunks})
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

type searchResult struct {
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

// handleSearch serves similarity search over the knowledge store. The wire
// shape matches what the retrieval client expects, so one Parley instance
// can act as another's knowledge service.
func (srv *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !srv.requireStore(w) {
		return
	}
	var req searchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "query is required"})
		return
	}

	start := time.Now()
	results, err := srv.store.Search(r.Context(), req.Query, req.Limit)
	srv.metrics.RetrievalDuration.Record(r.Context(), time.Since(start).Seconds())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]searchResult, len(results))
	for i, res := range results {
		out[i] = searchResult(res)
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: out})
}

type extractResponse struct {
	Content string `json:"content"`
	Units   int    `json:"units"`
	Type    string `json:"type"`
}

// handleExtract pulls plain text out of an uploaded PDF, DOCX, or PPTX so a
// client can review it before posting it as a knowledge document.
func (srv *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "multipart field \"file\" is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, apiError{Error: "upload exceeds the size limit"})
		return
	}

	res, err := extract.File(header.Filename, data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, extractResponse{Content: res.Content, Units: res.Units, Type: res.Type})
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding  []float32 `json:"embedding"`
	Dimensions int       `json:"dimensions"`
	Model      string    `json:"model"`
}

// handleEmbed exposes the embedding backend directly, mainly for index
// debugging and external tooling.
func (srv *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	if srv.embedder == nil {
		writeJSON(w, http.StatusServiceUnavailable, apiError{Error: "embedding backend is not configured"})
		return
	}
	var req embedRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Text == "" {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "text is required"})
		return
	}

	start := time.Now()
	vec, err := srv.embedder.Embed(r.Context(), req.Text)
	srv.metrics.EmbeddingDuration.Record(r.Context(), time.Since(start).Seconds())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, embedResponse{
		Embedding:  vec,
		Dimensions: srv.embedder.Dimensions(),
		Model:      srv.embedder.ModelID(),
	})
}
