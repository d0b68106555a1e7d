package server

import (
	"net/http"

	"github.com/parley-ai/parley/internal/pipeline"
)

type captionRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Text      string `json:"text"`
}

type captionResponse struct {
	Utterances int `json:"utterances"`
}

// handleCaptions ingests one raw caption fragment into the session's buffer.
// Reconciliation (extension, retraction, duplicate collapse) happens inside
// the buffer; the response reports the resulting utterance count.
func (srv *Server) handleCaptions(w http.ResponseWriter, r *http.Request) {
	var req captionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	buf := srv.sessions.get(r.Context(), req.SessionID)
	buf.Ingest(req.Text, srv.now())
	srv.metrics.CaptionsIngested.Add(r.Context(), 1)

	writeJSON(w, http.StatusOK, captionResponse{Utterances: buf.Len()})
}

type transcriptResponse struct {
	Transcript string `json:"transcript"`
	Utterances int    `json:"utterances"`
}

// handleTranscript returns the session's current transcript window. Intended
// for diagnostics; answering goes through handleAnswer. Reading an unknown
// session reports an empty window without creating the session.
func (srv *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	buf := srv.sessions.peek(r.URL.Query().Get("session_id"))
	if buf == nil {
		writeJSON(w, http.StatusOK, transcriptResponse{})
		return
	}
	writeJSON(w, http.StatusOK, transcriptResponse{
		Transcript: buf.Window(srv.now()),
		Utterances: buf.Len(),
	})
}

type answerRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

type answerResponse struct {
	Answer   string `json:"answer"`
	Provider string `json:"provider"`
}

// handleAnswer runs the full answer pipeline for the session's current
// window.
func (srv *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	buf := srv.sessions.peek(req.SessionID)
	if buf == nil {
		writeError(w, pipeline.ErrEmptyTranscript)
		return
	}
	answer, err := srv.pipeline.Answer(r.Context(), buf)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, answerResponse{
		Answer:   answer,
		Provider: string(srv.pipeline.Provider()),
	})
}

type testConnectionResponse struct {
	Reply    string `json:"reply"`
	Provider string `json:"provider"`
}

// handleTestConnection sends the fixed probe prompt to the configured
// backend so operators can verify credentials before an interview starts.
func (srv *Server) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	reply, err := srv.pipeline.TestConnection(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, testConnectionResponse{
		Reply:    reply,
		Provider: string(srv.pipeline.Provider()),
	})
}

// handleDeleteSession discards a session's transcript buffer.
func (srv *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !srv.sessions.remove(r.Context(), r.PathValue("id")) {
		writeJSON(w, http.StatusNotFound, apiError{Error: "unknown session"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
