package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/parley-ai/parley/internal/observe"
)

// streamFrame is one caption fragment sent over the WebSocket stream.
type streamFrame struct {
	Text string `json:"text"`
}

// handleCaptionStream upgrades to a WebSocket and ingests caption frames
// until the client disconnects. Each frame is a JSON object {"text": "..."}
// and goes through the same reconciliation as POST /v1/captions.
func (srv *Server) handleCaptionStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		// Accept has already written the HTTP error response.
		return
	}
	defer conn.CloseNow()

	sessionID := r.URL.Query().Get("session_id")
	buf := srv.sessions.get(r.Context(), sessionID)
	log := observe.Logger(r.Context()).With("session_id", sessionID)
	log.Info("caption stream opened")

	var frames int64
	for {
		var frame streamFrame
		if err := wsjson.Read(r.Context(), conn, &frame); err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway ||
				errors.Is(err, context.Canceled) {
				log.Info("caption stream closed", "frames", frames)
			} else {
				log.Warn("caption stream aborted", "frames", frames, "err", err)
			}
			return
		}

		buf.Ingest(frame.Text, srv.now())
		srv.metrics.CaptionsIngested.Add(r.Context(), 1)
		frames++
	}
}
