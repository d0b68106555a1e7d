// Package health serves the liveness and readiness endpoints.
//
// /healthz answers 200 whenever the process can serve HTTP at all. /readyz
// runs the configured dependency checks and answers 503 when any fails. The
// body is JSON:
//
//	{"status": "ok", "checks": {"database": "ok: 42 chunks", "embeddings": "ok"}}
//
// Check states are "ok", "ok: <detail>", or "fail: <error>".
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// checkTimeout bounds each individual readiness check.
const checkTimeout = 5 * time.Second

// Checker probes one downstream dependency for /readyz.
type Checker struct {
	// Name keys the check in the JSON response.
	Name string

	// Check probes the dependency, respecting ctx. A non-empty detail is
	// appended to the reported state ("ok: 42 chunks"); a non-nil error
	// marks the check failed and the process not ready.
	Check func(ctx context.Context) (detail string, err error)
}

// Pinger is anything with a Ping method, such as a database pool or an
// embedding client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingChecker adapts a [Pinger] into a detail-less [Checker].
func PingChecker(name string, p Pinger) Checker {
	return Checker{
		Name: name,
		Check: func(ctx context.Context) (string, error) {
			return "", p.Ping(ctx)
		},
	}
}

type report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler serves /healthz and /readyz. The checker list is fixed at
// construction, so it is safe for concurrent use.
type Handler struct {
	checkers []Checker
}

// New creates a [Handler] running the given checkers, in order, on each
// /readyz request.
func New(checkers ...Checker) *Handler {
	return &Handler{checkers: append([]Checker(nil), checkers...)}
}

// Healthz is the liveness probe. It always answers 200.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, report{Status: "ok"})
}

// Readyz runs every checker under a [checkTimeout] deadline and answers 503
// if any of them fails. All checks run even after a failure so the response
// shows the full dependency picture.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	res := report{Status: "ok", Checks: make(map[string]string, len(h.checkers))}
	code := http.StatusOK

	for _, c := range h.checkers {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		detail, err := c.Check(ctx)
		cancel()

		switch {
		case err != nil:
			res.Checks[c.Name] = "fail: " + err.Error()
			res.Status = "fail"
			code = http.StatusServiceUnavailable
		case detail != "":
			res.Checks[c.Name] = "ok: " + detail
		default:
			res.Checks[c.Name] = "ok"
		}
	}

	writeJSON(w, code, res)
}

// Register adds the /healthz and /readyz routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
