// Package admin serves health and metrics endpoints next to the MCP session.
package admin

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/felixgeelhaar/weather-mcp/server"
)

// Health is the /healthz response body.
type Health struct {
	Status string `json:"status"`
	State  string `json:"state"`
	Tools  int    `json:"tools"`
}

// NewRouter returns the admin router. /healthz reports the lifecycle state
// and answers 503 once the session has closed. /metrics is mounted when
// metrics is non-nil.
func NewRouter(srv *server.Server, metrics http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		state := srv.State()
		h := Health{Status: "ok", State: state.String(), Tools: len(srv.Tools())}
		code := http.StatusOK
		if state == server.StateClosed {
			h.Status = "closed"
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(h)
	})

	if metrics != nil {
		r.Handle("/metrics", metrics)
	}
	return r
}
