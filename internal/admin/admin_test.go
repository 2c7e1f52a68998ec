package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/weather-mcp/server"
)

func getHealth(t *testing.T, h http.Handler) (int, Health) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var body Health
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return rec.Code, body
}

func TestHealthz(t *testing.T) {
	srv := server.New(server.Info{Name: "weather-test", Version: "1.0.0"})
	router := NewRouter(srv, nil)

	code, body := getHealth(t, router)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, Health{Status: "ok", State: "idle", Tools: 0}, body)

	srv.MarkConnected()
	srv.MarkServing()
	_, body = getHealth(t, router)
	assert.Equal(t, "serving", body.State)

	srv.Close(nil)
	code, body = getHealth(t, router)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "closed", body.Status)
}

func TestMetricsMount(t *testing.T) {
	srv := server.New(server.Info{Name: "weather-test", Version: "1.0.0"})

	t.Run("absent without handler", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewRouter(srv, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("mounted with handler", func(t *testing.T) {
		metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("weather_upstream_requests_total 1\n"))
		})
		rec := httptest.NewRecorder()
		NewRouter(srv, metrics).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "weather_upstream_requests_total")
	})
}
