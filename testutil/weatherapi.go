package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// WeatherAPI is an in-process stand-in for api.weather.gov. Routes are
// matched on the exact request path; unknown paths answer 404 with a
// problem+json body.
type WeatherAPI struct {
	server *httptest.Server

	mu     sync.Mutex
	hits   []string
	routes map[string]apiRoute
}

type apiRoute struct {
	status int
	body   string
}

// NewWeatherAPI starts a fake API that is closed when the test ends.
func NewWeatherAPI(t testing.TB) *WeatherAPI {
	t.Helper()
	api := &WeatherAPI{routes: make(map[string]apiRoute)}
	api.server = httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(api.server.Close)
	return api
}

// URL returns the API root.
func (a *WeatherAPI) URL() string { return a.server.URL }

func (a *WeatherAPI) serve(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	a.hits = append(a.hits, r.URL.Path)
	route, ok := a.routes[r.URL.Path]
	a.mu.Unlock()

	if !ok {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, `{"title":"Not Found","detail":"%s not found"}`, r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(route.status)
	_, _ = w.Write([]byte(route.body))
}

// Respond registers a fixed response for path.
func (a *WeatherAPI) Respond(path string, status int, body string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.routes[path] = apiRoute{status: status, body: body}
}

// Forecast registers a points document for lat,lon pointing at a
// gridpoint forecast with the given periods (JSON objects).
func (a *WeatherAPI) Forecast(latlon string, periods ...string) {
	forecastPath := "/gridpoints/TST/1,1/forecast"
	a.Respond("/points/"+latlon, http.StatusOK,
		fmt.Sprintf(`{"properties":{"forecast":%q}}`, a.server.URL+forecastPath))
	a.Respond(forecastPath, http.StatusOK,
		`{"properties":{"periods":[`+strings.Join(periods, ",")+`]}}`)
}

// Alerts registers the active alerts for a state (upper case). Each alert
// is a JSON properties object.
func (a *WeatherAPI) Alerts(state string, alerts ...string) {
	features := make([]string, len(alerts))
	for i, p := range alerts {
		features[i] = `{"type":"Feature","properties":` + p + `}`
	}
	a.Respond("/alerts/active/area/"+state, http.StatusOK,
		`{"type":"FeatureCollection","features":[`+strings.Join(features, ",")+`]}`)
}

// Hits returns the request paths received so far, in order.
func (a *WeatherAPI) Hits() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.hits...)
}
