package weather

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// fakeAPI is a stand-in for api.weather.gov that records every request.
type fakeAPI struct {
	*httptest.Server

	mu       sync.Mutex
	requests []*http.Request
	routes   map[string]func(w http.ResponseWriter, r *http.Request)
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{routes: map[string]func(http.ResponseWriter, *http.Request){}}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Clone(r.Context()))
		route, ok := f.routes[r.URL.Path]
		f.mu.Unlock()
		if !ok {
			w.Header().Set("Content-Type", "application/problem+json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"title":"Not Found","detail":"no such route"}`))
			return
		}
		route(w, r)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeAPI) handleJSON(path, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[path] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = w.Write([]byte(body))
	}
}

func (f *fakeAPI) handleStatus(path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[path] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func (f *fakeAPI) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.requests))
	for i, r := range f.requests {
		out[i] = r.URL.Path
	}
	return out
}

func (f *fakeAPI) lastRequest() *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

const forecastBody = `{
  "properties": {
    "updated": "2025-01-01T00:00:00+00:00",
    "periods": [
      {"number": 1, "name": "Tonight", "temperature": 52, "temperatureUnit": "F",
       "windSpeed": "5 mph", "windDirection": "SW", "detailedForecast": "Mostly clear.",
       "icon": "https://api.weather.gov/icons/land/night/few"},
      {"number": 2, "name": "Tuesday", "temperature": 71, "temperatureUnit": "F",
       "windSpeed": "5 to 10 mph", "windDirection": "W", "detailedForecast": "Sunny."}
    ]
  }
}`
