// Package weather is a client for the api.weather.gov JSON API and the two
// MCP tools built on it.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/weather-mcp/middleware"
)

const (
	// DefaultBaseURL is the public National Weather Service API.
	DefaultBaseURL = "https://api.weather.gov"

	// DefaultUserAgent identifies the client; api.weather.gov rejects
	// requests without one.
	DefaultUserAgent = "WeatherApiClient/1.0"

	// DefaultTimeout bounds a single upstream request.
	DefaultTimeout = 10 * time.Second

	acceptHeader        = "application/geo+json"
	instrumentationName = "github.com/felixgeelhaar/weather-mcp/weather"
)

// ErrNoForecastURL is reported when a points lookup carries no forecast link,
// which happens for coordinates outside NWS coverage.
var ErrNoForecastURL = errors.New("points response has no forecast url")

// UpstreamError describes a failed call to the weather API.
type UpstreamError struct {
	// Op names the call: "points", "forecast" or "alerts".
	Op  string
	URL string

	// StatusCode is set for non-2xx responses.
	StatusCode int

	// Detail carries the API's problem description when one was returned.
	Detail string

	Err error
}

func (e *UpstreamError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "weather %s %s", e.Op, e.URL)
	if e.StatusCode != 0 {
		fmt.Fprintf(&sb, ": status %d", e.StatusCode)
	}
	if e.Detail != "" {
		fmt.Fprintf(&sb, ": %s", e.Detail)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root, such as a test server.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTracerProvider sets the tracer provider for upstream spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		c.tracerProvider = tp
	}
}

// WithMeterProvider sets the meter provider for upstream metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Client) {
		c.meterProvider = mp
	}
}

// WithLogger sets the logger for upstream failures.
func WithLogger(l middleware.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// Client fetches forecasts and alerts. It holds no mutable state after
// construction and is safe for concurrent use.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	logger    middleware.Logger

	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	tracer         trace.Tracer
	requests       metric.Int64Counter
	latency        metric.Float64Histogram
}

// NewClient returns a client for api.weather.gov.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:        DefaultBaseURL,
		userAgent:      DefaultUserAgent,
		http:           &http.Client{Timeout: DefaultTimeout},
		logger:         middleware.NopLogger{},
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.tracer = c.tracerProvider.Tracer(instrumentationName)
	meter := c.meterProvider.Meter(instrumentationName)
	c.requests, _ = meter.Int64Counter("weather.upstream.requests",
		metric.WithDescription("Requests sent to the weather API"),
		metric.WithUnit("{request}"))
	c.latency, _ = meter.Float64Histogram("weather.upstream.duration",
		metric.WithDescription("Weather API round-trip time"),
		metric.WithUnit("ms"))
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// resolve turns an API path or a link returned by the API into an absolute URL.
func (c *Client) resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	base, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return "", err
	}
	return base.ResolveReference(u).String(), nil
}

// getJSON performs one GET and decodes the body into v. Unknown fields in
// the response are ignored.
func (c *Client) getJSON(ctx context.Context, op, ref string, v any) (err error) {
	target, err := c.resolve(ref)
	if err != nil {
		return &UpstreamError{Op: op, URL: ref, Err: err}
	}

	ctx, span := c.tracer.Start(ctx, "weather."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", http.MethodGet),
			attribute.String("url.full", target),
		))
	start := time.Now()
	status := 0
	defer func() {
		attrs := metric.WithAttributes(
			attribute.String("op", op),
			attribute.Int("status", status),
		)
		c.requests.Add(ctx, 1, attrs)
		c.latency.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.logger.Warn("weather request failed",
				middleware.F("op", op),
				middleware.F("url", target),
				middleware.F("status", status),
				middleware.F("error", err.Error()),
			)
		}
		span.End()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return &UpstreamError{Op: op, URL: target, Err: err}
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return &UpstreamError{Op: op, URL: target, Err: err}
	}
	defer resp.Body.Close()

	status = resp.StatusCode
	span.SetAttributes(attribute.Int("http.response.status_code", status))

	if status < 200 || status >= 300 {
		return &UpstreamError{
			Op:         op,
			URL:        target,
			StatusCode: status,
			Detail:     problemDetail(resp.Body),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &UpstreamError{Op: op, URL: target, StatusCode: status, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// problemDetail extracts the detail of an application/problem+json body.
func problemDetail(r io.Reader) string {
	var problem struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 64*1024)).Decode(&problem); err != nil {
		return ""
	}
	if problem.Detail != "" {
		return problem.Detail
	}
	return problem.Title
}
