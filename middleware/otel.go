package middleware

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/weather-mcp/protocol"
)

const instrumentationName = "github.com/felixgeelhaar/weather-mcp/middleware"

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*otelConfig)

type otelConfig struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	serviceName    string
	skipMethods    map[string]bool
}

// WithTracerProvider sets a custom tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *otelConfig) {
		c.tracerProvider = tp
	}
}

// WithMeterProvider sets a custom meter provider.
func WithMeterProvider(mp metric.MeterProvider) OTelOption {
	return func(c *otelConfig) {
		c.meterProvider = mp
	}
}

// WithOTelServiceName sets the service.name attribute.
func WithOTelServiceName(name string) OTelOption {
	return func(c *otelConfig) {
		c.serviceName = name
	}
}

// WithOTelSkipMethods excludes methods from tracing and metrics.
func WithOTelSkipMethods(methods ...string) OTelOption {
	return func(c *otelConfig) {
		for _, m := range methods {
			c.skipMethods[m] = true
		}
	}
}

// OTel returns middleware that traces each request and records request
// counts, latency and error counts. Tool calls carry an mcp.tool attribute.
func OTel(opts ...OTelOption) Middleware {
	cfg := &otelConfig{
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
		serviceName:    "weather-mcp",
		skipMethods:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	tracer := cfg.tracerProvider.Tracer(instrumentationName)
	meter := cfg.meterProvider.Meter(instrumentationName)

	// Instrument creation only fails for invalid names; the no-op
	// instruments returned alongside the error are safe to use.
	requests, _ := meter.Int64Counter("mcp.server.requests",
		metric.WithDescription("MCP requests handled"),
		metric.WithUnit("{request}"))
	latency, _ := meter.Float64Histogram("mcp.server.request.duration",
		metric.WithDescription("MCP request latency"),
		metric.WithUnit("ms"))
	failures, _ := meter.Int64Counter("mcp.server.errors",
		metric.WithDescription("MCP requests answered with an error"),
		metric.WithUnit("{error}"))

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			if cfg.skipMethods[req.Method] {
				return next(ctx, req)
			}

			attrs := []attribute.KeyValue{
				attribute.String("mcp.method", req.Method),
				attribute.String("service.name", cfg.serviceName),
			}
			if tool := ToolName(req); tool != "" {
				attrs = append(attrs, attribute.String("mcp.tool", tool))
			}

			ctx, span := tracer.Start(ctx, "mcp."+req.Method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attrs...))
			defer span.End()
			if id := RequestIDFromContext(ctx); id != "" {
				span.SetAttributes(attribute.String("mcp.request_id", id))
			}

			start := time.Now()
			requests.Add(ctx, 1, metric.WithAttributes(attrs...))

			resp, err := next(ctx, req)

			latency.Record(ctx, float64(time.Since(start).Microseconds())/1000, metric.WithAttributes(attrs...))

			code, failed := errorCode(resp, err)
			if !failed {
				span.SetStatus(codes.Ok, "")
				return resp, err
			}
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			} else {
				span.SetStatus(codes.Error, resp.Error.Message)
			}
			if code != 0 {
				span.SetAttributes(attribute.Int("mcp.error_code", code))
				attrs = append(attrs, attribute.Int("mcp.error_code", code))
			}
			failures.Add(ctx, 1, metric.WithAttributes(attrs...))
			return resp, err
		}
	}
}

// errorCode reports whether a handler outcome is a failure and, when known,
// its JSON-RPC error code.
func errorCode(resp *protocol.Response, err error) (int, bool) {
	if err != nil {
		var perr *protocol.Error
		if errors.As(err, &perr) {
			return perr.Code, true
		}
		return 0, true
	}
	if resp != nil && resp.Error != nil {
		return resp.Error.Code, true
	}
	return 0, false
}
