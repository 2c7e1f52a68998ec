package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"

	"github.com/felixgeelhaar/weather-mcp/protocol"
)

// RateLimitOption configures the rate limiter.
type RateLimitOption func(*rateLimitConfig)

type rateLimitConfig struct {
	keyFunc  func(*protocol.Request) string
	logger   Logger
	interval time.Duration
}

// WithRateLimitKeyFunc sets the function that buckets requests. Requests
// for which it returns "" are not limited.
func WithRateLimitKeyFunc(fn func(*protocol.Request) string) RateLimitOption {
	return func(o *rateLimitConfig) {
		o.keyFunc = fn
	}
}

// WithRateLimitLogger sets the logger for rate limit events.
func WithRateLimitLogger(l Logger) RateLimitOption {
	return func(o *rateLimitConfig) {
		o.logger = l
	}
}

// WithRateLimitInterval sets the refill interval. The default is one second.
func WithRateLimitInterval(d time.Duration) RateLimitOption {
	return func(o *rateLimitConfig) {
		o.interval = d
	}
}

// RateLimit returns middleware that limits request rate with a token bucket
// holding burst tokens and refilling rate tokens per interval.
func RateLimit(rate, burst int, opts ...RateLimitOption) Middleware {
	cfg := &rateLimitConfig{
		keyFunc:  func(*protocol.Request) string { return "global" },
		logger:   NopLogger{},
		interval: time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if burst < rate {
		burst = rate
	}

	limiter := ratelimit.New(&ratelimit.Config{
		Rate:     rate,
		Burst:    burst,
		Interval: cfg.interval,
	})

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			key := cfg.keyFunc(req)
			if key == "" || limiter.Allow(ctx, key) {
				return next(ctx, req)
			}
			cfg.logger.Warn("rate limit exceeded",
				F("method", req.Method),
				F("key", key),
			)
			return nil, protocol.NewRateLimited(fmt.Sprintf("rate limit exceeded for %s", key))
		}
	}
}

// RateLimitTools limits tools/call requests per tool name, leaving the
// handshake and listing requests unthrottled.
func RateLimitTools(rate, burst int, opts ...RateLimitOption) Middleware {
	return RateLimit(rate, burst, append([]RateLimitOption{WithRateLimitKeyFunc(ToolName)}, opts...)...)
}
