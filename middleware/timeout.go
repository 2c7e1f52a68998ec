package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/weather-mcp/protocol"
)

// Timeout bounds each request to d. An in-flight upstream call sees the
// deadline through ctx and is aborted. A non-positive d disables the bound.
//
// Errors caused by the deadline keep matching context.DeadlineExceeded, so
// transports can answer them as timeouts.
func Timeout(d time.Duration) Middleware {
	if d <= 0 {
		return func(next HandlerFunc) HandlerFunc { return next }
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			resp, err := next(ctx, req)
			if err != nil && ctx.Err() == context.DeadlineExceeded {
				return nil, fmt.Errorf("%s exceeded %s: %w", req.Method, d, err)
			}
			return resp, err
		}
	}
}
