package middleware

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/felixgeelhaar/weather-mcp/protocol"
)

// Recover returns middleware that turns a panic in a handler into an
// internal error response, so a single bad request cannot end the session.
func Recover(logger Logger) Middleware {
	if logger == nil {
		logger = NopLogger{}
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (resp *protocol.Response, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("handler panicked",
						F("method", req.Method),
						F("panic", fmt.Sprint(r)),
						F("stack", string(debug.Stack())),
					)
					resp, err = nil, protocol.NewInternalError(fmt.Sprintf("panic: %v", r))
				}
			}()
			return next(ctx, req)
		}
	}
}
