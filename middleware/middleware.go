package middleware

import "time"

// StackConfig selects the middleware of the default server stack.
// Zero values disable the corresponding middleware.
type StackConfig struct {
	Logger Logger

	// Timeout bounds each request.
	Timeout time.Duration

	// MaxParamsBytes rejects requests whose params exceed this size.
	MaxParamsBytes int64

	// ToolRate and ToolBurst limit tools/call requests per tool name.
	ToolRate  int
	ToolBurst int

	// Telemetry options; OTel is added when any are set.
	Telemetry []OTelOption
}

// Stack returns the production middleware stack in execution order:
// recovery, request ids, telemetry, logging, size and rate limits, timeout.
func Stack(cfg StackConfig) []Middleware {
	logger := cfg.Logger
	if logger == nil {
		logger = NopLogger{}
	}

	stack := []Middleware{
		Recover(logger),
		RequestID(),
	}
	if len(cfg.Telemetry) > 0 {
		stack = append(stack, OTel(cfg.Telemetry...))
	}
	stack = append(stack, Logging(logger))
	if cfg.MaxParamsBytes > 0 {
		stack = append(stack, SizeLimit(cfg.MaxParamsBytes, WithSizeLimitLogger(logger)))
	}
	if cfg.ToolRate > 0 {
		stack = append(stack, RateLimitTools(cfg.ToolRate, cfg.ToolBurst, WithRateLimitLogger(logger)))
	}
	if cfg.Timeout > 0 {
		stack = append(stack, Timeout(cfg.Timeout))
	}
	return stack
}
