package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/weather-mcp/protocol"
)

func TestRateLimit(t *testing.T) {
	t.Run("allows burst then rejects", func(t *testing.T) {
		logger := &recordingLogger{}
		h := RateLimit(1, 2, WithRateLimitLogger(logger), WithRateLimitInterval(time.Hour))(okHandler)

		for i := 0; i < 2; i++ {
			if _, err := h(context.Background(), toolCall("1", "get_alerts")); err != nil {
				t.Fatalf("request %d: unexpected error: %v", i, err)
			}
		}

		_, err := h(context.Background(), toolCall("3", "get_alerts"))
		var perr *protocol.Error
		if !errors.As(err, &perr) || perr.Code != protocol.CodeRateLimited {
			t.Fatalf("err = %v, want rate limited", err)
		}
		if e := logger.last(); e.msg != "rate limit exceeded" {
			t.Errorf("log = %+v", e)
		}
	})

	t.Run("tools are limited independently", func(t *testing.T) {
		h := RateLimitTools(1, 1, WithRateLimitInterval(time.Hour))(okHandler)

		if _, err := h(context.Background(), toolCall("1", "get_alerts")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := h(context.Background(), toolCall("2", "get_forecast")); err != nil {
			t.Fatalf("other tool should have its own bucket: %v", err)
		}
		if _, err := h(context.Background(), toolCall("3", "get_alerts")); err == nil {
			t.Fatal("expected second get_alerts call to be limited")
		}
	})

	t.Run("non-tool requests are not limited", func(t *testing.T) {
		h := RateLimitTools(1, 1, WithRateLimitInterval(time.Hour))(okHandler)
		for i := 0; i < 5; i++ {
			if _, err := h(context.Background(), &protocol.Request{Method: protocol.MethodPing}); err != nil {
				t.Fatalf("ping %d: unexpected error: %v", i, err)
			}
		}
	})
}
