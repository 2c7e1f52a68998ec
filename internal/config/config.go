// Package config loads weather-mcp settings from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Prefix is prepended to every environment variable name.
const Prefix = "WEATHER_MCP_"

// Transports.
const (
	TransportStdio     = "stdio"
	TransportWebSocket = "websocket"
)

// Config holds the configuration for the weather MCP server.
type Config struct {
	Name    string `env:"NAME, default=weather-mcp"`
	Version string `env:"VERSION, default=1.0.0"`

	// Transport is stdio or websocket.
	Transport     string `env:"TRANSPORT, default=stdio"`
	WebSocketAddr string `env:"WEBSOCKET_ADDR, default=127.0.0.1:8765"`

	// AdminAddr serves /healthz and /metrics; empty disables it.
	AdminAddr string `env:"ADMIN_ADDR"`

	Log      LogConfig      `env:", prefix=LOG_"`
	Upstream UpstreamConfig `env:", prefix=UPSTREAM_"`
	Limits   LimitsConfig   `env:", prefix=LIMIT_"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `env:"LEVEL, default=info"`
	Format string `env:"FORMAT, default=json"`
}

// UpstreamConfig controls the api.weather.gov client.
type UpstreamConfig struct {
	BaseURL   string        `env:"BASE_URL, default=https://api.weather.gov"`
	UserAgent string        `env:"USER_AGENT, default=WeatherApiClient/1.0"`
	Timeout   time.Duration `env:"TIMEOUT, default=10s"`
}

// LimitsConfig bounds the work a single client can cause. Rate counts
// tools/call requests per second per tool; 0 disables rate limiting.
type LimitsConfig struct {
	CallTimeout    time.Duration `env:"CALL_TIMEOUT, default=30s"`
	Rate           int           `env:"RATE, default=5"`
	Burst          int           `env:"BURST, default=10"`
	MaxMessageSize int           `env:"MAX_MESSAGE_SIZE, default=1048576"`
}

// Load reads the configuration from the process environment.
func Load(ctx context.Context) (Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads the configuration through lookuper, applying Prefix,
// and validates the result.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.PrefixLookuper(Prefix, lookuper),
	}); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	switch c.Transport {
	case TransportStdio, TransportWebSocket:
	default:
		errs = append(errs, fmt.Errorf("unknown transport %q", c.Transport))
	}
	if c.Transport == TransportWebSocket && c.WebSocketAddr == "" {
		errs = append(errs, errors.New("websocket transport needs an address"))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	if c.Upstream.BaseURL == "" {
		errs = append(errs, errors.New("upstream base url must not be empty"))
	}
	if c.Upstream.Timeout <= 0 {
		errs = append(errs, errors.New("upstream timeout must be positive"))
	}
	if c.Limits.CallTimeout <= 0 {
		errs = append(errs, errors.New("call timeout must be positive"))
	}
	switch {
	case c.Limits.Rate < 0:
		errs = append(errs, errors.New("rate limit must not be negative"))
	case c.Limits.Rate > 0 && c.Limits.Burst <= 0:
		errs = append(errs, errors.New("burst must be positive when rate limiting is on"))
	}
	if c.Limits.MaxMessageSize <= 0 {
		errs = append(errs, errors.New("max message size must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
