// Command weather-mcp serves the get_alerts and get_forecast tools over MCP.
//
// Configuration comes from WEATHER_MCP_* environment variables. The
// default transport is stdio; logs go to stderr.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcp "github.com/felixgeelhaar/weather-mcp"
	"github.com/felixgeelhaar/weather-mcp/internal/admin"
	"github.com/felixgeelhaar/weather-mcp/internal/config"
	"github.com/felixgeelhaar/weather-mcp/internal/logging"
	"github.com/felixgeelhaar/weather-mcp/internal/telemetry"
	"github.com/felixgeelhaar/weather-mcp/middleware"
	"github.com/felixgeelhaar/weather-mcp/protocol"
	"github.com/felixgeelhaar/weather-mcp/server"
	"github.com/felixgeelhaar/weather-mcp/transport"
	"github.com/felixgeelhaar/weather-mcp/weather"
)

const instructions = "Use get_alerts with a two-letter US state code for active weather alerts. " +
	"Use get_forecast with a latitude and longitude inside the United States for the forecast."

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "weather-mcp:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	tel, err := telemetry.New(cfg.Name, cfg.Version)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tel.Shutdown(shutdownCtx)
	}()

	srv, err := newServer(cfg, logger, tel)
	if err != nil {
		return err
	}

	if cfg.AdminAddr != "" {
		stopAdmin := startAdmin(cfg.AdminAddr, srv, tel, logger)
		defer stopAdmin()
	}

	return serve(ctx, cfg, srv, newTransport(cfg), logger, tel)
}

// newServer builds the registry with both weather tools.
func newServer(cfg config.Config, logger *logging.Logger, tel *telemetry.Telemetry) (*server.Server, error) {
	srv := mcp.NewServer(mcp.ServerInfo{
		Name:    cfg.Name,
		Version: cfg.Version,
		Capabilities: server.Capabilities{
			Tools:            true,
			ToolsListChanged: true,
		},
	}, server.WithInstructions(instructions))

	client := weather.NewClient(
		weather.WithBaseURL(cfg.Upstream.BaseURL),
		weather.WithUserAgent(cfg.Upstream.UserAgent),
		weather.WithHTTPClient(&http.Client{Timeout: cfg.Upstream.Timeout}),
		weather.WithMeterProvider(tel.MeterProvider()),
		weather.WithTracerProvider(tel.TracerProvider()),
		weather.WithLogger(logger.Named("weather")),
	)
	if err := weather.Register(srv, client); err != nil {
		return nil, fmt.Errorf("register tools: %w", err)
	}

	srv.OnTransition(func(from, to server.State) {
		logger.Info("lifecycle transition",
			middleware.F("from", from.String()),
			middleware.F("to", to.String()),
		)
	})
	return srv, nil
}

func newTransport(cfg config.Config) transport.Transport {
	if cfg.Transport == config.TransportWebSocket {
		return transport.NewWebSocket(cfg.WebSocketAddr,
			transport.WithWebSocketMaxMessageSize(int64(cfg.Limits.MaxMessageSize)))
	}
	return transport.NewStdio(transport.WithMaxMessageSize(cfg.Limits.MaxMessageSize))
}

// serve runs the session and blocks until the server reaches the closed
// state. A shutdown signal is a clean exit.
func serve(ctx context.Context, cfg config.Config, srv *server.Server, t transport.Transport, logger *logging.Logger, tel *telemetry.Telemetry) error {
	stack := middleware.Stack(middleware.StackConfig{
		Logger:         logger.Named("rpc"),
		Timeout:        cfg.Limits.CallTimeout,
		MaxParamsBytes: int64(cfg.Limits.MaxMessageSize),
		ToolRate:       cfg.Limits.Rate,
		ToolBurst:      cfg.Limits.Burst,
		Telemetry: []middleware.OTelOption{
			middleware.WithMeterProvider(tel.MeterProvider()),
			middleware.WithTracerProvider(tel.TracerProvider()),
			middleware.WithOTelServiceName(cfg.Name),
			middleware.WithOTelSkipMethods(protocol.MethodPing),
		},
	})

	errc := make(chan error, 1)
	go func() {
		errc <- mcp.Serve(ctx, srv, t, mcp.WithMiddleware(stack...), mcp.WithLogger(logger))
	}()

	<-srv.Done()
	err := <-errc
	if errors.Is(err, context.Canceled) {
		logger.Info("shutting down")
		return nil
	}
	return err
}

func startAdmin(addr string, srv *server.Server, tel *telemetry.Telemetry, logger *logging.Logger) func() {
	hs := &http.Server{
		Addr:              addr,
		Handler:           admin.NewRouter(srv, tel.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("admin listening", middleware.F("addr", addr))
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("admin server failed", middleware.F("error", err.Error()))
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hs.Shutdown(ctx)
	}
}
