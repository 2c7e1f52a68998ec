// Package mcp serves a tool registry to one MCP client at a time.
//
// A server is built from the server package's registry, then handed to a
// transport. Serve blocks until the session ends and leaves the server in
// the closed state:
//
//	srv := mcp.NewServer(mcp.ServerInfo{Name: "weather", Version: "1.0.0"})
//
//	type AlertsInput struct {
//	    State string `json:"state" jsonschema:"required"`
//	}
//
//	srv.Tool("get_alerts").
//	    Description("Get weather alerts for a US state").
//	    Handler(func(ctx context.Context, in AlertsInput) ([]string, error) {
//	        return client.GetAlerts(ctx, in.State)
//	    })
//
//	err := mcp.ServeStdio(ctx, srv)
package mcp

import (
	"context"

	"github.com/felixgeelhaar/weather-mcp/middleware"
	"github.com/felixgeelhaar/weather-mcp/server"
	"github.com/felixgeelhaar/weather-mcp/transport"
)

// ServerInfo contains server metadata exposed to clients.
type ServerInfo = server.Info

// Server is the MCP server instance.
type Server = server.Server

// Option configures a Server.
type Option = server.Option

// NewServer creates a new MCP server with the given info and options.
func NewServer(info ServerInfo, opts ...Option) *Server {
	return server.New(info, opts...)
}

// ServeOption configures how the server is run.
type ServeOption func(*serveOptions)

type serveOptions struct {
	middleware []middleware.Middleware
	logger     middleware.Logger
}

// WithMiddleware adds middleware to the request handling chain.
func WithMiddleware(m ...middleware.Middleware) ServeOption {
	return func(o *serveOptions) {
		o.middleware = append(o.middleware, m...)
	}
}

// WithLogger sets the logger for session events.
func WithLogger(l middleware.Logger) ServeOption {
	return func(o *serveOptions) {
		o.logger = l
	}
}

// Serve runs srv over t until the session ends: the client closes the
// stream (nil), ctx is canceled (ctx.Err()) or the session fails
// (*transport.ProtocolError). The server is closed with that error before
// Serve returns.
func Serve(ctx context.Context, srv *Server, t transport.Transport, opts ...ServeOption) error {
	h := newRequestHandler(srv, opts...)
	h.logger.Info("session starting", middleware.F("transport", t.Addr()))

	err := t.Serve(ctx, h)
	srv.Close(err)

	if err != nil {
		h.logger.Warn("session ended", middleware.F("error", err.Error()))
	} else {
		h.logger.Info("session ended")
	}
	return err
}

// ServeStdio runs the server on stdin/stdout.
func ServeStdio(ctx context.Context, srv *Server, opts ...ServeOption) error {
	return Serve(ctx, srv, transport.NewStdio(), opts...)
}

// ServeWebSocket runs the server for a single WebSocket client on addr.
func ServeWebSocket(ctx context.Context, srv *Server, addr string, wsOpts []transport.WebSocketOption, opts ...ServeOption) error {
	return Serve(ctx, srv, transport.NewWebSocket(addr, wsOpts...), opts...)
}

// NewHandler returns the JSON-RPC dispatcher for srv, wrapped in the
// configured middleware. It drives srv's lifecycle as requests arrive.
func NewHandler(srv *Server, opts ...ServeOption) transport.Handler {
	return newRequestHandler(srv, opts...)
}
