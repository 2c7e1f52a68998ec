package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/felixgeelhaar/weather-mcp/middleware"
	"github.com/felixgeelhaar/weather-mcp/protocol"
	"github.com/felixgeelhaar/weather-mcp/server"
)

// requestHandler adapts Server to transport.Handler.
type requestHandler struct {
	srv        *Server
	logger     middleware.Logger
	handleFunc middleware.HandlerFunc
}

func newRequestHandler(srv *Server, opts ...ServeOption) *requestHandler {
	options := &serveOptions{logger: middleware.NopLogger{}}
	for _, opt := range opts {
		opt(options)
	}

	h := &requestHandler{srv: srv, logger: options.logger}
	h.handleFunc = middleware.Chain(options.middleware...)(h.handle)
	return h
}

func (h *requestHandler) HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	return h.handleFunc(ctx, req)
}

func (h *requestHandler) handle(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	switch req.Method {
	case protocol.MethodInitialize:
		return h.handleInitialize(req)
	case protocol.MethodInitialized:
		h.srv.MarkServing()
		return nil, nil
	case protocol.MethodPing:
		h.srv.MarkServing()
		return protocol.NewResponse(req.ID, struct{}{}), nil
	case protocol.MethodToolsList:
		h.srv.MarkServing()
		return h.handleToolsList(req)
	case protocol.MethodToolsCall:
		h.srv.MarkServing()
		return h.handleToolsCall(ctx, req)
	}

	// Notifications never get a response, known or not.
	if req.IsNotification() || strings.HasPrefix(req.Method, "notifications/") {
		return nil, nil
	}
	return nil, protocol.NewMethodNotFound("method not found: " + req.Method)
}

func (h *requestHandler) handleInitialize(req *protocol.Request) (*protocol.Response, error) {
	var params protocol.InitializeParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, protocol.NewInvalidParams("invalid initialize params: " + err.Error())
		}
	}

	manifest := h.srv.Manifest()
	result := protocol.InitializeResult{
		ProtocolVersion: manifest.ProtocolVersion,
		ServerInfo: protocol.Implementation{
			Name:    manifest.Name,
			Version: manifest.Version,
		},
		Instructions: manifest.Instructions,
	}
	if manifest.Capabilities.Tools {
		result.Capabilities.Tools = &protocol.ToolsCapability{
			ListChanged: manifest.Capabilities.ToolsListChanged,
		}
	}

	if h.srv.MarkConnected() {
		h.logger.Info("client connected",
			middleware.F("client", params.ClientInfo.Name),
			middleware.F("client_version", params.ClientInfo.Version),
			middleware.F("protocol_version", params.ProtocolVersion),
		)
	}
	return protocol.NewResponse(req.ID, result), nil
}

func (h *requestHandler) handleToolsList(req *protocol.Request) (*protocol.Response, error) {
	return protocol.NewResponse(req.ID, map[string]any{
		"tools": h.srv.Tools(),
	}), nil
}

func (h *requestHandler) handleToolsCall(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	var params protocol.CallToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, protocol.NewInvalidParams("invalid tools/call params: " + err.Error())
	}
	if params.Name == "" {
		return nil, protocol.NewInvalidParams("tools/call requires a tool name")
	}

	result, err := h.srv.CallTool(ctx, params.Name, params.Arguments)
	if err != nil {
		if errors.Is(err, server.ErrToolNotFound) {
			return nil, protocol.NewNotFound("tool not found: " + params.Name)
		}
		return nil, err
	}
	if result.IsError {
		h.logger.Debug("tool returned error result",
			middleware.F("tool", params.Name),
			middleware.F("text", strings.Join(result.Texts(), "; ")),
		)
	}
	return protocol.NewResponse(req.ID, result), nil
}
