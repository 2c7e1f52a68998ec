// Package testutil provides testing utilities for the weather MCP server:
// an in-memory client, a fake api.weather.gov and a piped stdio session.
//
//	api := testutil.NewWeatherAPI(t)
//	srv := mcp.NewServer(mcp.ServerInfo{Name: "test", Version: "1.0.0"})
//	_ = weather.Register(srv, weather.NewClient(weather.WithBaseURL(api.URL())))
//
//	tc := testutil.NewTestClient(t, srv)
//	res, err := tc.CallTool("get_alerts", map[string]any{"state": "CA"})
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	mcp "github.com/felixgeelhaar/weather-mcp"
	"github.com/felixgeelhaar/weather-mcp/protocol"
	"github.com/felixgeelhaar/weather-mcp/server"
	"github.com/felixgeelhaar/weather-mcp/transport"
)

// TestClient drives a server's dispatcher in memory, without a transport.
type TestClient struct {
	t       testing.TB
	handler transport.Handler

	mu    sync.Mutex
	reqID int64
}

// NewTestClient creates a client for srv and completes the initialize
// handshake.
func NewTestClient(t testing.TB, srv *server.Server, opts ...mcp.ServeOption) *TestClient {
	t.Helper()
	tc := NewTestClientWithHandler(t, mcp.NewHandler(srv, opts...))
	if _, err := tc.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := tc.Notify(protocol.MethodInitialized, nil); err != nil {
		t.Fatalf("initialized notification: %v", err)
	}
	return tc
}

// NewTestClientWithHandler creates a client for an arbitrary handler
// without performing the handshake.
func NewTestClientWithHandler(t testing.TB, handler transport.Handler) *TestClient {
	t.Helper()
	return &TestClient{t: t, handler: handler}
}

func (tc *TestClient) nextID() json.RawMessage {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.reqID++
	return json.RawMessage(fmt.Sprintf("%d", tc.reqID))
}

func encodeParams(params any) (json.RawMessage, error) {
	if params == nil {
		return nil, nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}
	return data, nil
}

// SendRequest sends a request and returns the raw response. A handler
// error is returned as is.
func (tc *TestClient) SendRequest(method string, params any) (*protocol.Response, error) {
	tc.t.Helper()
	data, err := encodeParams(params)
	if err != nil {
		return nil, err
	}
	return tc.handler.HandleRequest(context.Background(), &protocol.Request{
		JSONRPC: protocol.JSONRPCVersion,
		ID:      tc.nextID(),
		Method:  method,
		Params:  data,
	})
}

// Notify sends a notification.
func (tc *TestClient) Notify(method string, params any) error {
	tc.t.Helper()
	data, err := encodeParams(params)
	if err != nil {
		return err
	}
	_, err = tc.handler.HandleRequest(context.Background(), &protocol.Request{
		JSONRPC: protocol.JSONRPCVersion,
		Method:  method,
		Params:  data,
	})
	return err
}

// call sends a request and decodes a successful result into out.
func (tc *TestClient) call(method string, params, out any) error {
	resp, err := tc.SendRequest(method, params)
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return resp.Error
	}
	data, err := json.Marshal(resp.Result)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// Initialize sends an initialize request.
func (tc *TestClient) Initialize() (*protocol.InitializeResult, error) {
	tc.t.Helper()
	var result protocol.InitializeResult
	err := tc.call(protocol.MethodInitialize, protocol.InitializeParams{
		ProtocolVersion: protocol.MCPVersion,
		ClientInfo:      protocol.Implementation{Name: "test-client", Version: "1.0.0"},
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListTools returns the advertised tools.
func (tc *TestClient) ListTools() ([]server.ToolInfo, error) {
	tc.t.Helper()
	var result struct {
		Tools []server.ToolInfo `json:"tools"`
	}
	if err := tc.call(protocol.MethodToolsList, nil, &result); err != nil {
		return nil, err
	}
	return result.Tools, nil
}

// CallTool calls a tool. Protocol errors such as an unknown tool are
// returned as *protocol.Error; tool failures come back as a result with
// IsError set.
func (tc *TestClient) CallTool(name string, args any) (*server.ToolResult, error) {
	tc.t.Helper()
	params := map[string]any{"name": name}
	if args != nil {
		params["arguments"] = args
	}
	var result server.ToolResult
	if err := tc.call(protocol.MethodToolsCall, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Ping sends a ping request.
func (tc *TestClient) Ping() error {
	tc.t.Helper()
	var result map[string]any
	return tc.call(protocol.MethodPing, nil, &result)
}

// AssertToolExists fails the test if name is not advertised.
func (tc *TestClient) AssertToolExists(name string) {
	tc.t.Helper()
	tools, err := tc.ListTools()
	if err != nil {
		tc.t.Fatalf("list tools: %v", err)
	}
	for _, tool := range tools {
		if tool.Name == name {
			return
		}
	}
	tc.t.Errorf("tool %q not found", name)
}
