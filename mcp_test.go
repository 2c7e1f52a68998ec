package mcp_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	mcp "github.com/felixgeelhaar/weather-mcp"
	"github.com/felixgeelhaar/weather-mcp/middleware"
	"github.com/felixgeelhaar/weather-mcp/protocol"
	"github.com/felixgeelhaar/weather-mcp/server"
	"github.com/felixgeelhaar/weather-mcp/testutil"
	"github.com/felixgeelhaar/weather-mcp/transport"
)

type cityInput struct {
	City string `json:"city" jsonschema:"required"`
}

func newServer(t *testing.T, opts ...mcp.Option) *mcp.Server {
	t.Helper()
	srv := mcp.NewServer(mcp.ServerInfo{Name: "weather", Version: "1.0.0"}, opts...)
	for _, name := range []string{"zeta", "alpha"} {
		b := srv.Tool(name).Handler(func(in cityInput) (string, error) {
			return "sunny in " + in.City, nil
		})
		if err := b.Err(); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	return srv
}

func request(id, method, params string) *protocol.Request {
	req := &protocol.Request{JSONRPC: protocol.JSONRPCVersion, Method: method}
	if id != "" {
		req.ID = []byte(id)
	}
	if params != "" {
		req.Params = []byte(params)
	}
	return req
}

func protocolCode(t *testing.T, err error) int {
	t.Helper()
	var perr *protocol.Error
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *protocol.Error", err)
	}
	return perr.Code
}

func TestHandler_Initialize(t *testing.T) {
	srv := newServer(t, server.WithInstructions("use get_forecast"))
	tc := testutil.NewTestClientWithHandler(t, mcp.NewHandler(srv))

	result, err := tc.Initialize()
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if result.ProtocolVersion != protocol.MCPVersion {
		t.Errorf("ProtocolVersion = %q", result.ProtocolVersion)
	}
	if result.ServerInfo.Name != "weather" || result.ServerInfo.Version != "1.0.0" {
		t.Errorf("ServerInfo = %+v", result.ServerInfo)
	}
	if result.Instructions != "use get_forecast" {
		t.Errorf("Instructions = %q", result.Instructions)
	}
	if result.Capabilities.Tools == nil {
		t.Error("expected tools capability")
	}
	if srv.State() != server.StateConnected {
		t.Errorf("State = %v, want connected", srv.State())
	}

	if err := tc.Notify(protocol.MethodInitialized, nil); err != nil {
		t.Fatalf("initialized: %v", err)
	}
	if srv.State() != server.StateServing {
		t.Errorf("State = %v, want serving", srv.State())
	}
}

func TestHandler_InitializeWithoutTools(t *testing.T) {
	srv := mcp.NewServer(mcp.ServerInfo{Name: "empty", Version: "0.1.0"})
	tc := testutil.NewTestClientWithHandler(t, mcp.NewHandler(srv))

	result, err := tc.Initialize()
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if result.Capabilities.Tools != nil {
		t.Errorf("Tools capability = %+v, want none", result.Capabilities.Tools)
	}
}

func TestHandler_ToolsListIsSorted(t *testing.T) {
	tc := testutil.NewTestClient(t, newServer(t))

	tools, err := tc.ListTools()
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(tools) != 2 || tools[0].Name != "alpha" || tools[1].Name != "zeta" {
		t.Errorf("tools = %+v", tools)
	}
}

func TestHandler_ToolsCall(t *testing.T) {
	tc := testutil.NewTestClient(t, newServer(t))

	res, err := tc.CallTool("alpha", map[string]any{"city": "Denver"})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if got := res.Texts(); len(got) != 1 || got[0] != "sunny in Denver" {
		t.Errorf("Texts = %q", got)
	}

	res, err = tc.CallTool("alpha", map[string]any{})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !res.IsError || !strings.Contains(res.Texts()[0], `missing required parameter "city"`) {
		t.Errorf("result = %+v", res)
	}
}

func TestHandler_Errors(t *testing.T) {
	h := mcp.NewHandler(newServer(t))
	ctx := context.Background()

	tests := []struct {
		name string
		req  *protocol.Request
		code int
	}{
		{"unknown method", request("1", "resources/list", ""), protocol.CodeMethodNotFound},
		{"unknown tool", request("2", protocol.MethodToolsCall, `{"name":"missing"}`), protocol.CodeNotFound},
		{"empty tool name", request("3", protocol.MethodToolsCall, `{"name":""}`), protocol.CodeInvalidParams},
		{"malformed params", request("4", protocol.MethodToolsCall, `[1,2]`), protocol.CodeInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := h.HandleRequest(ctx, tt.req)
			if resp != nil {
				t.Errorf("resp = %+v, want nil", resp)
			}
			if got := protocolCode(t, err); got != tt.code {
				t.Errorf("code = %d, want %d", got, tt.code)
			}
		})
	}
}

func TestHandler_NotificationsAreNotAnswered(t *testing.T) {
	h := mcp.NewHandler(newServer(t))

	for _, method := range []string{protocol.MethodCancelled, "notifications/unknown", "custom/event"} {
		resp, err := h.HandleRequest(context.Background(), request("", method, ""))
		if resp != nil || err != nil {
			t.Errorf("%s: resp = %+v, err = %v; want nil, nil", method, resp, err)
		}
	}
}

func TestHandler_ServesWithoutHandshake(t *testing.T) {
	srv := newServer(t)
	tc := testutil.NewTestClientWithHandler(t, mcp.NewHandler(srv))

	if err := tc.Ping(); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if srv.State() != server.StateServing {
		t.Errorf("State = %v, want serving", srv.State())
	}
}

func TestWithMiddleware(t *testing.T) {
	var calls atomic.Int32
	count := func(next middleware.HandlerFunc) middleware.HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			calls.Add(1)
			return next(ctx, req)
		}
	}

	tc := testutil.NewTestClient(t, newServer(t), mcp.WithMiddleware(count))
	if err := tc.Ping(); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	// initialize, notifications/initialized, ping
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestServe_ClosesServerOnEOF(t *testing.T) {
	srv := newServer(t)
	s := testutil.NewStdioSession(t, srv)

	resp := s.Call(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","clientInfo":{"name":"c","version":"1"}}}`)
	if resp.Error != nil {
		t.Fatalf("initialize: %v", resp.Error)
	}
	s.CloseInput()

	if err := s.Wait(2 * time.Second); err != nil {
		t.Errorf("Serve = %v, want nil", err)
	}
	select {
	case <-srv.Done():
	default:
		t.Fatal("Done not closed")
	}
	if srv.State() != server.StateClosed || srv.Err() != nil {
		t.Errorf("State = %v, Err = %v", srv.State(), srv.Err())
	}
}

func TestServe_MalformedLineEndsSession(t *testing.T) {
	srv := newServer(t)
	s := testutil.NewStdioSession(t, srv)

	resp := s.Call(`{not json`)
	if resp.Error == nil || resp.Error.Code != protocol.CodeParseError {
		t.Fatalf("resp = %+v, want parse error", resp)
	}

	err := s.Wait(2 * time.Second)
	var perr *transport.ProtocolError
	if !errors.As(err, &perr) || perr.Op != "decode" {
		t.Fatalf("Serve = %v, want decode ProtocolError", err)
	}
	if srv.State() != server.StateClosed || !errors.Is(srv.Err(), err) {
		t.Errorf("State = %v, Err = %v", srv.State(), srv.Err())
	}
}

func TestServe_ContextCanceled(t *testing.T) {
	srv := newServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	pr, pw := io.Pipe()
	defer pw.Close()

	errc := make(chan error, 1)
	go func() {
		errc <- mcp.Serve(ctx, srv, transport.NewStdio(transport.WithStdin(pr), transport.WithStdout(io.Discard)))
	}()
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	if srv.State() != server.StateClosed {
		t.Errorf("State = %v, want closed", srv.State())
	}
}

func TestServe_ToolTimeoutIsAnErrorResult(t *testing.T) {
	srv := newServer(t)
	b := srv.Tool("slow").Handler(func(ctx context.Context, in cityInput) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	if err := b.Err(); err != nil {
		t.Fatalf("register slow: %v", err)
	}
	s := testutil.NewStdioSession(t, srv, mcp.WithMiddleware(middleware.Timeout(20*time.Millisecond)))

	resp := s.Call(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"slow","arguments":{"city":"Boise"}}}`)
	if resp.Error != nil {
		t.Fatalf("error = %+v, want an error result", resp.Error)
	}
	result, ok := resp.Result.(map[string]any)
	if !ok || result["isError"] != true {
		t.Fatalf("result = %+v, want isError", resp.Result)
	}
	content, _ := result["content"].([]any)
	if len(content) != 1 || !strings.Contains(fmt.Sprint(content[0]), "deadline exceeded") {
		t.Errorf("content = %v", content)
	}
}
