package testutil

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	mcp "github.com/felixgeelhaar/weather-mcp"
	"github.com/felixgeelhaar/weather-mcp/protocol"
	"github.com/felixgeelhaar/weather-mcp/server"
)

type echoInput struct {
	Text string `json:"text" jsonschema:"required"`
}

func newEchoServer(t *testing.T) *server.Server {
	t.Helper()
	srv := mcp.NewServer(mcp.ServerInfo{Name: "test-server", Version: "1.0.0"})
	b := srv.Tool("echo").
		Description("Echo the input").
		Handler(func(in echoInput) ([]string, error) {
			return []string{in.Text, strings.ToUpper(in.Text)}, nil
		})
	if err := b.Err(); err != nil {
		t.Fatalf("register echo: %v", err)
	}
	return srv
}

func TestNewTestClient(t *testing.T) {
	srv := newEchoServer(t)
	_ = NewTestClient(t, srv)

	if srv.State() != server.StateServing {
		t.Errorf("State = %v, want serving", srv.State())
	}
}

func TestTestClient_Initialize(t *testing.T) {
	srv := newEchoServer(t)
	tc := NewTestClientWithHandler(t, mcp.NewHandler(srv))

	result, err := tc.Initialize()
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if result.ServerInfo.Name != "test-server" {
		t.Errorf("ServerInfo.Name = %q", result.ServerInfo.Name)
	}
	if result.Capabilities.Tools == nil {
		t.Error("expected tools capability")
	}
	if srv.State() != server.StateConnected {
		t.Errorf("State = %v, want connected", srv.State())
	}
}

func TestTestClient_ListTools(t *testing.T) {
	tc := NewTestClient(t, newEchoServer(t))

	tools, err := tc.ListTools()
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(tools) != 1 || tools[0].Name != "echo" {
		t.Fatalf("tools = %+v", tools)
	}
	if tools[0].InputSchema == nil || tools[0].InputSchema.Type != "object" {
		t.Errorf("InputSchema = %+v", tools[0].InputSchema)
	}
	tc.AssertToolExists("echo")
}

func TestTestClient_CallTool(t *testing.T) {
	tc := NewTestClient(t, newEchoServer(t))

	t.Run("success", func(t *testing.T) {
		res, err := tc.CallTool("echo", map[string]any{"text": "hi"})
		if err != nil {
			t.Fatalf("CallTool: %v", err)
		}
		if res.IsError {
			t.Fatalf("unexpected error result: %v", res.Texts())
		}
		got := res.Texts()
		if len(got) != 2 || got[0] != "hi" || got[1] != "HI" {
			t.Errorf("Texts = %q", got)
		}
	})

	t.Run("missing argument", func(t *testing.T) {
		res, err := tc.CallTool("echo", map[string]any{})
		if err != nil {
			t.Fatalf("CallTool: %v", err)
		}
		if !res.IsError || len(res.Content) != 1 {
			t.Errorf("result = %+v, want single error segment", res)
		}
	})

	t.Run("unknown tool", func(t *testing.T) {
		_, err := tc.CallTool("nope", nil)
		var perr *protocol.Error
		if !errors.As(err, &perr) {
			t.Fatalf("err = %v, want *protocol.Error", err)
		}
		if perr.Code != protocol.CodeNotFound {
			t.Errorf("Code = %d, want %d", perr.Code, protocol.CodeNotFound)
		}
	})
}

func TestTestClient_Ping(t *testing.T) {
	tc := NewTestClient(t, newEchoServer(t))
	if err := tc.Ping(); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestWeatherAPI(t *testing.T) {
	api := NewWeatherAPI(t)
	api.Respond("/ok", http.StatusOK, `{"ok":true}`)

	resp, err := http.Get(api.URL() + "/ok")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != `{"ok":true}` {
		t.Errorf("got %d %s", resp.StatusCode, body)
	}

	resp, err = http.Get(api.URL() + "/missing")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", resp.StatusCode)
	}

	hits := api.Hits()
	if len(hits) != 2 || hits[0] != "/ok" || hits[1] != "/missing" {
		t.Errorf("Hits = %q", hits)
	}
}

func TestStdioSession(t *testing.T) {
	srv := newEchoServer(t)
	s := NewStdioSession(t, srv)

	resp := s.Call(`{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	if resp.Error != nil {
		t.Fatalf("ping error: %v", resp.Error)
	}
	if string(resp.ID) != "1" {
		t.Errorf("ID = %s, want 1", resp.ID)
	}

	s.CloseInput()
	if err := s.Wait(2 * time.Second); err != nil {
		t.Errorf("Wait = %v, want nil", err)
	}
	if srv.State() != server.StateClosed {
		t.Errorf("State = %v, want closed", srv.State())
	}
}
