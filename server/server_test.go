package server

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
)

type stateInput struct {
	State string `json:"state" jsonschema:"required,pattern=^[A-Za-z]{2}$"`
}

type pointInput struct {
	Latitude  float64 `json:"latitude" jsonschema:"required,minimum=-90,maximum=90"`
	Longitude float64 `json:"longitude" jsonschema:"required,minimum=-180,maximum=180"`
}

func TestNewServer(t *testing.T) {
	t.Run("creates server with info", func(t *testing.T) {
		srv := New(Info{Name: "weather", Version: "1.0.0"})

		info := srv.Info()
		if info.Name != "weather" {
			t.Errorf("Name = %q, want %q", info.Name, "weather")
		}
		if info.Version != "1.0.0" {
			t.Errorf("Version = %q, want %q", info.Version, "1.0.0")
		}
		if srv.State() != StateIdle {
			t.Errorf("State = %v, want idle", srv.State())
		}
	})

	t.Run("applies options", func(t *testing.T) {
		srv := New(Info{Name: "weather", Version: "1.0.0"}, WithInstructions("ask about the weather"))
		if got := srv.Instructions(); got != "ask about the weather" {
			t.Errorf("Instructions = %q", got)
		}
	})
}

func TestServer_Tool(t *testing.T) {
	t.Run("registers tool", func(t *testing.T) {
		srv := New(Info{Name: "test", Version: "1.0.0"})
		b := srv.Tool("get_alerts").
			Description("Get weather alerts").
			Handler(func(in stateInput) (string, error) { return in.State, nil })
		if err := b.Err(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		tools := srv.Tools()
		if len(tools) != 1 {
			t.Fatalf("len(Tools) = %d, want 1", len(tools))
		}
		if tools[0].Description != "Get weather alerts" {
			t.Errorf("Description = %q", tools[0].Description)
		}
		if tools[0].InputSchema == nil || tools[0].InputSchema.Type != "object" {
			t.Errorf("InputSchema = %+v, want object schema", tools[0].InputSchema)
		}
	})

	t.Run("lists tools sorted by name", func(t *testing.T) {
		srv := New(Info{Name: "test", Version: "1.0.0"})
		srv.Tool("get_forecast").Handler(func(in pointInput) (string, error) { return "", nil })
		srv.Tool("get_alerts").Handler(func(in stateInput) (string, error) { return "", nil })

		tools := srv.Tools()
		if tools[0].Name != "get_alerts" || tools[1].Name != "get_forecast" {
			t.Errorf("order = %s, %s", tools[0].Name, tools[1].Name)
		}
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		srv := New(Info{Name: "test", Version: "1.0.0"})
		srv.Tool("get_alerts").Handler(func(in stateInput) (string, error) { return "", nil })
		b := srv.Tool("get_alerts").Handler(func(in stateInput) (string, error) { return "", nil })

		if !errors.Is(b.Err(), ErrDuplicateTool) {
			t.Errorf("Err = %v, want ErrDuplicateTool", b.Err())
		}
		if len(srv.Tools()) != 1 {
			t.Errorf("len(Tools) = %d, want 1", len(srv.Tools()))
		}
	})

	t.Run("rejects empty name", func(t *testing.T) {
		srv := New(Info{Name: "test", Version: "1.0.0"})
		b := srv.Tool("  ").Handler(func(in stateInput) (string, error) { return "", nil })
		if b.Err() == nil {
			t.Error("expected error for empty name")
		}
	})
}

func TestServer_Manifest(t *testing.T) {
	srv := New(Info{Name: "weather", Version: "2.0.0"}, WithInstructions("hi"))

	m := srv.Manifest()
	if m.Capabilities.Tools {
		t.Error("expected Tools capability false without tools")
	}

	srv.Tool("get_alerts").Handler(func(in stateInput) (string, error) { return "", nil })
	m = srv.Manifest()
	if !m.Capabilities.Tools {
		t.Error("expected Tools capability true once a tool is registered")
	}
	if m.ProtocolVersion == "" {
		t.Error("expected protocol version")
	}
	if m.Instructions != "hi" {
		t.Errorf("Instructions = %q", m.Instructions)
	}
}

func TestServer_CallTool(t *testing.T) {
	newServer := func(calls *int32) *Server {
		srv := New(Info{Name: "test", Version: "1.0.0"})
		srv.Tool("get_forecast").Handler(func(ctx context.Context, in pointInput) ([]string, error) {
			atomic.AddInt32(calls, 1)
			if in.Latitude == 0 && in.Longitude == 0 {
				return nil, errors.New("upstream unavailable")
			}
			return []string{"Tonight", "Tomorrow"}, nil
		})
		return srv
	}

	t.Run("returns handler output in order", func(t *testing.T) {
		var calls int32
		srv := newServer(&calls)
		res, err := srv.CallTool(context.Background(), "get_forecast",
			json.RawMessage(`{"latitude":38.5816,"longitude":-121.4944}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.IsError {
			t.Fatalf("unexpected error result: %v", res.Texts())
		}
		texts := res.Texts()
		if len(texts) != 2 || texts[0] != "Tonight" || texts[1] != "Tomorrow" {
			t.Errorf("Texts = %v", texts)
		}
	})

	t.Run("unknown tool", func(t *testing.T) {
		var calls int32
		srv := newServer(&calls)
		_, err := srv.CallTool(context.Background(), "get_tides", json.RawMessage(`{}`))
		if !errors.Is(err, ErrToolNotFound) {
			t.Errorf("err = %v, want ErrToolNotFound", err)
		}
	})

	t.Run("missing argument never reaches handler", func(t *testing.T) {
		var calls int32
		srv := newServer(&calls)
		res, err := srv.CallTool(context.Background(), "get_forecast", json.RawMessage(`{"latitude":38.5}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.IsError {
			t.Fatal("expected error result")
		}
		if !strings.Contains(res.Texts()[0], `missing required parameter "longitude"`) {
			t.Errorf("text = %q", res.Texts()[0])
		}
		if atomic.LoadInt32(&calls) != 0 {
			t.Errorf("handler called %d times, want 0", calls)
		}
	})

	t.Run("malformed argument never reaches handler", func(t *testing.T) {
		var calls int32
		srv := newServer(&calls)
		res, _ := srv.CallTool(context.Background(), "get_forecast",
			json.RawMessage(`{"latitude":"north","longitude":-121.4}`))
		if !res.IsError {
			t.Fatal("expected error result")
		}
		if !strings.Contains(res.Texts()[0], `invalid parameter "latitude"`) {
			t.Errorf("text = %q", res.Texts()[0])
		}
		if atomic.LoadInt32(&calls) != 0 {
			t.Errorf("handler called %d times, want 0", calls)
		}
	})

	t.Run("numeric strings are coerced", func(t *testing.T) {
		var calls int32
		srv := newServer(&calls)
		res, _ := srv.CallTool(context.Background(), "get_forecast",
			json.RawMessage(`{"latitude":"38.58","longitude":"-121.49"}`))
		if res.IsError {
			t.Fatalf("unexpected error result: %v", res.Texts())
		}
		if atomic.LoadInt32(&calls) != 1 {
			t.Errorf("handler called %d times, want 1", calls)
		}
	})

	t.Run("handler failure is an error result", func(t *testing.T) {
		var calls int32
		srv := newServer(&calls)
		res, err := srv.CallTool(context.Background(), "get_forecast",
			json.RawMessage(`{"latitude":0,"longitude":0}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.IsError || len(res.Content) != 1 {
			t.Fatalf("result = %+v, want single error segment", res)
		}
		if !strings.Contains(res.Texts()[0], "upstream unavailable") {
			t.Errorf("text = %q", res.Texts()[0])
		}
	})
}
