// Package server implements the tool registry and session lifecycle of an
// MCP server. Transports and JSON-RPC dispatch live in the root mcp package.
//
// # Tools
//
// Tools are registered with the fluent builder. The handler's input struct
// defines the input schema, and arguments are validated against it before
// the handler runs:
//
//	type AlertsInput struct {
//	    State string `json:"state" jsonschema:"required,pattern=^[A-Za-z]{2}$"`
//	}
//
//	b := srv.Tool("get_alerts").
//	    Description("Get weather alerts for a US state").
//	    ReadOnly().
//	    Handler(func(ctx context.Context, in AlertsInput) ([]string, error) {
//	        return client.GetAlerts(ctx, in.State)
//	    })
//	if err := b.Err(); err != nil {
//	    // bad handler signature or duplicate name
//	}
//
// CallTool dispatches by name. Invalid arguments and handler failures are
// returned as a ToolResult with IsError set, so one failing call never
// affects the session.
//
// # Lifecycle
//
// A Server moves through Idle, Connected, Serving and Closed. Done is closed
// on the transition to Closed:
//
//	go mcp.ServeStdio(ctx, srv)
//	<-srv.Done()
package server
