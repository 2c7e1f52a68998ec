// Package transport provides MCP transport implementations.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/weather-mcp/protocol"
)

// DefaultMaxMessageSize bounds a single inbound message.
const DefaultMaxMessageSize = 1 << 20

// Handler processes incoming MCP requests.
type Handler interface {
	HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error)
}

// HandlerFunc is an adapter to allow ordinary functions as handlers.
type HandlerFunc func(ctx context.Context, req *protocol.Request) (*protocol.Response, error)

// HandleRequest calls f(ctx, req).
func (f HandlerFunc) HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	return f(ctx, req)
}

// Transport carries one client session.
type Transport interface {
	// Serve handles requests one at a time until the session ends.
	// It returns nil when the client closes the stream, ctx.Err() when
	// ctx is canceled and a *ProtocolError when the session fails.
	Serve(ctx context.Context, handler Handler) error

	// Addr returns the transport's address description.
	Addr() string
}

// ProtocolError reports a failure that ends the session: a malformed
// inbound message, or a failure to read from or write to the peer.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// exchange decodes one inbound message, dispatches it and writes the
// response. A malformed message is still answered with a JSON-RPC error
// before it is reported as a ProtocolError.
func exchange(ctx context.Context, h Handler, data []byte, write func(*protocol.Response) error) error {
	req, perr := protocol.DecodeRequest(data)
	if perr != nil {
		id := json.RawMessage("null")
		if req != nil && len(req.ID) > 0 {
			id = req.ID
		}
		if err := write(protocol.NewErrorResponse(id, perr)); err != nil {
			return &ProtocolError{Op: "write", Err: err}
		}
		return &ProtocolError{Op: "decode", Err: perr}
	}

	resp, err := h.HandleRequest(ctx, req)
	if req.IsNotification() {
		return nil
	}
	if err != nil {
		resp = protocol.NewErrorResponse(req.ID, asProtocolError(err))
	}
	if resp == nil {
		return nil
	}
	if err := write(resp); err != nil {
		return &ProtocolError{Op: "write", Err: err}
	}
	return nil
}

func asProtocolError(err error) *protocol.Error {
	var perr *protocol.Error
	switch {
	case errors.As(err, &perr):
		return perr
	case errors.Is(err, context.DeadlineExceeded):
		return protocol.NewInternalError("request timed out")
	default:
		return protocol.NewInternalError(err.Error())
	}
}
