// Package transport carries MCP sessions between one client and a Handler.
//
// Both transports decode one JSON-RPC message at a time, hand it to the
// Handler and write the response before reading the next, so responses
// leave in arrival order. A malformed message is answered with a JSON-RPC
// error and then ends the session with a *ProtocolError.
//
// Stdio reads newline-delimited messages from stdin and writes to stdout:
//
//	err := transport.NewStdio().Serve(ctx, handler)
//
// WebSocket serves exactly one client; a second concurrent client gets
// 409 Conflict:
//
//	err := transport.NewWebSocket("127.0.0.1:8765").Serve(ctx, handler)
package transport
