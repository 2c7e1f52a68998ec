// Package protocol defines the MCP JSON-RPC 2.0 message types and error codes.
//
// Messages are exchanged one JSON object per frame. DecodeRequest turns a
// frame into a Request and classifies malformed input:
//
//	req, perr := protocol.DecodeRequest(line)
//	if perr != nil && perr.Code == protocol.CodeParseError {
//	    // not JSON at all
//	}
//
// # Error Codes
//
// Standard JSON-RPC 2.0 error codes are defined as constants:
//
//	CodeParseError     = -32700  // Invalid JSON
//	CodeInvalidRequest = -32600  // Invalid Request object
//	CodeMethodNotFound = -32601  // Method not found
//	CodeInvalidParams  = -32602  // Invalid method parameters
//	CodeInternalError  = -32603  // Internal server error
//
// plus the MCP-specific CodeNotFound (unknown tool) and CodeRateLimited.
//
// # Method Constants
//
//	MethodInitialize  = "initialize"
//	MethodInitialized = "notifications/initialized"
//	MethodToolsList   = "tools/list"
//	MethodToolsCall   = "tools/call"
//	MethodPing        = "ping"
package protocol
