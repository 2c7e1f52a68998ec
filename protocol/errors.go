package protocol

import "fmt"

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	// Server-defined codes.
	CodeNotFound    = -32001
	CodeRateLimited = -32003
)

var codeText = map[int]string{
	CodeParseError:     "parse error",
	CodeInvalidRequest: "invalid request",
	CodeMethodNotFound: "method not found",
	CodeInvalidParams:  "invalid params",
	CodeInternalError:  "internal error",
	CodeNotFound:       "not found",
	CodeRateLimited:    "rate limited",
}

// CodeText returns a short description of code, or "server error" for
// codes this package does not define.
func CodeText(code int) string {
	if text, ok := codeText[code]; ok {
		return text
	}
	return "server error"
}

// Error is the error member of a JSON-RPC response. It also implements
// error so handlers can return it directly.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc %s (%d): %s", CodeText(e.Code), e.Code, e.Message)
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

// WithData returns a copy of e carrying data.
func (e *Error) WithData(data any) *Error {
	cp := *e
	cp.Data = data
	return &cp
}

func newError(code int, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// NewParseError reports a line that is not valid JSON.
func NewParseError(msg string) *Error { return newError(CodeParseError, msg) }

// NewInvalidRequest reports valid JSON that is not a JSON-RPC request, or
// a request the server refuses to read.
func NewInvalidRequest(msg string) *Error { return newError(CodeInvalidRequest, msg) }

// NewMethodNotFound reports an unsupported method.
func NewMethodNotFound(msg string) *Error { return newError(CodeMethodNotFound, msg) }

// NewInvalidParams reports params that do not fit the method.
func NewInvalidParams(msg string) *Error { return newError(CodeInvalidParams, msg) }

// NewInternalError reports a server-side failure.
func NewInternalError(msg string) *Error { return newError(CodeInternalError, msg) }

// NewNotFound reports an unknown tool.
func NewNotFound(msg string) *Error { return newError(CodeNotFound, msg) }

// NewRateLimited reports a call rejected by rate limiting.
func NewRateLimited(msg string) *Error { return newError(CodeRateLimited, msg) }
