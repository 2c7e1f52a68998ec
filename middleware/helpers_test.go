package middleware

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/felixgeelhaar/weather-mcp/protocol"
)

type logEntry struct {
	level  string
	msg    string
	fields map[string]any
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) record(level, msg string, fields []Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m := make(map[string]any, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	l.entries = append(l.entries, logEntry{level: level, msg: msg, fields: m})
}

func (l *recordingLogger) Info(msg string, fields ...Field)  { l.record("info", msg, fields) }
func (l *recordingLogger) Error(msg string, fields ...Field) { l.record("error", msg, fields) }
func (l *recordingLogger) Debug(msg string, fields ...Field) { l.record("debug", msg, fields) }
func (l *recordingLogger) Warn(msg string, fields ...Field)  { l.record("warn", msg, fields) }

func (l *recordingLogger) last() logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return logEntry{}
	}
	return l.entries[len(l.entries)-1]
}

func okHandler(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	return protocol.NewResponse(req.ID, "ok"), nil
}

func toolCall(id, tool string) *protocol.Request {
	params, _ := json.Marshal(map[string]any{"name": tool, "arguments": map[string]any{}})
	return &protocol.Request{
		JSONRPC: protocol.JSONRPCVersion,
		ID:      json.RawMessage(id),
		Method:  protocol.MethodToolsCall,
		Params:  params,
	}
}
