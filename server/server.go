package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/felixgeelhaar/weather-mcp/protocol"
	"github.com/felixgeelhaar/weather-mcp/schema"
)

var (
	// ErrToolNotFound is returned by CallTool for names that were never registered.
	ErrToolNotFound = errors.New("tool not found")

	// ErrDuplicateTool is reported by ToolBuilder.Err when a name is registered twice.
	ErrDuplicateTool = errors.New("tool already registered")
)

// Info contains server metadata exposed to clients.
type Info struct {
	Name         string
	Version      string
	Capabilities Capabilities
}

// Capabilities declares what features the server supports.
type Capabilities struct {
	Tools bool

	// ToolsListChanged advertises that the tool list may change at runtime.
	ToolsListChanged bool
}

// Manifest represents the server manifest returned to clients.
type Manifest struct {
	Name            string       `json:"name"`
	Version         string       `json:"version"`
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    Capabilities `json:"capabilities"`
	Instructions    string       `json:"instructions,omitempty"`
}

// ToolInfo represents metadata about a registered tool.
type ToolInfo struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	InputSchema *schema.Schema   `json:"inputSchema"`
	Annotations *ToolAnnotations `json:"annotations,omitempty"`
}

// Option configures a Server.
type Option func(*Server)

// WithInstructions sets usage instructions returned in the initialize result.
func WithInstructions(instructions string) Option {
	return func(s *Server) {
		s.instructions = instructions
	}
}

// Server is the MCP server instance. It owns the tool registry and the
// session lifecycle.
type Server struct {
	mu sync.RWMutex

	info         Info
	instructions string
	tools        map[string]*Tool

	lc lifecycle
}

// New creates a new MCP server with the given info and options.
func New(info Info, opts ...Option) *Server {
	s := &Server{
		info:  info,
		tools: make(map[string]*Tool),
	}
	s.lc.done = make(chan struct{})

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Info returns the server info.
func (s *Server) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// Instructions returns the configured usage instructions.
func (s *Server) Instructions() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.instructions
}

// Tool starts building a new tool with the given name.
func (s *Server) Tool(name string) *ToolBuilder {
	b := &ToolBuilder{
		tool: &Tool{
			name: name,
		},
		server: s,
	}
	if strings.TrimSpace(name) == "" {
		b.err = errors.New("tool name must not be empty")
	}
	return b
}

// Tools returns info about all registered tools, sorted by name.
func (s *Server) Tools() []ToolInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]ToolInfo, 0, len(s.tools))
	for _, t := range s.tools {
		result = append(result, t.Info())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Manifest returns the server manifest for MCP initialization.
func (s *Server) Manifest() Manifest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	caps := s.info.Capabilities
	if len(s.tools) > 0 {
		caps.Tools = true
	}

	return Manifest{
		Name:            s.info.Name,
		Version:         s.info.Version,
		ProtocolVersion: protocol.MCPVersion,
		Capabilities:    caps,
		Instructions:    s.instructions,
	}
}

// registerTool adds a tool to the server. Names are unique.
func (s *Server) registerTool(t *Tool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tools[t.name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, t.name)
	}
	s.tools[t.name] = t
	return nil
}

// GetTool retrieves a tool by name.
func (s *Server) GetTool(name string) (*Tool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tools[name]
	return t, ok
}

// CallTool dispatches a call to the named tool.
//
// An unknown name is the only failure reported as an error. Arguments that
// fail schema validation and handler failures both come back as a ToolResult
// with IsError set; in the validation case the handler is never invoked.
func (s *Server) CallTool(ctx context.Context, name string, args json.RawMessage) (*ToolResult, error) {
	t, ok := s.GetTool(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	result, err := t.Execute(ctx, args)
	if err != nil {
		var verrs schema.ValidationErrors
		if errors.As(err, &verrs) {
			return NewErrorResult(describeValidation(name, verrs)), nil
		}
		return NewErrorResult(fmt.Sprintf("tool %s failed: %v", name, err)), nil
	}
	return result, nil
}

// describeValidation renders validation failures as one message, keeping
// missing parameters distinguishable from malformed ones.
func describeValidation(tool string, verrs schema.ValidationErrors) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "invalid arguments for %s:", tool)
	for _, e := range verrs {
		sb.WriteString("\n- ")
		switch e.Kind {
		case schema.KindMissing:
			fmt.Fprintf(&sb, "missing required parameter %q", e.Path)
		case schema.KindSyntax:
			fmt.Fprintf(&sb, "arguments are not valid JSON: %s", e.Message)
		default:
			if e.Path == "" {
				sb.WriteString(e.Message)
				continue
			}
			fmt.Fprintf(&sb, "invalid parameter %q: %s", e.Path, e.Message)
		}
	}
	return sb.String()
}
