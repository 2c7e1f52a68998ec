package server

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/felixgeelhaar/weather-mcp/schema"
)

// Tool represents a callable function exposed via MCP.
type Tool struct {
	name        string
	description string
	inputType   reflect.Type
	inputSchema *schema.Schema
	annotations *ToolAnnotations
	handler     reflect.Value
	hasContext  bool
}

// Name returns the tool name.
func (t *Tool) Name() string { return t.name }

// Info returns the tool's listing metadata.
func (t *Tool) Info() ToolInfo {
	return ToolInfo{
		Name:        t.name,
		Description: t.description,
		InputSchema: t.inputSchema,
		Annotations: t.annotations,
	}
}

// ToolBuilder provides a fluent API for building tools.
type ToolBuilder struct {
	tool   *Tool
	server *Server
	err    error
}

// Description sets the tool description.
func (b *ToolBuilder) Description(desc string) *ToolBuilder {
	if b.err != nil {
		return b
	}
	b.tool.description = desc
	return b
}

// Handler sets the tool handler function and registers the tool.
// Handler signature must be one of:
//   - func(input T) (R, error)
//   - func(ctx context.Context, input T) (R, error)
//
// T must be a struct; its json and jsonschema tags define the input schema.
func (b *ToolBuilder) Handler(fn any) *ToolBuilder {
	if b.err != nil {
		return b
	}

	if err := b.validateHandler(fn); err != nil {
		b.err = fmt.Errorf("tool %s: %w", b.tool.name, err)
		return b
	}

	b.tool.handler = reflect.ValueOf(fn)
	if err := b.server.registerTool(b.tool); err != nil {
		b.err = err
	}
	return b
}

// Err returns the first error encountered while building the tool,
// including a duplicate registration.
func (b *ToolBuilder) Err() error {
	return b.err
}

// validateHandler validates the handler function signature.
func (b *ToolBuilder) validateHandler(fn any) error {
	if fn == nil {
		return fmt.Errorf("handler must be a function, got nil")
	}
	fnType := reflect.TypeOf(fn)

	if fnType.Kind() != reflect.Func {
		return fmt.Errorf("handler must be a function, got %s", fnType.Kind())
	}

	numIn := fnType.NumIn()
	if numIn < 1 || numIn > 2 {
		return fmt.Errorf("handler must have 1 or 2 parameters, got %d", numIn)
	}

	var inputParamIdx int
	if numIn == 2 {
		if !fnType.In(0).Implements(reflect.TypeOf((*context.Context)(nil)).Elem()) {
			return fmt.Errorf("first parameter must be context.Context when using 2 parameters")
		}
		b.tool.hasContext = true
		inputParamIdx = 1
	}

	inputType := fnType.In(inputParamIdx)
	if inputType.Kind() == reflect.Ptr {
		return fmt.Errorf("input parameter must be a struct value, got %s", inputType)
	}
	if inputType.Kind() != reflect.Struct {
		return fmt.Errorf("input parameter must be a struct, got %s", inputType.Kind())
	}
	b.tool.inputType = inputType

	inputSchema, err := schema.GenerateFromType(inputType)
	if err != nil {
		return fmt.Errorf("failed to generate input schema: %w", err)
	}
	b.tool.inputSchema = inputSchema

	if fnType.NumOut() != 2 {
		return fmt.Errorf("handler must return (result, error), got %d return values", fnType.NumOut())
	}

	errType := reflect.TypeOf((*error)(nil)).Elem()
	if !fnType.Out(1).Implements(errType) {
		return fmt.Errorf("second return value must be error")
	}

	return nil
}

// Execute validates the raw JSON arguments against the input schema and
// runs the handler. Validation failures are returned as
// schema.ValidationErrors without calling the handler.
func (t *Tool) Execute(ctx context.Context, input json.RawMessage) (*ToolResult, error) {
	args, err := t.inputSchema.Coerce(input)
	if err != nil {
		return nil, err
	}

	inputPtr := reflect.New(t.inputType)
	if err := json.Unmarshal(args, inputPtr.Interface()); err != nil {
		return nil, schema.ValidationErrors{{
			Message: fmt.Sprintf("failed to decode arguments: %v", err),
			Kind:    schema.KindType,
		}}
	}

	var in []reflect.Value
	if t.hasContext {
		in = append(in, reflect.ValueOf(ctx))
	}
	in = append(in, inputPtr.Elem())

	results := t.handler.Call(in)

	if errVal := results[1].Interface(); errVal != nil {
		return nil, errVal.(error)
	}

	return toResult(results[0].Interface())
}

// toResult converts a handler's return value into a ToolResult.
func toResult(v any) (*ToolResult, error) {
	switch r := v.(type) {
	case nil:
		return NewTextResult(), nil
	case *ToolResult:
		if r == nil {
			return NewTextResult(), nil
		}
		return r, nil
	case ToolResult:
		return &r, nil
	case string:
		return NewTextResult(r), nil
	case []string:
		return NewTextResult(r...), nil
	default:
		data, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("encode result: %w", err)
		}
		return NewTextResult(string(data)), nil
	}
}
