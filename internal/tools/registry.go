// Package tools holds the MCP tool dispatch table.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrUnknownTool is returned for names outside the registry.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrNotConfigured is returned when a tool's upstream credentials are missing.
	ErrNotConfigured = errors.New("tool is not configured")
)

// MissingParameterError reports a required payload key that is absent or empty.
type MissingParameterError struct {
	Name string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("Missing '%s' parameter", e.Name)
}

// Param describes one tool argument.
type Param struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Descriptor advertises a tool to MCP clients.
type Descriptor struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Params      map[string]Param `json:"params"`
}

// Invoker runs a tool with validated string arguments.
type Invoker func(ctx context.Context, args map[string]string) (json.RawMessage, error)

// Tool is one dispatch table entry.
type Tool struct {
	Descriptor
	Required []string
	Invoke   Invoker
}

// CallObserver is notified after every invocation of a known tool.
type CallObserver interface {
	RecordToolCall(tool string, ok bool)
}

// Registry is an ordered, immutable set of tools.
type Registry struct {
	tools    []Tool
	index    map[string]int
	observer CallObserver
}

// Option configures the Registry during construction.
type Option func(*Registry)

// WithObserver reports each call to o.
func WithObserver(o CallObserver) Option {
	return func(r *Registry) {
		r.observer = o
	}
}

// NewRegistry builds a Registry. Later tools with a duplicate name replace earlier ones.
func NewRegistry(tools []Tool, opts ...Option) *Registry {
	r := &Registry{index: make(map[string]int, len(tools))}
	for _, tool := range tools {
		if i, ok := r.index[tool.Name]; ok {
			r.tools[i] = tool
			continue
		}
		r.index[tool.Name] = len(r.tools)
		r.tools = append(r.tools, tool)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List returns the descriptors in registration order.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.tools))
	for _, tool := range r.tools {
		out = append(out, tool.Descriptor)
	}
	return out
}

// Call validates payload against the tool's required keys and invokes it.
func (r *Registry) Call(ctx context.Context, name string, payload map[string]any) (json.RawMessage, error) {
	i, ok := r.index[name]
	if !ok {
		return nil, fmt.Errorf("%w '%s'", ErrUnknownTool, name)
	}
	tool := r.tools[i]

	args := make(map[string]string, len(tool.Required))
	for _, key := range tool.Required {
		value, ok := argument(payload[key])
		if !ok {
			return nil, &MissingParameterError{Name: key}
		}
		args[key] = value
	}

	result, err := tool.Invoke(ctx, args)
	if r.observer != nil {
		r.observer.RecordToolCall(name, err == nil)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return result, nil
}

// argument renders a payload value as a tool argument. Absent and falsy values
// (null, "", 0, false, empty list or object) report false.
func argument(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, v != ""
	case bool:
		return "true", v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), v != 0
	case int:
		return strconv.Itoa(v), v != 0
	case json.Number:
		f, err := v.Float64()
		return v.String(), err != nil || f != 0
	case []any:
		if len(v) == 0 {
			return "", false
		}
	case map[string]any:
		if len(v) == 0 {
			return "", false
		}
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return "", false
	}
	return string(encoded), true
}
