// Package tools defines the callable tools the assistant can invoke
// mid-conversation and the registry the orchestrator dispatches through.
package tools

import (
	"context"
	"fmt"

	"github.com/flightlinehq/flightline/internal/llm"
)

// Tool is one callable collaborator. Invoke returns a text result suitable
// for feeding back to the model; argument validation happens before Invoke.
type Tool interface {
	Name() string
	Description() string
	Schema() map[string]any
	Invoke(ctx context.Context, args map[string]any) (string, error)
}

// Registry maps tool names to implementations, preserving registration
// order for stable tool advertisement.
type Registry struct {
	byName map[string]Tool
	order  []string
}

// NewRegistry creates a registry over the given tools.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{byName: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds a tool, replacing any previous tool of the same name.
func (r *Registry) Register(t Tool) {
	if _, exists := r.byName[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.byName[t.Name()] = t
}

// Get returns the named tool.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Defs returns the tool definitions to advertise to the model, in
// registration order.
func (r *Registry) Defs() []llm.ToolDef {
	defs := make([]llm.ToolDef, 0, len(r.order))
	for _, name := range r.order {
		t := r.byName[name]
		defs = append(defs, llm.ToolDef{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Schema(),
		})
	}
	return defs
}

// Dispatch validates args against the named tool's schema and invokes it.
// A missing tool or failed invocation is reported as an error string, not
// an error value: the orchestrator always feeds a ToolResult back to the
// model so the conversation can continue.
func (r *Registry) Dispatch(ctx context.Context, call llm.ToolCall) string {
	t, ok := r.byName[call.Name]
	if !ok {
		return fmt.Sprintf("Error: tool %q is not available.", call.Name)
	}
	if err := validateArgs(t.Schema(), call.Arguments); err != nil {
		return fmt.Sprintf("Error: invalid arguments for %s: %v", call.Name, err)
	}
	result, err := t.Invoke(ctx, call.Arguments)
	if err != nil {
		return fmt.Sprintf("Sorry, I encountered an error: %v", err)
	}
	return result
}

// validateArgs checks args against a JSON-schema object: required keys
// present, declared string properties actually strings. Unknown keys pass
// through so the model can carry extra context harmlessly.
func validateArgs(schema, args map[string]any) error {
	required, _ := schema["required"].([]any)
	for _, req := range required {
		name, _ := req.(string)
		if name == "" {
			continue
		}
		if _, ok := args[name]; !ok {
			return fmt.Errorf("missing required argument %q", name)
		}
	}

	props, _ := schema["properties"].(map[string]any)
	for name, raw := range props {
		spec, _ := raw.(map[string]any)
		if spec == nil {
			continue
		}
		val, ok := args[name]
		if !ok {
			continue
		}
		if spec["type"] == "string" {
			if _, isStr := val.(string); !isStr {
				return fmt.Errorf("argument %q must be a string", name)
			}
		}
	}
	return nil
}

// stringArg extracts a string argument, returning "" when absent.
func stringArg(args map[string]any, name string) string {
	v, _ := args[name].(string)
	return v
}
