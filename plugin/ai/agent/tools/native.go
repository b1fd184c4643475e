package tools

import (
	"context"
)

// NativeTool is a schema-described tool backed by a plain function.
type NativeTool struct {
	name        string
	description string
	params      map[string]any
	required    []string
	execute     func(ctx context.Context, args map[string]any) (string, error)
}

// NewNativeTool creates a new NativeTool. params maps each argument name to its
// JSON Schema fragment.
func NewNativeTool(
	name string,
	description string,
	params map[string]any,
	required []string,
	execute func(ctx context.Context, args map[string]any) (string, error),
) *NativeTool {
	if params == nil {
		params = map[string]any{}
	}
	return &NativeTool{
		name:        name,
		description: description,
		params:      params,
		required:    required,
		execute:     execute,
	}
}

// Name returns the tool name.
func (t *NativeTool) Name() string {
	return t.name
}

// Description returns the tool description.
func (t *NativeTool) Description() string {
	return t.description
}

// Parameters returns the JSON Schema properties.
func (t *NativeTool) Parameters() map[string]any {
	return t.params
}

// Required returns the required argument names.
func (t *NativeTool) Required() []string {
	return t.required
}

// Run executes the tool.
func (t *NativeTool) Run(ctx context.Context, args map[string]any) (string, error) {
	return t.execute(ctx, args)
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func intProp(description string) map[string]any {
	return map[string]any{"type": "integer", "description": description}
}

func boolProp(description string) map[string]any {
	return map[string]any{"type": "boolean", "description": description}
}

func enumProp(description string, values ...string) map[string]any {
	return map[string]any{"type": "string", "description": description, "enum": values}
}
