package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/hrygo/alfred/plugin/ai"
	"github.com/hrygo/alfred/plugin/ai/agent/tools"
	"github.com/hrygo/alfred/plugin/ai/timeout"
)

// Tool is the interface for agent tools.
type Tool interface {
	// Name returns the name of the tool.
	Name() string

	// Description returns a description of what the tool does.
	Description() string

	// Parameters returns the JSON Schema properties of the tool's arguments.
	Parameters() map[string]any

	// Required lists the argument names the model must supply.
	Required() []string

	// Run executes the tool with decoded arguments.
	Run(ctx context.Context, args map[string]any) (string, error)
}

// legacyInputKey is the single argument produced by the TOOL:/INPUT: text protocol.
const legacyInputKey = "input"

// ToolRegistry manages a collection of tools and invokes them on behalf of the executor.
type ToolRegistry struct {
	mu       sync.RWMutex
	tools    map[string]Tool
	executor *tools.ResilientToolExecutor
}

// NewToolRegistry creates a new ToolRegistry. A nil executor uses a default
// ResilientToolExecutor without metrics.
func NewToolRegistry(executor *tools.ResilientToolExecutor) *ToolRegistry {
	if executor == nil {
		executor = tools.NewResilientToolExecutor(nil)
	}
	return &ToolRegistry{
		tools:    make(map[string]Tool),
		executor: executor,
	}
}

// Register adds a tool to the registry.
func (r *ToolRegistry) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("tool cannot be nil")
	}
	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s already registered", name)
	}
	r.tools[name] = tool
	return nil
}

// MustRegister registers every tool and panics on a duplicate.
func (r *ToolRegistry) MustRegister(list ...Tool) {
	for _, t := range list {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
}

// Get retrieves a tool by name.
func (r *ToolRegistry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, exists := r.tools[name]
	return tool, exists
}

// List returns all registered tool names, sorted.
func (r *ToolRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Descriptors returns model-facing descriptors for the named tools, in the
// order given. Unknown names are skipped. Identity arguments are never shown
// to the model.
func (r *ToolRegistry) Descriptors(names ...string) []ai.ToolDescriptor {
	descriptors := make([]ai.ToolDescriptor, 0, len(names))
	for _, name := range names {
		tool, ok := r.Get(name)
		if !ok {
			slog.Warn("descriptor requested for unknown tool", "tool", name)
			continue
		}
		descriptors = append(descriptors, ai.ToolDescriptor{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  schemaJSON(tool),
		})
	}
	return descriptors
}

func isIdentityArg(name string) bool {
	return name == ArgUserID || name == ArgSessionID
}

// schemaJSON composes the object schema for a tool.
func schemaJSON(tool Tool) string {
	props := make(map[string]any, len(tool.Parameters()))
	for k, v := range tool.Parameters() {
		if !isIdentityArg(k) {
			props[k] = v
		}
	}
	required := []string{}
	for _, name := range tool.Required() {
		if !isIdentityArg(name) {
			required = append(required, name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
	b, err := json.Marshal(schema)
	if err != nil {
		slog.Warn("failed to marshal tool parameters, using empty schema",
			"tool", tool.Name(),
			"error", err)
		return `{"type":"object","properties":{}}`
	}
	return string(b)
}

// Invoke runs one tool call and always returns a result. Failures are
// reported as ok=false results rather than errors.
func (r *ToolRegistry) Invoke(ctx context.Context, call ai.ToolCall, id Identity) ToolResult {
	result := ToolResult{CallID: call.ID, ToolName: call.Function.Name}

	tool, ok := r.Get(call.Function.Name)
	if !ok {
		slog.Warn("model requested unknown tool", "tool", call.Function.Name)
		result.Content = fmt.Sprintf("%v: %s", ErrToolNotFound, call.Function.Name)
		return result
	}

	args, err := decodeArguments(tool, call.Function.Arguments)
	if err != nil {
		slog.Warn("invalid tool arguments",
			"tool", call.Function.Name,
			"arguments", ai.Truncate(call.Function.Arguments, timeout.MaxTruncateLength),
			"error", err)
		result.Content = err.Error()
		return result
	}

	// Identity always comes from the request, whatever the model supplied.
	args[ArgUserID] = id.UserID
	args[ArgSessionID] = id.SessionID

	out, err := r.executor.Execute(ctx, tool, args)
	if err != nil {
		slog.Warn("tool call failed",
			"tool", call.Function.Name,
			"user_id", id.UserID,
			"error", err)
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			result.Content = fmt.Sprintf("%s timed out", call.Function.Name)
		case out != "":
			result.Content = out
		default:
			result.Content = err.Error()
		}
		return result
	}

	result.OK = true
	result.Content = out
	return result
}

// decodeArguments parses the JSON arguments, applies the legacy single-input
// binding and checks required fields.
func decodeArguments(tool Tool, raw string) (map[string]any, error) {
	args := map[string]any{}
	if s := strings.TrimSpace(raw); s != "" {
		if err := json.Unmarshal([]byte(s), &args); err != nil {
			return nil, fmt.Errorf("%w: arguments must be a JSON object", ErrInvalidArguments)
		}
		if args == nil {
			args = map[string]any{}
		}
	}

	params := tool.Parameters()
	if v, ok := args[legacyInputKey]; ok && len(args) == 1 {
		if _, declared := params[legacyInputKey]; !declared {
			if primary := primaryParam(tool); primary != "" {
				args = map[string]any{primary: v}
			}
		}
	}

	for _, name := range tool.Required() {
		if isIdentityArg(name) {
			continue
		}
		v, ok := args[name]
		if !ok || v == nil {
			return nil, fmt.Errorf("%w: missing required field %q", ErrInvalidArguments, name)
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("%w: missing required field %q", ErrInvalidArguments, name)
		}
	}
	return args, nil
}

// primaryParam picks the argument a bare text input binds to: the first
// required argument, or the only declared one.
func primaryParam(tool Tool) string {
	for _, name := range tool.Required() {
		if !isIdentityArg(name) {
			return name
		}
	}
	var only string
	for name := range tool.Parameters() {
		if isIdentityArg(name) {
			continue
		}
		if only != "" {
			return ""
		}
		only = name
	}
	return only
}
