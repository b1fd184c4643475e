package agent

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/alfred/plugin/ai"
	"github.com/hrygo/alfred/plugin/ai/agent/tools"
)

func echoTool() *tools.NativeTool {
	return tools.NewNativeTool(
		"echo",
		"Echo the text and the caller",
		map[string]any{
			"text":    map[string]any{"type": "string"},
			"user_id": map[string]any{"type": "string"},
		},
		[]string{"text", "user_id"},
		func(_ context.Context, args map[string]any) (string, error) {
			return args["user_id"].(string) + ":" + args["text"].(string), nil
		},
	)
}

func call(id, name, args string) ai.ToolCall {
	return ai.ToolCall{ID: id, Type: "function", Function: ai.FunctionCall{Name: name, Arguments: args}}
}

func TestToolRegistry_Register(t *testing.T) {
	r := NewToolRegistry(nil)
	require.NoError(t, r.Register(echoTool()))
	assert.Error(t, r.Register(echoTool()), "duplicate names are rejected")
	assert.Error(t, r.Register(nil))
	assert.Equal(t, []string{"echo"}, r.List())
}

func TestToolRegistry_DescriptorsHideIdentity(t *testing.T) {
	r := NewToolRegistry(nil)
	r.MustRegister(echoTool())

	descriptors := r.Descriptors("echo", "missing")
	require.Len(t, descriptors, 1)

	var schema struct {
		Type       string         `json:"type"`
		Properties map[string]any `json:"properties"`
		Required   []string       `json:"required"`
	}
	require.NoError(t, json.Unmarshal([]byte(descriptors[0].Parameters), &schema))
	assert.Equal(t, "object", schema.Type)
	assert.Contains(t, schema.Properties, "text")
	assert.NotContains(t, schema.Properties, "user_id")
	assert.Equal(t, []string{"text"}, schema.Required)
}

func TestToolRegistry_Invoke(t *testing.T) {
	r := NewToolRegistry(nil)
	r.MustRegister(echoTool())
	id := Identity{UserID: "bruce", SessionID: "s1"}
	ctx := context.Background()

	t.Run("identity is injected over model output", func(t *testing.T) {
		res := r.Invoke(ctx, call("c1", "echo", `{"text":"hi","user_id":"alice"}`), id)
		assert.True(t, res.OK)
		assert.Equal(t, "bruce:hi", res.Content)
		assert.Equal(t, "c1", res.CallID)
	})

	t.Run("unknown tool", func(t *testing.T) {
		res := r.Invoke(ctx, call("c2", "launch_rockets", `{}`), id)
		assert.False(t, res.OK)
		assert.Contains(t, res.Content, "tool not found")
		assert.Equal(t, "Error: tool not found: launch_rockets", res.Message().Content)
		assert.Equal(t, ai.RoleTool, res.Message().Role)
	})

	t.Run("arguments are not JSON", func(t *testing.T) {
		res := r.Invoke(ctx, call("c3", "echo", `text=hi`), id)
		assert.False(t, res.OK)
		assert.Contains(t, res.Content, "invalid arguments")
	})

	t.Run("missing required field", func(t *testing.T) {
		res := r.Invoke(ctx, call("c4", "echo", `{"text":"  "}`), id)
		assert.False(t, res.OK)
		assert.Contains(t, res.Content, `missing required field "text"`)
	})

	t.Run("legacy input binds to the primary argument", func(t *testing.T) {
		res := r.Invoke(ctx, call("c5", "echo", `{"input":"legacy"}`), id)
		assert.True(t, res.OK)
		assert.Equal(t, "bruce:legacy", res.Content)
	})
}

func TestToolRegistry_InvokeTimeout(t *testing.T) {
	r := NewToolRegistry(tools.NewResilientToolExecutor(nil, tools.WithTimeout(20*time.Millisecond)))
	r.MustRegister(tools.NewNativeTool("slow_tool", "never finishes in time", nil, nil,
		func(ctx context.Context, _ map[string]any) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}))

	res := r.Invoke(context.Background(), call("c1", "slow_tool", ""), Identity{UserID: "bruce"})
	assert.False(t, res.OK)
	assert.Equal(t, "slow_tool timed out", res.Content)
}
