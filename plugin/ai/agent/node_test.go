package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/alfred/plugin/ai"
	"github.com/hrygo/alfred/plugin/ai/router"
)

func nodeConfig(llm ai.LLMService) NodeConfig {
	return NodeConfig{
		LLM:             llm,
		Now:             func() time.Time { return time.Date(2026, 1, 27, 10, 0, 0, 0, time.UTC) },
		DefaultLocation: "Denver",
	}
}

func TestDefaultNodes(t *testing.T) {
	nodes := DefaultNodes(nodeConfig(&ai.MockLLM{}))
	require.Len(t, nodes, 4)

	labels := make(map[router.Label]Node)
	for _, n := range nodes {
		labels[n.Label()] = n
	}
	assert.False(t, labels[router.LabelGeneral].MustUseTool())
	assert.Empty(t, labels[router.LabelGeneral].Tools())
	for _, l := range []router.Label{router.LabelMemory, router.LabelTask, router.LabelWeather} {
		assert.True(t, labels[l].MustUseTool(), l)
		assert.NotEmpty(t, labels[l].Tools(), l)
	}
}

func TestNodeHandle_SystemInstructionFirst(t *testing.T) {
	llm := &ai.MockLLM{}
	llm.On("ChatWithTools", mock.Anything, mock.MatchedBy(func(msgs []ai.Message) bool {
		return len(msgs) == 2 &&
			msgs[0].Role == ai.RoleSystem &&
			msgs[1].Content == "hello"
	}), mock.Anything).Return(ai.MockFinalAnswer("  Good evening, sir.  "), nil).Once()

	state := NewConversationState("bruce", "s1", ai.UserMessage("hello"))
	reply, err := NewGeneralNode(nodeConfig(llm)).Handle(context.Background(), state, nil)
	require.NoError(t, err)

	assert.False(t, reply.HasToolCalls())
	assert.Equal(t, "Good evening, sir.", reply.Text)
	assert.Equal(t, 0, llm.RequiredToolCalls())
	llm.AssertExpectations(t)
}

func TestNodeHandle_ReasksOnceWithoutToolCall(t *testing.T) {
	llm := &ai.MockLLM{}
	llm.On("ChatWithTools", mock.Anything, mock.Anything, mock.Anything).
		Return(ai.MockFinalAnswer("Sure, I'll remember."), nil).Once()
	llm.On("ChatWithTools", mock.Anything, mock.MatchedBy(func(msgs []ai.Message) bool {
		last := msgs[len(msgs)-1]
		return last.Role == ai.RoleSystem && last.Content == correctiveInstruction
	}), mock.Anything).Return(ai.MockFinalAnswer("Still no tool."), nil).Once()

	toolset := []ai.ToolDescriptor{{Name: "save_memory", Parameters: `{"type":"object"}`}}
	state := NewConversationState("bruce", "s1", ai.UserMessage("remember my cat is Memphis"))
	reply, err := NewMemoryNode(nodeConfig(llm)).Handle(context.Background(), state, toolset)
	require.NoError(t, err)

	// A second refusal is returned as text; the executor treats it as final.
	assert.False(t, reply.HasToolCalls())
	assert.Equal(t, "Still no tool.", reply.Text)
	assert.Equal(t, 2, llm.RequiredToolCalls())
	llm.AssertExpectations(t)
}

func TestNodeHandle_EmptyToolsetIgnoresDirective(t *testing.T) {
	llm := &ai.MockLLM{}
	llm.On("ChatWithTools", mock.Anything, mock.Anything, mock.Anything).
		Return(&ai.ChatResponse{Content: "TOOL: get_tasks\nINPUT: {}"}, nil).Once()

	state := NewConversationState("bruce", "s1", ai.UserMessage("list my tasks"))
	reply, err := NewTaskNode(nodeConfig(llm)).Handle(context.Background(), state, nil)
	require.NoError(t, err)
	assert.False(t, reply.HasToolCalls())
	assert.Equal(t, 0, llm.RequiredToolCalls())
}

func TestNodeHandle_LLMError(t *testing.T) {
	llm := &ai.MockLLM{}
	llm.On("ChatWithTools", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("boom"))

	state := NewConversationState("bruce", "s1", ai.UserMessage("weather?"))
	_, err := NewWeatherNode(nodeConfig(llm)).Handle(context.Background(), state, []ai.ToolDescriptor{{Name: "get_current_weather"}})
	require.Error(t, err)

	var nodeErr *NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "weather", nodeErr.Node)
	assert.Equal(t, "chat", nodeErr.Operation)
	assert.EqualError(t, err, "node weather: chat: boom")
}

func TestInstructions(t *testing.T) {
	p := PromptContext{UserID: "bruce", Now: time.Date(2026, 1, 27, 10, 0, 0, 0, time.UTC), DefaultLocation: "Denver"}

	general := generalInstruction(p)
	assert.Contains(t, general, "Alfred")
	assert.Contains(t, general, "bruce")
	assert.Contains(t, general, "Tuesday, January 27, 2026")

	for _, fn := range []InstructionFunc{memoryInstruction, taskInstruction, weatherInstruction} {
		assert.Contains(t, fn(p), "ALWAYS RUN A TOOL CALL")
	}
	assert.Contains(t, weatherInstruction(p), "Denver")
}
