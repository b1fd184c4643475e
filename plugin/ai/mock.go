package ai

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
)

// MockLLM implements LLMService for testing.
type MockLLM struct {
	mock.Mock

	mu       sync.Mutex
	required int
}

func (m *MockLLM) Chat(ctx context.Context, messages []Message, opts ...CallOption) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

func (m *MockLLM) ChatWithTools(ctx context.Context, messages []Message, tools []ToolDescriptor, opts ...CallOption) (*ChatResponse, error) {
	o := &callOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.requireTool {
		m.mu.Lock()
		m.required++
		m.mu.Unlock()
	}

	args := m.Called(ctx, messages, tools)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ChatResponse), args.Error(1)
}

// RequiredToolCalls returns how many ChatWithTools calls forced tool use.
func (m *MockLLM) RequiredToolCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.required
}

// MockToolCallResponse builds a response requesting a single tool call.
func MockToolCallResponse(id, toolName, args string) *ChatResponse {
	return &ChatResponse{
		ToolCalls: []ToolCall{
			{
				ID:   id,
				Type: "function",
				Function: FunctionCall{
					Name:      toolName,
					Arguments: args,
				},
			},
		},
	}
}

// MockFinalAnswer builds a plain-text response.
func MockFinalAnswer(answer string) *ChatResponse {
	return &ChatResponse{
		Content:   answer,
		ToolCalls: []ToolCall{},
	}
}

var _ LLMService = (*MockLLM)(nil)
