package agent

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/alfred/plugin/ai"
	"github.com/hrygo/alfred/plugin/ai/agent/tools"
	"github.com/hrygo/alfred/plugin/ai/router"
	"github.com/hrygo/alfred/plugin/ai/timeout"
)

// Node is a specialized handler bound to one routing label and a fixed tool subset.
type Node interface {
	// Name identifies the node in logs and errors.
	Name() string

	// Label is the routing label dispatched to this node.
	Label() router.Label

	// Tools returns the names of the tools this node may call.
	Tools() []string

	// MustUseTool reports whether the node must consult a tool on every dispatch.
	MustUseTool() bool

	// Handle produces the next assistant reply for state. toolset is the
	// descriptor list offered to the model; it may be empty.
	Handle(ctx context.Context, state *ConversationState, toolset []ai.ToolDescriptor) (ai.Reply, error)
}

// NodeConfig holds what every node needs at construction time.
type NodeConfig struct {
	LLM             ai.LLMService
	Now             func() time.Time
	DefaultLocation string
}

func (c NodeConfig) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

type specializedNode struct {
	name        string
	label       router.Label
	tools       []string
	mustUseTool bool
	instruction InstructionFunc
	cfg         NodeConfig
}

var _ Node = (*specializedNode)(nil)

// NewGeneralNode creates the butler node. It answers directly and also
// summarizes tool results for every other node.
func NewGeneralNode(cfg NodeConfig) Node {
	return &specializedNode{
		name:        "general",
		label:       router.LabelGeneral,
		instruction: generalInstruction,
		cfg:         cfg,
	}
}

// NewMemoryNode creates the long-term memory node.
func NewMemoryNode(cfg NodeConfig) Node {
	return &specializedNode{
		name:        "memory",
		label:       router.LabelMemory,
		tools:       []string{tools.ToolRecallMemories, tools.ToolSaveMemory},
		mustUseTool: true,
		instruction: memoryInstruction,
		cfg:         cfg,
	}
}

// NewTaskNode creates the task management node.
func NewTaskNode(cfg NodeConfig) Node {
	return &specializedNode{
		name:  "task",
		label: router.LabelTask,
		tools: []string{
			tools.ToolCreateNewTask,
			tools.ToolGetTasks,
			tools.ToolMarkTaskCompleted,
			tools.ToolParseDate,
			tools.ToolGetCurrentDate,
		},
		mustUseTool: true,
		instruction: taskInstruction,
		cfg:         cfg,
	}
}

// NewWeatherNode creates the weather node.
func NewWeatherNode(cfg NodeConfig) Node {
	return &specializedNode{
		name:        "weather",
		label:       router.LabelWeather,
		tools:       []string{tools.ToolGetCoordinates, tools.ToolCurrentWeather, tools.ToolWeatherForecast},
		mustUseTool: true,
		instruction: weatherInstruction,
		cfg:         cfg,
	}
}

// DefaultNodes returns the fixed node set.
func DefaultNodes(cfg NodeConfig) []Node {
	return []Node{
		NewGeneralNode(cfg),
		NewMemoryNode(cfg),
		NewTaskNode(cfg),
		NewWeatherNode(cfg),
	}
}

func (n *specializedNode) Name() string        { return n.name }
func (n *specializedNode) Label() router.Label { return n.label }
func (n *specializedNode) Tools() []string     { return n.tools }
func (n *specializedNode) MustUseTool() bool   { return n.mustUseTool }

func (n *specializedNode) Handle(ctx context.Context, state *ConversationState, toolset []ai.ToolDescriptor) (ai.Reply, error) {
	system := n.instruction(PromptContext{
		UserID:          state.UserID,
		Now:             n.cfg.now(),
		DefaultLocation: n.cfg.DefaultLocation,
	})
	messages := make([]ai.Message, 0, len(state.Messages)+2)
	messages = append(messages, ai.SystemPrompt(system))
	messages = append(messages, state.Messages...)

	requireTool := n.mustUseTool && len(toolset) > 0
	reply, err := n.call(ctx, messages, toolset, requireTool)
	if err != nil {
		return ai.Reply{}, err
	}

	if requireTool && !reply.HasToolCalls() {
		slog.Warn("node answered without a tool call, re-asking",
			"node", n.name,
			"user_id", state.UserID,
			"reply", ai.Truncate(reply.Text, timeout.MaxTruncateLength))
		messages = append(messages, ai.SystemPrompt(correctiveInstruction))
		reply, err = n.call(ctx, messages, toolset, true)
		if err != nil {
			return ai.Reply{}, err
		}
	}
	return reply, nil
}

func (n *specializedNode) call(ctx context.Context, messages []ai.Message, toolset []ai.ToolDescriptor, requireTool bool) (ai.Reply, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout.LLMCallTimeout)
	defer cancel()

	var opts []ai.CallOption
	if requireTool {
		opts = append(opts, ai.WithToolChoiceRequired())
	}

	resp, err := n.cfg.LLM.ChatWithTools(callCtx, messages, toolset, opts...)
	if err != nil {
		return ai.Reply{}, &NodeError{Node: n.name, Operation: "chat", Err: err}
	}
	if len(toolset) == 0 {
		// Nothing was offered, so any directive in the text is not a call.
		return ai.TextReply(strings.TrimSpace(resp.Content)), nil
	}
	return ai.NewReply(resp), nil
}
