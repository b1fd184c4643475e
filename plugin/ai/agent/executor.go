package agent

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/alfred/plugin/ai"
	"github.com/hrygo/alfred/plugin/ai/metrics"
	"github.com/hrygo/alfred/plugin/ai/router"
)

// Step budget bounds for the tool loop.
const (
	MinStepBudget     = 4
	MaxStepBudget     = 8
	DefaultStepBudget = 6
)

// Executor runs one conversational turn as a bounded state machine:
// Routing, Dispatched, ToolLoop(n), Terminal.
type Executor struct {
	router   router.Router
	registry *ToolRegistry
	nodes    map[router.Label]Node
	general  Node
	budget   int
	metrics  metrics.MetricsService
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithStepBudget sets the tool-loop ceiling, clamped to [MinStepBudget, MaxStepBudget].
func WithStepBudget(n int) ExecutorOption {
	return func(e *Executor) {
		e.budget = clampBudget(n)
	}
}

// WithMetrics records one request sample per run.
func WithMetrics(m metrics.MetricsService) ExecutorOption {
	return func(e *Executor) {
		e.metrics = m
	}
}

func clampBudget(n int) int {
	switch {
	case n < MinStepBudget:
		return MinStepBudget
	case n > MaxStepBudget:
		return MaxStepBudget
	}
	return n
}

// NewExecutor wires a router, a tool registry and the node set. The node
// bound to router.LabelGeneral is mandatory.
func NewExecutor(r router.Router, registry *ToolRegistry, nodes []Node, opts ...ExecutorOption) (*Executor, error) {
	e := &Executor{
		router:   r,
		registry: registry,
		nodes:    make(map[router.Label]Node, len(nodes)),
		budget:   DefaultStepBudget,
	}
	for _, n := range nodes {
		e.nodes[n.Label()] = n
	}
	general, ok := e.nodes[router.LabelGeneral]
	if !ok {
		return nil, ErrNoGeneralNode
	}
	e.general = general

	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// StepBudget returns the effective tool-loop ceiling.
func (e *Executor) StepBudget() int {
	return e.budget
}

// Run drives state to a final reply. It never returns an error for model or
// tool failures; those become graceful text in the Result.
func (e *Executor) Run(ctx context.Context, state *ConversationState) (*Result, error) {
	if state == nil {
		return nil, errors.New("conversation state is required")
	}
	start := time.Now()

	// Routing
	label := e.route(ctx, state)
	state.SetLabel(label)
	node := e.nodeFor(state.Label)

	// Dispatched
	continuation := node.Tools()
	reply, err := node.Handle(ctx, state, e.registry.Descriptors(continuation...))
	if err != nil {
		slog.Error("node failed",
			"node", node.Name(),
			"user_id", state.UserID,
			"error", err)
		return e.finish(ctx, state, start, &Result{Text: TechnicalDifficultiesText}, false), nil
	}

	res := &Result{}
	lastText := strings.TrimSpace(reply.Text)

	// ToolLoop(n)
	for reply.HasToolCalls() {
		if state.StepCount >= e.budget {
			slog.Warn("step budget exhausted",
				"user_id", state.UserID,
				"label", state.Label,
				"budget", e.budget,
				"pending_calls", len(reply.ToolCalls))
			e.skipAll(state, reply, "step budget exhausted")
			res.Exhausted = true
			break
		}

		if ctx.Err() != nil {
			slog.Warn("request cancelled before tool execution",
				"user_id", state.UserID,
				"step", state.StepCount)
			e.skipAll(state, reply, "request cancelled")
			res.Cancelled = true
			break
		}

		state.Append(assistantCallMessage(reply))
		for i, call := range reply.ToolCalls {
			if ctx.Err() != nil {
				for _, pending := range reply.ToolCalls[i:] {
					state.Append(skippedResult(pending, "request cancelled").Message())
				}
				res.Cancelled = true
				break
			}
			result := e.registry.Invoke(ctx, call, state.Identity())
			state.Append(result.Message())
		}
		state.StepCount++
		if res.Cancelled {
			break
		}

		reply, err = e.general.Handle(ctx, state, e.registry.Descriptors(continuation...))
		if err != nil && ctx.Err() != nil {
			slog.Warn("request cancelled during model call",
				"user_id", state.UserID,
				"step", state.StepCount)
			res.Cancelled = true
			break
		}
		if err != nil {
			slog.Error("general node failed in tool loop",
				"user_id", state.UserID,
				"step", state.StepCount,
				"error", err)
			res.Text = TechnicalDifficultiesText
			return e.finish(ctx, state, start, res, false), nil
		}
		if t := strings.TrimSpace(reply.Text); t != "" {
			lastText = t
		}
	}

	// Terminal
	switch {
	case res.Exhausted || res.Cancelled:
		res.Text = lastText
		if res.Text == "" {
			res.Text = NoResponseText
		}
	case lastText == "":
		res.Text = NoResponseText
	default:
		res.Text = lastText
	}
	state.Append(ai.AssistantMessage(res.Text))
	return e.finish(ctx, state, start, res, !res.Exhausted && !res.Cancelled), nil
}

// route asks the router once. An error is informational and the returned
// label is used; anything outside the label set becomes general.
func (e *Executor) route(ctx context.Context, state *ConversationState) router.Label {
	label, err := e.router.Route(ctx, state.LastUserText())
	if err != nil {
		slog.Warn("routing degraded",
			"user_id", state.UserID,
			"label", label,
			"error", err)
	}
	if !label.IsValid() {
		slog.Warn("router returned unknown label, using general", "label", label)
		return router.LabelGeneral
	}
	return label
}

func (e *Executor) nodeFor(label router.Label) Node {
	if n, ok := e.nodes[label]; ok {
		return n
	}
	slog.Warn("no node bound to label, using general", "label", label)
	return e.general
}

// skipAll records the pending calls of reply together with a skipped result
// for each, so every call request in the transcript has exactly one result.
func (e *Executor) skipAll(state *ConversationState, reply ai.Reply, reason string) {
	state.Append(assistantCallMessage(reply))
	for _, call := range reply.ToolCalls {
		state.Append(skippedResult(call, reason).Message())
	}
}

func (e *Executor) finish(ctx context.Context, state *ConversationState, start time.Time, res *Result, success bool) *Result {
	res.Label = state.Label
	res.Steps = state.StepCount
	if e.metrics != nil {
		e.metrics.RecordRequest(ctx, string(state.Label), time.Since(start), success)
	}
	slog.Info("turn completed",
		"user_id", state.UserID,
		"session_id", state.SessionID,
		"label", state.Label,
		"steps", res.Steps,
		"exhausted", res.Exhausted,
		"cancelled", res.Cancelled,
		"duration", time.Since(start))
	return res
}

func assistantCallMessage(reply ai.Reply) ai.Message {
	return ai.Message{
		Role:      ai.RoleAssistant,
		Content:   reply.Text,
		ToolCalls: reply.ToolCalls,
	}
}
