package agent

import (
	"github.com/hrygo/alfred/plugin/ai"
	"github.com/hrygo/alfred/plugin/ai/router"
)

// User-visible fallback replies.
const (
	TechnicalDifficultiesText = "I apologize, but I seem to be experiencing some technical difficulties. How else may I be of assistance?"
	NoResponseText            = "I apologize, but I couldn't generate a proper response."
)

// Identity carries the caller ids injected into tool arguments.
type Identity struct {
	UserID    string
	SessionID string
}

// Argument keys that are always supplied by the executor, never by the model.
const (
	ArgUserID    = "user_id"
	ArgSessionID = "session_id"
)

// ToolResult is the outcome of one tool call.
type ToolResult struct {
	CallID   string `json:"call_id"`
	ToolName string `json:"tool_name"`
	OK       bool   `json:"ok"`
	Content  string `json:"content"`
}

// Message converts the result into a tool-role transcript message.
func (r ToolResult) Message() ai.Message {
	content := r.Content
	if !r.OK {
		content = "Error: " + content
	}
	return ai.ToolResultMessage(r.CallID, r.ToolName, content)
}

// skippedResult answers a call that was never executed.
func skippedResult(call ai.ToolCall, reason string) ToolResult {
	return ToolResult{
		CallID:   call.ID,
		ToolName: call.Function.Name,
		OK:       false,
		Content:  "skipped: " + reason,
	}
}

// Result is the outcome of one executor run.
type Result struct {
	Text  string
	Label router.Label
	// Steps is the number of tool-loop iterations executed.
	Steps int
	// Exhausted is true when the step budget ended the loop with calls pending.
	Exhausted bool
	// Cancelled is true when the caller's context ended the loop.
	Cancelled bool
}
