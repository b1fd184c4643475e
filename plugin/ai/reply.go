package ai

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/lithammer/shortuuid/v4"
)

// ReplyKind discriminates model output.
type ReplyKind int

const (
	// ReplyText is a plain-text answer.
	ReplyText ReplyKind = iota
	// ReplyToolCalls requests one or more tool invocations.
	ReplyToolCalls
)

func (k ReplyKind) String() string {
	if k == ReplyToolCalls {
		return "tool_call"
	}
	return "text"
}

// Reply is the normalized model output consumed by the executor.
// Text may be non-empty alongside tool calls; it is kept as a fallback answer.
type Reply struct {
	Kind      ReplyKind
	Text      string
	ToolCalls []ToolCall
}

// HasToolCalls reports whether the reply requests tools.
func (r Reply) HasToolCalls() bool {
	return r.Kind == ReplyToolCalls && len(r.ToolCalls) > 0
}

// TextReply builds a plain-text reply.
func TextReply(text string) Reply {
	return Reply{Kind: ReplyText, Text: text}
}

// NewReply normalizes a ChatResponse. Structured tool calls win; otherwise the
// legacy "TOOL:/INPUT:" text protocol is recognized for clients that cannot
// emit structured calls.
func NewReply(resp *ChatResponse) Reply {
	if resp == nil {
		return TextReply("")
	}
	if len(resp.ToolCalls) > 0 {
		calls := make([]ToolCall, len(resp.ToolCalls))
		for i, tc := range resp.ToolCalls {
			if tc.ID == "" {
				tc.ID = newCallID()
			}
			if tc.Type == "" {
				tc.Type = "function"
			}
			calls[i] = tc
		}
		return Reply{Kind: ReplyToolCalls, Text: resp.Content, ToolCalls: calls}
	}
	if call, ok := ParseToolDirective(resp.Content); ok {
		return Reply{Kind: ReplyToolCalls, ToolCalls: []ToolCall{call}}
	}
	return TextReply(strings.TrimSpace(resp.Content))
}

var toolDirectivePattern = regexp.MustCompile(`(?is)TOOL:\s*([A-Za-z0-9_\-]+)\s*INPUT:\s*(.*)$`)

// ParseToolDirective parses the legacy text protocol:
//
//	TOOL: get_current_weather
//	INPUT: {"location": "Denver"}
//
// A non-JSON input is wrapped as {"input": "<text>"}.
func ParseToolDirective(content string) (ToolCall, bool) {
	m := toolDirectivePattern.FindStringSubmatch(strings.TrimSpace(content))
	if m == nil {
		return ToolCall{}, false
	}
	name := m[1]
	input := strings.TrimSpace(m[2])
	input = strings.TrimSuffix(strings.TrimPrefix(input, "```json"), "```")
	input = strings.TrimSpace(input)

	var args string
	var obj map[string]any
	if err := json.Unmarshal([]byte(input), &obj); err == nil {
		args = input
	} else {
		b, _ := json.Marshal(map[string]string{"input": strings.Trim(input, `"'`)})
		args = string(b)
	}

	return ToolCall{
		ID:       newCallID(),
		Type:     "function",
		Function: FunctionCall{Name: name, Arguments: args},
	}, true
}

func newCallID() string {
	return "call_" + shortuuid.New()
}
