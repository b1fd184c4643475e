// Package agent runs one conversational turn: route, dispatch to a node, and
// drive the bounded tool loop to a final reply.
package agent

import (
	"log/slog"
	"strings"

	"github.com/hrygo/alfred/plugin/ai"
	"github.com/hrygo/alfred/plugin/ai/router"
)

// ConversationState is the unit of work for one request. It is owned by a
// single in-flight request and discarded when the request ends.
type ConversationState struct {
	// Messages is append-only and in causal order.
	Messages  []ai.Message
	UserID    string
	SessionID string
	// Label is set once by routing.
	Label     router.Label
	StepCount int

	labelSet bool
}

// NormalizeID lower-cases and trims an opaque identifier.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// NewConversationState creates a state seeded with messages.
func NewConversationState(userID, sessionID string, messages ...ai.Message) *ConversationState {
	s := &ConversationState{
		UserID:    NormalizeID(userID),
		SessionID: NormalizeID(sessionID),
		Messages:  make([]ai.Message, 0, len(messages)+8),
	}
	s.Messages = append(s.Messages, messages...)
	return s
}

// Append adds messages to the transcript.
func (s *ConversationState) Append(messages ...ai.Message) {
	s.Messages = append(s.Messages, messages...)
}

// SetLabel records the routing label. Later calls are ignored.
func (s *ConversationState) SetLabel(label router.Label) {
	if s.labelSet {
		slog.Warn("routing label already set, ignoring",
			"current", s.Label,
			"attempted", label)
		return
	}
	s.Label = label
	s.labelSet = true
}

// LastUserText returns the content of the most recent user message.
func (s *ConversationState) LastUserText() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == ai.RoleUser {
			return s.Messages[i].Content
		}
	}
	return ""
}

// Identity returns the ids injected into every tool call.
func (s *ConversationState) Identity() Identity {
	return Identity{UserID: s.UserID, SessionID: s.SessionID}
}
