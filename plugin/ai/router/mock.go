package router

import (
	"context"
)

// MockRouter is a mock implementation of Router for testing.
type MockRouter struct {
	// Overrides maps exact input text to a label.
	Overrides map[string]Label
	// Err, when set, is returned alongside the label.
	Err error

	rules *RuleMatcher
}

// NewMockRouter creates a new MockRouter that falls back to keyword rules.
func NewMockRouter() *MockRouter {
	return &MockRouter{
		Overrides: make(map[string]Label),
		rules:     NewRuleMatcher(),
	}
}

// Route returns the override for input, or the rule-matched label.
func (m *MockRouter) Route(_ context.Context, input string) (Label, error) {
	if label, ok := m.Overrides[input]; ok {
		return label, m.Err
	}
	return m.rules.Route(input), m.Err
}

// Ensure MockRouter implements Router
var _ Router = (*MockRouter)(nil)
