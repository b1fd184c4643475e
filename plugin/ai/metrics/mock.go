package metrics

import (
	"context"
	"sync"
	"time"
)

// MockMetricsService records calls for assertions in tests.
type MockMetricsService struct {
	mu        sync.RWMutex
	requests  []requestRecord
	toolCalls []toolCallRecord
}

type requestRecord struct {
	Route   string
	Latency time.Duration
	Success bool
}

type toolCallRecord struct {
	ToolName string
	Latency  time.Duration
	Success  bool
}

// NewMockMetricsService creates a new MockMetricsService.
func NewMockMetricsService() *MockMetricsService {
	return &MockMetricsService{}
}

// RecordRequest records request metrics.
func (m *MockMetricsService) RecordRequest(_ context.Context, route string, latency time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, requestRecord{Route: route, Latency: latency, Success: success})
}

// RecordToolCall records tool call metrics.
func (m *MockMetricsService) RecordToolCall(_ context.Context, toolName string, latency time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toolCalls = append(m.toolCalls, toolCallRecord{ToolName: toolName, Latency: latency, Success: success})
}

// GetStats aggregates the recorded calls.
func (m *MockMetricsService) GetStats(_ context.Context) (*AgentMetrics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	agg := NewAggregator()
	for _, r := range m.requests {
		agg.RecordRequest(r.Route, r.Latency, r.Success)
	}
	for _, c := range m.toolCalls {
		agg.RecordToolCall(c.ToolName, c.Latency, c.Success)
	}
	return agg.GetCurrentStats(), nil
}

// ToolCallCount returns the number of recorded calls for toolName.
func (m *MockMetricsService) ToolCallCount(toolName string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, c := range m.toolCalls {
		if c.ToolName == toolName {
			n++
		}
	}
	return n
}

// RequestRoutes returns the routes of recorded requests in order.
func (m *MockMetricsService) RequestRoutes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	routes := make([]string, len(m.requests))
	for i, r := range m.requests {
		routes[i] = r.Route
	}
	return routes
}

// Clear removes all recorded metrics (for testing).
func (m *MockMetricsService) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.toolCalls = nil
}

// Ensure MockMetricsService implements MetricsService
var _ MetricsService = (*MockMetricsService)(nil)
