package metrics

import (
	"context"
	"time"
)

// Service implements the MetricsService interface in memory.
type Service struct {
	aggregator *Aggregator
}

// NewService creates a new metrics service.
func NewService() *Service {
	return &Service{aggregator: NewAggregator()}
}

// RecordRequest records a routed request metric.
func (s *Service) RecordRequest(_ context.Context, route string, latency time.Duration, success bool) {
	s.aggregator.RecordRequest(route, latency, success)
}

// RecordToolCall records a tool call metric.
func (s *Service) RecordToolCall(_ context.Context, toolName string, latency time.Duration, success bool) {
	s.aggregator.RecordToolCall(toolName, latency, success)
}

// GetStats retrieves aggregated statistics.
func (s *Service) GetStats(_ context.Context) (*AgentMetrics, error) {
	return s.aggregator.GetCurrentStats(), nil
}

// Ensure Service implements MetricsService
var _ MetricsService = (*Service)(nil)
