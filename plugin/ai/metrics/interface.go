// Package metrics aggregates per-route and per-tool counters for the assistant.
package metrics

import (
	"context"
	"time"
)

// MetricsService defines the evaluation metrics service interface.
type MetricsService interface {
	// RecordRequest records one routed request.
	RecordRequest(ctx context.Context, route string, latency time.Duration, success bool)

	// RecordToolCall records tool call metrics.
	RecordToolCall(ctx context.Context, toolName string, latency time.Duration, success bool)

	// GetStats retrieves statistics data since process start.
	GetStats(ctx context.Context) (*AgentMetrics, error)
}

// AgentMetrics represents aggregated metrics.
type AgentMetrics struct {
	RequestCount int64                 `json:"request_count"`
	SuccessCount int64                 `json:"success_count"`
	LatencyP50   time.Duration         `json:"latency_p50"`
	LatencyP95   time.Duration         `json:"latency_p95"`
	RouteStats   map[string]*RouteStat `json:"route_stats"`
	ToolStats    map[string]*ToolStat  `json:"tool_stats"`
}

// RouteStat represents statistics for a single route label.
type RouteStat struct {
	Count       int64         `json:"count"`
	SuccessRate float32       `json:"success_rate"`
	AvgLatency  time.Duration `json:"avg_latency"`
}

// ToolStat represents statistics for a single tool.
type ToolStat struct {
	Calls       int64         `json:"calls"`
	SuccessRate float32       `json:"success_rate"`
	AvgLatency  time.Duration `json:"avg_latency"`
}
