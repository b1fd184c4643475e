package metrics

import (
	"sort"
	"sync"
	"time"
)

// maxLatencySamples bounds the per-route latency reservoir.
const maxLatencySamples = 1024

// Aggregator aggregates metrics in memory.
type Aggregator struct {
	mu sync.RWMutex

	routeMetrics map[string]*routeBucket
	toolMetrics  map[string]*toolBucket
}

type routeBucket struct {
	requestCount int64
	successCount int64
	latencySum   int64   // in milliseconds
	latencies    []int64 // most recent samples, in milliseconds
}

type toolBucket struct {
	callCount    int64
	successCount int64
	latencySum   int64 // in milliseconds
}

// NewAggregator creates a new metrics aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		routeMetrics: make(map[string]*routeBucket),
		toolMetrics:  make(map[string]*toolBucket),
	}
}

// RecordRequest records a single routed request.
func (a *Aggregator) RecordRequest(route string, latency time.Duration, success bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	bucket, exists := a.routeMetrics[route]
	if !exists {
		bucket = &routeBucket{latencies: make([]int64, 0, 64)}
		a.routeMetrics[route] = bucket
	}

	bucket.requestCount++
	if success {
		bucket.successCount++
	}
	ms := latency.Milliseconds()
	bucket.latencySum += ms
	if len(bucket.latencies) == maxLatencySamples {
		bucket.latencies = bucket.latencies[1:]
	}
	bucket.latencies = append(bucket.latencies, ms)
}

// RecordToolCall records a single tool call.
func (a *Aggregator) RecordToolCall(toolName string, latency time.Duration, success bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	bucket, exists := a.toolMetrics[toolName]
	if !exists {
		bucket = &toolBucket{}
		a.toolMetrics[toolName] = bucket
	}

	bucket.callCount++
	if success {
		bucket.successCount++
	}
	bucket.latencySum += latency.Milliseconds()
}

// GetCurrentStats returns aggregated stats from memory.
func (a *Aggregator) GetCurrentStats() *AgentMetrics {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := &AgentMetrics{
		RouteStats: make(map[string]*RouteStat),
		ToolStats:  make(map[string]*ToolStat),
	}

	allLatencies := make([]int64, 0)
	for route, bucket := range a.routeMetrics {
		stats.RequestCount += bucket.requestCount
		stats.SuccessCount += bucket.successCount
		allLatencies = append(allLatencies, bucket.latencies...)

		stat := &RouteStat{Count: bucket.requestCount}
		if bucket.requestCount > 0 {
			stat.SuccessRate = float32(bucket.successCount) / float32(bucket.requestCount)
			stat.AvgLatency = time.Duration(bucket.latencySum/bucket.requestCount) * time.Millisecond
		}
		stats.RouteStats[route] = stat
	}

	for name, bucket := range a.toolMetrics {
		stat := &ToolStat{Calls: bucket.callCount}
		if bucket.callCount > 0 {
			stat.SuccessRate = float32(bucket.successCount) / float32(bucket.callCount)
			stat.AvgLatency = time.Duration(bucket.latencySum/bucket.callCount) * time.Millisecond
		}
		stats.ToolStats[name] = stat
	}

	stats.LatencyP50 = time.Duration(percentile(allLatencies, 50)) * time.Millisecond
	stats.LatencyP95 = time.Duration(percentile(allLatencies, 95)) * time.Millisecond

	return stats
}

func percentile(latencies []int64, p int) int64 {
	if len(latencies) == 0 {
		return 0
	}

	sorted := make([]int64, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := (len(sorted) - 1) * p / 100
	return sorted[idx]
}
