package v1

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/alfred/server/runner/background"
)

// RouteOverview is one routing label's share of traffic.
type RouteOverview struct {
	Route        string  `json:"route"`
	Count        int64   `json:"count"`
	SuccessRate  float32 `json:"success_rate"`
	AvgLatencyMs int64   `json:"avg_latency_ms"`
}

// ToolOverview is one tool's call statistics.
type ToolOverview struct {
	Tool         string  `json:"tool"`
	Calls        int64   `json:"calls"`
	SuccessRate  float32 `json:"success_rate"`
	AvgLatencyMs int64   `json:"avg_latency_ms"`
}

// MetricsOverviewResponse represents the overview response of system metrics
// since process start.
type MetricsOverviewResponse struct {
	TotalRequests int64            `json:"total_requests"`
	SuccessRate   float64          `json:"success_rate"`
	P50LatencyMs  int64            `json:"p50_latency_ms"`
	P95LatencyMs  int64            `json:"p95_latency_ms"`
	ErrorCount    int64            `json:"error_count"`
	Routes        []RouteOverview  `json:"routes"`
	Tools         []ToolOverview   `json:"tools"`
	Background    background.Stats `json:"background"`
}

// GetMetricsOverview returns the system metrics overview
// GET /api/v1/system/metrics/overview
func (s *APIV1Service) GetMetricsOverview(c echo.Context) error {
	resp := MetricsOverviewResponse{
		Routes: []RouteOverview{},
		Tools:  []ToolOverview{},
	}
	if s.Pool != nil {
		resp.Background = s.Pool.Stats()
	}
	if s.Metrics == nil {
		return c.JSON(http.StatusOK, resp)
	}

	stats, err := s.Metrics.GetStats(c.Request().Context())
	if err != nil {
		slog.Warn("failed to load metrics", "error", err)
		return writeError(c, err)
	}

	resp.TotalRequests = stats.RequestCount
	resp.ErrorCount = stats.RequestCount - stats.SuccessCount
	if stats.RequestCount > 0 {
		resp.SuccessRate = float64(stats.SuccessCount) / float64(stats.RequestCount)
	}
	resp.P50LatencyMs = stats.LatencyP50.Milliseconds()
	resp.P95LatencyMs = stats.LatencyP95.Milliseconds()

	for route, r := range stats.RouteStats {
		resp.Routes = append(resp.Routes, RouteOverview{
			Route:        route,
			Count:        r.Count,
			SuccessRate:  r.SuccessRate,
			AvgLatencyMs: r.AvgLatency.Milliseconds(),
		})
	}
	sort.Slice(resp.Routes, func(i, j int) bool { return resp.Routes[i].Route < resp.Routes[j].Route })

	for tool, t := range stats.ToolStats {
		resp.Tools = append(resp.Tools, ToolOverview{
			Tool:         tool,
			Calls:        t.Calls,
			SuccessRate:  t.SuccessRate,
			AvgLatencyMs: t.AvgLatency.Milliseconds(),
		})
	}
	sort.Slice(resp.Tools, func(i, j int) bool { return resp.Tools[i].Tool < resp.Tools[j].Tool })

	return c.JSON(http.StatusOK, resp)
}
