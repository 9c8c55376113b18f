package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/veida/server/internal/observability"
)

// MetricsOverviewResponse represents the overview response of system metrics
type MetricsOverviewResponse struct {
	TotalRequests int64                                            `json:"total_requests"`
	SuccessRate   float64                                          `json:"success_rate"`
	AvgLatencyMs  int64                                            `json:"avg_latency_ms"`
	P50LatencyMs  int64                                            `json:"p50_latency_ms"`
	P95LatencyMs  int64                                            `json:"p95_latency_ms"`
	ErrorCount    int64                                            `json:"error_count"`
	SampleSize    int                                              `json:"sample_size"`
	Routes        map[string]*observability.RouteMetricsSnapshot `json:"routes"`
}

// GetMetricsOverview returns request metrics since the process started.
// Latency percentiles cover the most recent requests only.
// GET /api/v1/system/metrics/overview
func (s *APIV1Service) GetMetricsOverview(c echo.Context) error {
	if s.Metrics == nil {
		return c.JSON(http.StatusOK, MetricsOverviewResponse{SuccessRate: 100, Routes: map[string]*observability.RouteMetricsSnapshot{}})
	}

	snapshot := s.Metrics.Snapshot()
	return c.JSON(http.StatusOK, MetricsOverviewResponse{
		TotalRequests: snapshot.RequestTotal,
		SuccessRate:   snapshot.SuccessRate(),
		AvgLatencyMs:  snapshot.Average.Milliseconds(),
		P50LatencyMs:  snapshot.P50.Milliseconds(),
		P95LatencyMs:  snapshot.P95.Milliseconds(),
		ErrorCount:    snapshot.RequestFailed,
		SampleSize:    snapshot.DurationCount,
		Routes:        snapshot.RouteMetrics,
	})
}
