package handler

import (
	"net/http"
	"time"

	"github.com/cleberrangel/delivery-board/internal/metrics"
	"github.com/cleberrangel/delivery-board/internal/service"
	"github.com/cleberrangel/delivery-board/internal/websocket"
	"github.com/gin-gonic/gin"
)

// maxHeapMB limite de heap usado nos health checks
const maxHeapMB = 512

// HealthHandler handles health check and metrics endpoints
type HealthHandler struct {
	board     *service.Board
	wsHub     *websocket.Hub
	version   string
	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(board *service.Board, wsHub *websocket.Hub, version string) *HealthHandler {
	return &HealthHandler{
		board:     board,
		wsHub:     wsHub,
		version:   version,
		startTime: time.Now(),
	}
}

// LivenessCheck returns basic liveness status
// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health/live [get]
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// ReadinessCheck is ready once the first feed load has finished, successfully or not
// @Summary Readiness check
// @Tags health
// @Produce json
// @Success 200 {object} metrics.HealthCheck
// @Failure 503 {object} metrics.HealthCheck
// @Router /health/ready [get]
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	components := map[string]metrics.HealthStatus{
		"board":  h.checkBoardHealth(),
		"memory": metrics.CheckMemoryHealth(maxHeapMB),
	}
	h.respond(c, components)
}

// DetailedHealthCheck returns comprehensive health information
// @Summary Detailed health check
// @Tags health
// @Produce json
// @Success 200 {object} metrics.HealthCheck
// @Failure 503 {object} metrics.HealthCheck
// @Router /health [get]
func (h *HealthHandler) DetailedHealthCheck(c *gin.Context) {
	components := map[string]metrics.HealthStatus{
		"board":  h.checkBoardHealth(),
		"feed":   metrics.Get().CheckFeedHealth(),
		"memory": metrics.CheckMemoryHealth(maxHeapMB),
	}
	if h.wsHub != nil {
		components["websocket"] = h.checkWebSocketHealth()
	}
	h.respond(c, components)
}

func (h *HealthHandler) respond(c *gin.Context, components map[string]metrics.HealthStatus) {
	overallStatus := metrics.DetermineOverallStatus(components)

	healthCheck := metrics.HealthCheck{
		Status:     overallStatus,
		Version:    h.version,
		Uptime:     time.Since(h.startTime).String(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Components: components,
	}

	statusCode := http.StatusOK
	if overallStatus == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, healthCheck)
}

// checkBoardHealth: unhealthy until the first load finishes, degraded when the last load failed
func (h *HealthHandler) checkBoardHealth() metrics.HealthStatus {
	st := h.board.Status()

	switch {
	case !st.Mounted:
		return metrics.HealthStatus{Status: "unhealthy", Message: "board not mounted"}
	case !st.Ready:
		return metrics.HealthStatus{Status: "unhealthy", Message: "first load in progress"}
	case st.LastError != nil:
		return metrics.HealthStatus{Status: "degraded", Message: st.LastError.Error()}
	default:
		return metrics.HealthStatus{Status: "healthy"}
	}
}

func (h *HealthHandler) checkWebSocketHealth() metrics.HealthStatus {
	select {
	case <-h.wsHub.Done():
		return metrics.HealthStatus{
			Status:  "unhealthy",
			Message: "WebSocket hub stopped",
		}
	default:
		return metrics.HealthStatus{Status: "healthy"}
	}
}

// GetMetrics returns application metrics
// @Summary Get application metrics
// @Tags metrics
// @Produce json
// @Success 200 {object} metrics.MetricsSnapshot
// @Router /metrics [get]
func (h *HealthHandler) GetMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, metrics.Get().Snapshot())
}

// GetEndpointMetrics returns metrics for specific endpoints
// @Summary Get endpoint metrics
// @Tags metrics
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /metrics/endpoints [get]
func (h *HealthHandler) GetEndpointMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"endpoints": metrics.Get().Snapshot().Endpoints,
	})
}
