package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"webhookrelay/internal/models"
)

// MetricsCollector interface for collecting Prometheus metrics
type MetricsCollector interface {
	Collect() (string, error)
}

// HealthHandlers contains the index, liveness and metrics handlers
type HealthHandlers struct{}

// NewHealthHandlers creates new health handlers
func NewHealthHandlers() *HealthHandlers {
	return &HealthHandlers{}
}

// Index returns a handler for GET /
func (h *HealthHandlers) Index() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.IndexResponse{Msg: models.IndexMessage})
	}
}

// HealthCheck returns a handler for the liveness endpoint.
// It never checks the exchange.
func (h *HealthHandlers) HealthCheck() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{OK: true})
	}
}

// Metrics returns a handler for Prometheus metrics endpoint
func (h *HealthHandlers) Metrics(collector MetricsCollector) gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics, err := collector.Collect()
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.NewErrorResponse(
				models.ErrCodeMetrics,
				"Failed to collect metrics",
				c.GetString("request_id"),
			))
			return
		}

		c.Data(http.StatusOK, "text/plain; version=0.0.4; charset=utf-8", []byte(metrics))
	}
}
