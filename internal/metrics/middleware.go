package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
)

// MetricsCollectorInterface defines methods needed by the middleware
type MetricsCollectorInterface interface {
	RecordHTTPRequest(method, path string, status int)
	RecordHTTPDuration(method, endpoint string, duration float64)
}

// MetricsMiddleware creates a Gin middleware that collects HTTP metrics.
// Paths are recorded by route template so unknown URLs share one series.
func MetricsMiddleware(collector MetricsCollectorInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method

		collector.RecordHTTPRequest(method, path, c.Writer.Status())
		collector.RecordHTTPDuration(method, path, time.Since(start).Seconds())
	}
}
