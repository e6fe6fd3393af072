package middleware

import (
	"strconv"
	"time"

	"github.com/cleberrangel/delivery-board/internal/metrics"
	"github.com/gin-gonic/gin"
)

// MetricsMiddleware tracks request metrics
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		elapsed := time.Since(start)
		latency := elapsed.Milliseconds()

		statusCode := c.Writer.Status()
		success := statusCode < 400

		metrics.Get().IncrementRequests(success, latency)

		// Route template keeps label cardinality bounded
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.Get().TrackEndpoint(path, c.Request.Method, statusCode, latency)
		metrics.ObserveHTTPRequest(c.Request.Method, path, strconv.Itoa(statusCode), elapsed)
	}
}
