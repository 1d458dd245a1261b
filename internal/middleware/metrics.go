package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ipu-result-api/internal/service"
)

// Metrics returns middleware that records request metrics. Unmatched routes
// are reported under one label so probes cannot grow the label set.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
