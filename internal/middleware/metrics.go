package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edustream-api/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics records duration and count per route template. Requests that match no route share
// one label so scanners cannot grow the series set; scrapes of /metrics are not recorded.
func Metrics(metrics *service.MetricsService) gin.HandlerFunc {
	if metrics == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
