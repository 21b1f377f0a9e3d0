package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"amparo/internal/metrics"
)

// Metrics records request count, latency and in-flight requests. Routes are labeled
// by their registered pattern so path ids do not explode label cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.HTTPActiveRequests.Inc()
		defer metrics.HTTPActiveRequests.Dec()

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
