package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harborcx/agentdesk-backend/internal/observability"
)

// ObserveRequests records request counts and latency per route. The route
// template (not the raw path) keeps cardinality bounded.
func ObserveRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		observability.Current().ObserveAPI(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}
