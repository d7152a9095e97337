package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/tagcheck/logging"
)

// Context keys set by the analyze handler for the stats middleware.
const (
	ErrorCodeKey = "errorCode"
	PageURLKey   = "pageURL"
)

// Stats tracks visitors for every request, and latency and outcome for
// requests whose handler set PageURLKey.
func Stats(stats *logging.Statistics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		stats.TrackVisitor(c.ClientIP())

		c.Next()

		pageURL, tracked := c.Get(PageURLKey)
		if !tracked {
			return
		}
		u, _ := pageURL.(string)
		stats.TrackAnalysis(u, time.Since(start), c.GetString(ErrorCodeKey))
	}
}
