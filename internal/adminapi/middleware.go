package adminapi

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger is a Gin middleware that logs every request with method, path,
// status code, and latency, prefixed by the owning replica's address —
// SPEC_FULL.md §3.1's "one terse line per state transition", applied to
// admin requests the same way election/coordinator log their own events.
func Logger(selfAddr string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("replica %s: [%s] %s %s | %d | %s",
			selfAddr,
			c.Request.Method,
			c.Request.URL.Path,
			c.ClientIP(),
			c.Writer.Status(),
			time.Since(start),
		)
	}
}

// Recovery wraps Gin's default recovery, tagging the panic log with the
// owning replica's address so it is distinguishable in a multi-replica log
// stream.
func Recovery(selfAddr string) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("replica %s: PANIC recovered: %v", selfAddr, err)
				c.AbortWithStatusJSON(500, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}
