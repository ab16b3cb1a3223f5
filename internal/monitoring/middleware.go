package monitoring

import (
	"time"

	"github.com/gin-gonic/gin"
)

// slowRequest is the duration above which a request is logged as slow.
const slowRequest = 2 * time.Second

// MonitoringMiddleware records request metrics and logs each request.
func MonitoringMiddleware(metrics *Metrics, logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.IncrementRequest()

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		metrics.RecordResponseTime(duration)
		metrics.RecordRequestByStatus(statusCode)
		if statusCode >= 400 {
			metrics.IncrementError()
		}

		logger.RequestLogger(method, path, c.ClientIP(), c.GetHeader("User-Agent"), statusCode, duration)

		if statusCode >= 500 {
			for _, err := range c.Errors {
				logger.APIErrorLogger(err.Err, method, path, c.ClientIP(), statusCode)
			}
		}

		if duration > slowRequest {
			logger.Warn("Slow request", "method", method, "path", path, "duration_ms", duration.Milliseconds())
		}
	}
}
