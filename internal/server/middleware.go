package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// requestLogger assigns each inbound request a short correlation ID and
// logs its outcome.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()[0:8]
		c.Set("request_id", requestID)
		c.Header("X-Request-Id", requestID)

		start := time.Now()
		c.Next()

		if s.log != nil {
			s.log.WithField("request_id", requestID).
				WithField("status", c.Writer.Status()).
				WithField("latency", time.Since(start)).
				WithField("path", c.Request.URL.Path).
				Info("request completed")
		}
	}
}
