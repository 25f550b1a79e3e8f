package middleware

import (
  "time"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/refap/refap-backend/internal/logger"
)

// RequestLog tags every request with an id and logs method, path, status and
// latency through the structured logger.
func RequestLog(baseLog *logger.Logger) gin.HandlerFunc {
  log := baseLog.With("component", "RequestLog")
  return func(c *gin.Context) {
    requestID := c.GetHeader("X-Request-ID")
    if requestID == "" {
      requestID = uuid.NewString()
    }
    c.Header("X-Request-ID", requestID)
    c.Set("request_id", requestID)

    start := time.Now()
    c.Next()

    log.Info("Request handled",
      "request_id", requestID,
      "method", c.Request.Method,
      "path", c.FullPath(),
      "status", c.Writer.Status(),
      "duration_ms", time.Since(start).Milliseconds(),
    )
  }
}
