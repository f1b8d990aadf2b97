package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/knograph/knograph-backend/internal/platform/logger"
)

// RequestLogger logs one structured line per request.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	requestLog := log.With("middleware", "RequestLogger")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		requestLog.Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"bytes", c.Writer.Size(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}
