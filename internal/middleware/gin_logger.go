package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/intakt/hunter/backend/internal/logger"
	"go.uber.org/zap"
)

// GinLogger logs requests through zap instead of gin's default writer.
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			logger.WithStatus(status),
			zap.Duration("latency", latency),
			logger.WithIP(c.ClientIP()),
		}
		if requestID, ok := c.Get("request_id"); ok {
			if id, ok := requestID.(string); ok {
				fields = append(fields, logger.WithRequestID(id))
			}
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			logger.Log.Error("request failed", fields...)
		case status >= 400:
			logger.Log.Warn("request rejected", fields...)
		default:
			logger.Log.Info("request", fields...)
		}
	}
}
