package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func LoggerMiddleware(zapLogger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", RequestID(c)),
		}
		if p, ok := CurrentPrincipal(c); ok {
			fields = append(fields, zap.Uint64("user_id", p.ID))
		}

		switch {
		case c.Writer.Status() >= 500:
			zapLogger.Error("HTTP request", fields...)
		case c.Writer.Status() >= 400:
			zapLogger.Warn("HTTP request", fields...)
		default:
			zapLogger.Info("HTTP request", fields...)
		}
	}
}
