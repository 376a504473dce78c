package middleware

import (
	"time"

	"github.com/cloud-wave-best-zizon/catalog-service/pkg/metrics"
	"github.com/cloud-wave-best-zizon/catalog-service/pkg/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const requestIDKey = "request_id"

// RequestID reuses an inbound X-Request-ID or mints one, echoes it on the
// response and stores it in the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestid.Header)
		if id == "" {
			id = requestid.New()
		}

		c.Set(requestIDKey, id)
		c.Header(requestid.Header, id)
		c.Request = c.Request.WithContext(requestid.WithContext(c.Request.Context(), id))

		c.Next()
	}
}

// Logger writes one access log line per request, at warn for 4xx and error
// for 5xx.
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		level := zapcore.InfoLevel
		switch {
		case status >= 500:
			level = zapcore.ErrorLevel
		case status >= 400:
			level = zapcore.WarnLevel
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", route(c)),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString(requestIDKey)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		if ce := logger.Check(level, "HTTP request completed"); ce != nil {
			ce.Write(fields...)
		}
	}
}

func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		m.ObserveRequest(c.Request.Method, route(c), c.Writer.Status(), time.Since(start))
	}
}

// route keeps label cardinality bounded by using the matched pattern.
func route(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return "unmatched"
}
