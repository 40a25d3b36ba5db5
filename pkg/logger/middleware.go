package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Middleware returns a Gin middleware function that logs requests
func Middleware(logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header("X-Request-ID", requestID)

		reqLogger := logger.WithRequestID(requestID)

		// Store the logger in both the gin context and the request context
		c.Set("logger", reqLogger)
		c.Request = c.Request.WithContext(NewContext(c.Request.Context(), reqLogger))

		start := time.Now()

		c.Next()

		// auth runs after this middleware, so the user id is only known now
		if v, ok := c.Get("userID"); ok {
			if id, ok := v.(uint); ok {
				reqLogger = reqLogger.WithUserID(id)
			}
		}

		latency := time.Since(start)
		status := c.Writer.Status()
		path := c.Request.URL.Path
		method := c.Request.Method

		reqLogger.LogRequest(method, path, status, latency)

		for _, err := range c.Errors {
			reqLogger.LogError(err.Err, "request error",
				"method", method,
				"path", path,
				"error_type", err.Type,
			)
		}
	}
}

// FromGin returns the request-scoped logger or the global one.
func FromGin(c *gin.Context) *Logger {
	if v, ok := c.Get("logger"); ok {
		if l, ok := v.(*Logger); ok {
			return l
		}
	}
	return GetGlobal()
}
