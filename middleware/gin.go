package middleware

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	ginmiddleware "github.com/oapi-codegen/gin-middleware"

	"github.com/spdeepak/crm-session-guard/internal/error"
	"github.com/spdeepak/crm-session-guard/internal/logging"
)

var IgnorePaths = []string{
	"/live",
	"/ready",
	"/metrics",
}

// GinLogger is the middleware function that uses slog for logging
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		if slices.Contains(IgnorePaths, c.Request.URL.Path) {
			return // ignore
		}

		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime).Milliseconds()

		logEvent := slog.Group("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Int64("latency_ms", latency),
			slog.String("client_ip", c.ClientIP()),
		)

		if len(c.Errors) > 0 {
			slog.ErrorContext(c, "HTTP request failed", slog.String("errors", c.Errors.String()), logEvent)
			return
		}
		slog.InfoContext(c, "HTTP request", logEvent)
	}
}

// CorrelationID reuses the caller's Correlation-Id header or assigns a new one, and
// echoes it on the response.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(logging.CorrelationIdHeader)
		if id == "" {
			id = uuid.NewString()
			c.Request.Header.Set(logging.CorrelationIdHeader, id)
		}
		c.Set(logging.CorrelationIdHeader, id)
		c.Header(logging.CorrelationIdHeader, id)
		c.Next()
	}
}

func RequestValidator(swagger *openapi3.T) gin.HandlerFunc {
	return ginmiddleware.OapiRequestValidatorWithOptions(swagger, &ginmiddleware.Options{
		ErrorHandler: func(c *gin.Context, message string, statusCode int) {
			if statusCode == 0 {
				statusCode = http.StatusBadRequest
			}
			c.AbortWithStatusJSON(statusCode, httperror.NewWithStatus(httperror.InvalidRequestBody, message, statusCode))
		},
		Options: openapi3filter.Options{
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		},
	})
}
