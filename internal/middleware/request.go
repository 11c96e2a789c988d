package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ctxKey int

var correlationIDKey ctxKey

// Attribute keys shared by the RequestLogger and the log.ContextHandler.
const (
	RequestLoggerKeyCorrelationID = "correlationId"
	RequestLoggerKeyUser          = "user"
)

// CorrelationIDHeader is echoed on every response so clients can quote it when reporting errors.
const CorrelationIDHeader = "X-Correlation-ID"

// CorrelationID is a Gin middleware that adds a generated correlation ID to the
// [http.Request.Context].
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		ctx := NewContextWithCorrelationID(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)
		c.Header(CorrelationIDHeader, id)

		c.Next()
	}
}

// NewContextWithCorrelationID returns a new [context.Context] that carries value correlationID.
func NewContextWithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey, correlationID)
}

// GetCorrelationID returns the correlation ID stored in the ctx, if any. It had to have been set by
// the [CorrelationID] middleware before.
func GetCorrelationID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(correlationIDKey).(string)
	return id, ok
}

// RequestLogger logs one line per request once it's served. Upgraded websocket connections are
// logged when the session ends and health probes only at debug level.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestTime := time.Now()

		c.Next()

		responseTime := time.Now()
		status := c.Writer.Status()

		params := make(map[string]string, len(c.Params))
		for _, param := range c.Params {
			params[param.Key] = param.Value
		}
		requestAttribute := slog.Group("request",
			slog.Time("time", requestTime),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("route", c.FullPath()),
			slog.String("query", redactToken(c.Request.URL.Query())),
			slog.Any("params", params),
			slog.String("host", c.Request.Host),
			slog.String("userAgent", c.Request.UserAgent()),
			slog.String("ip", c.ClientIP()),
		)
		responseAttribute := slog.Group("response",
			slog.Time("time", responseTime),
			slog.Duration("latency", responseTime.Sub(requestTime)),
			slog.Int("status", status),
			slog.Int("size", max(c.Writer.Size(), 0)),
		)

		level := slog.LevelInfo
		msg := "Processed HTTP request"
		var errorAttribute slog.Attr
		switch {
		case status == http.StatusSwitchingProtocols:
			msg = "Closed websocket session"
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
			errorAttribute = slog.String("error", c.Errors.String())
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
			errorAttribute = slog.String("error", c.Errors.String())
		case strings.HasSuffix(c.FullPath(), "/health"):
			level = slog.LevelDebug
		}

		logger.LogAttrs(c.Request.Context(), level, msg, errorAttribute, requestAttribute, responseAttribute)
	}
}

// redactToken hides access tokens passed as query parameter, websocket clients authenticate that way.
func redactToken(query url.Values) string {
	if query.Has("token") {
		query.Set("token", "redacted")
	}
	return query.Encode()
}
