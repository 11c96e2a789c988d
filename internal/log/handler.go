// Package log provides slog handlers.
package log

import (
	"context"
	"log/slog"

	"github.com/gatherly/gatherly/internal/middleware"
	"github.com/gatherly/gatherly/pkg/model"
)

// ContextHandler adds values from the [context.Context] to the [slog.Record]. It uses the same
// attribute keys as the Gin [middleware.RequestLogger] so the request log line and the lines logged
// while serving the request can be correlated. Websocket and background work log without a request
// so none of the keys are required.
type ContextHandler struct {
	slog.Handler
}

func New(handler slog.Handler) *ContextHandler {
	return &ContextHandler{
		Handler: handler,
	}
}

func (rh *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return rh.Handler.Enabled(ctx, level)
}

func (rh *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := middleware.GetCorrelationID(ctx); ok {
		r.AddAttrs(slog.String(middleware.RequestLoggerKeyCorrelationID, id))
	}

	// public routes do not have a user in the context
	if user, ok := model.GetUserFromContext(ctx); ok {
		r.AddAttrs(slog.String(middleware.RequestLoggerKeyUser, user.ID.Hex()))
	}

	return rh.Handler.Handle(ctx, r)
}

func (rh *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return New(rh.Handler.WithAttrs(attrs))
}

func (rh *ContextHandler) WithGroup(name string) slog.Handler {
	return New(rh.Handler.WithGroup(name))
}
