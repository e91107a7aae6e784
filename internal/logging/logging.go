// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging configures structured logging and carries request ids
// through contexts into log records.
package logging

import (
	"context"
	"io"
	"log/slog"
)

// Options selects the log format and verbosity.
type Options struct {
	JSON  bool
	Debug bool
}

// Setup builds the process logger, installs it as the slog default and
// returns it. Records carry the request id of their context, if any.
func Setup(w io.Writer, opts Options) *slog.Logger {
	ho := &slog.HandlerOptions{Level: slog.LevelInfo}
	if opts.Debug {
		ho.Level = slog.LevelDebug
		ho.AddSource = true
	}

	var h slog.Handler = slog.NewTextHandler(w, ho)
	if opts.JSON {
		h = slog.NewJSONHandler(w, ho)
	}

	lg := slog.New(Handler{Handler: h})
	slog.SetDefault(lg)
	return lg
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

type requestIDKey struct{}

// ContextWithRequestID returns a new context with the given request ID.
func ContextWithRequestID(parent context.Context, reqID string) context.Context {
	return context.WithValue(parent, requestIDKey{}, reqID)
}

// RequestIDFromContext returns request id from context.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(requestIDKey{}).(string)
	return v, ok
}

// Handler adds the context's request id to every record.
type Handler struct {
	slog.Handler
}

// Handle implements slog.Handler.
func (h Handler) Handle(ctx context.Context, rec slog.Record) error {
	if reqID, ok := RequestIDFromContext(ctx); ok {
		rec.AddAttrs(slog.String("request_id", reqID))
	}
	return h.Handler.Handle(ctx, rec)
}

// WithGroup returns a new Handler with the given group.
func (h Handler) WithGroup(group string) slog.Handler {
	return Handler{Handler: h.Handler.WithGroup(group)}
}

// WithAttrs returns a new Handler with the given attributes.
func (h Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return Handler{Handler: h.Handler.WithAttrs(attrs)}
}
