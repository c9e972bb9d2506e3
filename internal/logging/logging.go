// Package logging builds the structured loggers used across the service.
package logging

import (
	"context"
	"io"
	"log/slog"
)

// New returns a text logger writing to w. Debug enables debug-level output.
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Component returns a logger whose messages are rendered as "[tag] message".
func Component(logger *slog.Logger, tag string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return slog.New(&tagHandler{inner: logger.Handler(), tag: "[" + tag + "] "})
}

// DebugSink returns logger when enabled and a logger that drops everything
// otherwise. Failure-branch diagnostics go through it so operators opt in.
func DebugSink(logger *slog.Logger, enabled bool) *slog.Logger {
	if !enabled || logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}

type tagHandler struct {
	inner slog.Handler
	tag   string
}

func (h *tagHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *tagHandler) Handle(ctx context.Context, r slog.Record) error {
	r.Message = h.tag + r.Message
	return h.inner.Handle(ctx, r)
}

func (h *tagHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &tagHandler{inner: h.inner.WithAttrs(attrs), tag: h.tag}
}

func (h *tagHandler) WithGroup(name string) slog.Handler {
	return &tagHandler{inner: h.inner.WithGroup(name), tag: h.tag}
}
