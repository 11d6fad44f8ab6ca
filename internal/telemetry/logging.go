package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// sensitiveKeys are never written in clear text, whatever the caller passes.
var sensitiveKeys = map[string]bool{
	"card_number": true,
	"cvv":         true,
	"code":        true,
	"password":    true,
	"token":       true,
}

// NewLogger returns a JSON logger that stamps each record with the active
// trace and span IDs and redacts card data.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	baseHandler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redact,
	})

	return slog.New(&traceHandler{baseHandler: baseHandler})
}

// ParseLevel accepts debug, info, warn and error in any case.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("parse log level %q: %w", s, err)
	}
	return level, nil
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if !sensitiveKeys[a.Key] {
		return a
	}
	value := a.Value.String()
	if a.Key == "card_number" && len(value) > 4 {
		return slog.String(a.Key, strings.Repeat("*", len(value)-4)+value[len(value)-4:])
	}
	return slog.String(a.Key, "[redacted]")
}

type traceHandler struct {
	baseHandler slog.Handler
	groups      []string
	attrs       []slog.Attr
}

func (h *traceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.baseHandler.Enabled(ctx, level)
}

// Handle attaches trace_id and span_id at the root before replaying the
// handler's own attrs and groups, so IDs never end up inside a group.
func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	handler := h.baseHandler

	var traceAttrs []slog.Attr
	traceID, spanID := SpanIDs(ctx)
	if traceID != "" {
		traceAttrs = append(traceAttrs, slog.String("trace_id", traceID))
	}
	if spanID != "" {
		traceAttrs = append(traceAttrs, slog.String("span_id", spanID))
	}
	if len(traceAttrs) > 0 {
		handler = handler.WithAttrs(traceAttrs)
	}
	if len(h.attrs) > 0 {
		handler = handler.WithAttrs(h.attrs)
	}
	for _, group := range h.groups {
		handler = handler.WithGroup(group)
	}

	return handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}
