package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// textHandler renders records as "timestamp [LEVEL] message" lines.
type textHandler struct {
	writer io.Writer
	level  slog.Level
	mu     sync.Mutex
}

func newTextHandler(w io.Writer, level slog.Level) *textHandler {
	return &textHandler{writer: w, level: level}
}

func (h *textHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *textHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	timeStr := r.Time.Format("2006-01-02 15:04:05.000")

	var levelStr string
	switch r.Level {
	case slog.LevelDebug:
		levelStr = "DEBUG"
	case slog.LevelWarn:
		levelStr = "WARN"
	case slog.LevelError:
		levelStr = "ERROR"
	default:
		levelStr = "INFO"
	}

	_, err := fmt.Fprintf(h.writer, "[%s] [%s] %s\n", timeStr, levelStr, r.Message)
	return err
}

func (h *textHandler) WithAttrs([]slog.Attr) slog.Handler {
	return h
}

func (h *textHandler) WithGroup(string) slog.Handler {
	return h
}
