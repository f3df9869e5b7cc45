package maintenance

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// fanout forwards every record to all of its handlers.
type fanout struct {
	handlers []slog.Handler
}

func (h *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanout) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		if err := handler.Handle(ctx, record.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (h *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &fanout{handlers: handlers}
}

func (h *fanout) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &fanout{handlers: handlers}
}

func NewFanoutHandler(handlers ...slog.Handler) slog.Handler {
	return &fanout{handlers: handlers}
}

// ParseLevel maps LOG_LEVEL values to slog levels, defaulting to debug.
func ParseLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelDebug
}

// InitLogger installs the default logger: text on stdout at the console level and,
// when a path is given, JSON lines appended to that file at info and above.
// The returned closer releases the log file.
func InitLogger(log_file_path string, console_level slog.Level) (io.Closer, error) {
	console_handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: console_level})
	if log_file_path == "" {
		slog.SetDefault(slog.New(console_handler))
		return io.NopCloser(nil), nil
	}

	log_file, err := os.OpenFile(log_file_path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		slog.Error("Cannot open log file", "file", log_file_path, "error", err)
		return nil, err
	}
	file_handler := slog.NewJSONHandler(log_file, &slog.HandlerOptions{Level: slog.LevelInfo})

	slog.SetDefault(slog.New(NewFanoutHandler(console_handler, file_handler)))
	return log_file, nil
}
