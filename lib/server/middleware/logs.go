package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

func Logger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start_time := time.Now()

		err := c.Next()

		status_code := c.Response().StatusCode()
		if err != nil {
			if fiber_err, ok := err.(*fiber.Error); ok {
				status_code = fiber_err.Code
			} else {
				status_code = fiber.StatusInternalServerError
			}
		}
		attrs := []slog.Attr{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
			slog.Int("status_code", status_code),
			slog.Duration("response_time", time.Since(start_time)),
		}

		level := slog.LevelInfo
		switch {
		case err != nil || status_code >= fiber.StatusInternalServerError:
			level = slog.LevelError
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
			}
		case status_code >= fiber.StatusBadRequest:
			level = slog.LevelWarn
		}
		slog.LogAttrs(context.Background(), level, "Request processed", attrs...)

		return err
	}
}
