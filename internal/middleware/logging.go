package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestLogger logs every request with method, path, status, caller and
// duration. Errors are logged at warn for client faults and error for
// server faults.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}

			attrs := []any{
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", status,
				"user_id", UserID(c),
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			switch {
			case status >= http.StatusInternalServerError:
				slog.Error("request failed", append(attrs, "error", err)...)
			case err != nil:
				slog.Warn("request rejected", append(attrs, "error", err)...)
			default:
				slog.Info("request completed", attrs...)
			}

			return err
		}
	}
}
