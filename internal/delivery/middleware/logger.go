package middleware

import (
	"log/slog"

	"healthtrack/config"

	"github.com/labstack/echo/v4"
	slogecho "github.com/samber/slog-echo"
)

// healthPath is excluded from access logs.
const healthPath = "/health"

// LoggerMiddleware writes one access log line per request through slog.
// Debug mode adds the user agent and request headers; the Authorization header
// is always hidden.
type LoggerMiddleware struct {
	handler echo.MiddlewareFunc
}

// NewLoggerMiddleware creates a new logger middleware
func NewLoggerMiddleware(logger *slog.Logger, config *config.Config) *LoggerMiddleware {
	debug := config != nil && config.Env.Debug

	return &LoggerMiddleware{
		handler: slogecho.NewWithConfig(logger, slogecho.Config{
			DefaultLevel:      slog.LevelInfo,
			ClientErrorLevel:  slog.LevelWarn,
			ServerErrorLevel:  slog.LevelError,
			WithRequestID:     true,
			WithUserAgent:     debug,
			WithRequestHeader: debug,
			Filters: []slogecho.Filter{
				slogecho.IgnorePath(healthPath),
			},
		}),
	}
}

// Handle processes request logging
func (m *LoggerMiddleware) Handle(next echo.HandlerFunc) echo.HandlerFunc {
	return m.handler(next)
}
