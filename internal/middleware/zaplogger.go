package middleware

import (
	"strings"
	"time"

	"directory-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ZapLogger logs one line per request, with the level picked from the status.
func ZapLogger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if shouldSkipLog(path) {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()
		latency := time.Since(start)

		status := c.Response().StatusCode()
		if err != nil {
			status = apperr.StatusOf(err)
		}

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("ip", realIP(c)),
		}
		if ua := c.Get(fiber.HeaderUserAgent); ua != "" && len(ua) < 200 {
			fields = append(fields, zap.String("user_agent", ua))
		}
		if err != nil && status >= fiber.StatusInternalServerError {
			fields = append(fields, zap.Error(err))
		}

		logByStatus(log, fields, status, latency, c.Method())
		return err
	}
}

func shouldSkipLog(path string) bool {
	return strings.HasPrefix(path, "/health") ||
		strings.HasPrefix(path, "/metrics") ||
		strings.HasPrefix(path, "/images/") ||
		path == "/favicon.ico"
}

func realIP(c *fiber.Ctx) string {
	if ip := c.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	if xff := c.Get(fiber.HeaderXForwardedFor); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	return c.IP()
}

func logByStatus(log *zap.Logger, fields []zap.Field, status int, latency time.Duration, method string) {
	msg := "request"
	switch {
	case status >= 500:
		msg = "server_error"
	case status >= 400 && status != 404:
		msg = "client_error"
	case latency > time.Second:
		msg = "slow_request"
		fields = append(fields, zap.Bool("slow", true))
	}

	switch {
	case status >= 500:
		log.Error(msg, fields...)
	case status == 404:
		log.Info(msg, fields...)
	case status >= 400:
		log.Warn(msg, fields...)
	case method != fiber.MethodGet || latency > 500*time.Millisecond:
		log.Info(msg, fields...)
	default:
		// fast reads stay at debug
		log.Debug(msg, fields...)
	}
}
