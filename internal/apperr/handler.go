package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorHandler renders every error returned by a handler as
// {"status": false, "message": ..., "errors"?: {...}}.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		body := fiber.Map{
			"status":  false,
			"message": "Unexpected server error",
		}

		var appErr *Error
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &appErr):
			code = appErr.HTTPStatus()
			if code < fiber.StatusInternalServerError {
				body["message"] = appErr.Message
			}
			if len(appErr.Fields) > 0 {
				body["errors"] = appErr.Fields
			}
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
			body["message"] = fiberErr.Message
		}

		if code >= fiber.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Int("status", code),
				zap.Error(err),
			)
		}

		return c.Status(code).JSON(body)
	}
}

// StatusOf returns the status ErrorHandler will write for err.
func StatusOf(err error) int {
	var appErr *Error
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &appErr):
		return appErr.HTTPStatus()
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	default:
		return fiber.StatusInternalServerError
	}
}
