package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"doclib/internal/apperr"
	"doclib/internal/http/middleware"
	"doclib/internal/logging"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "VALIDATION_ERROR", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromCtx(c),
	})
}

// writeServiceError maps a service error to its response. fallback is the
// caller-facing message for unexpected and persistence failures.
func writeServiceError(c *fiber.Ctx, err error, fallback string) error {
	var v *apperr.ValidationError
	switch {
	case errors.As(err, &v):
		return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", v.Error())
	case apperr.IsNotFound(err):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "Document not found")
	}

	code := "INTERNAL_ERROR"
	if apperr.IsPersistence(err) {
		code = "PERSISTENCE_ERROR"
	}
	l := logging.L()
	l.Error().
		Str("event", "request_failed").
		Str("request_id", requestIDFromCtx(c)).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Str("code", code).
		Err(err).
		Msg(fallback)
	return writeError(c, fiber.StatusInternalServerError, code, fallback)
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var e *fiber.Error
		if errors.As(err, &e) {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "file too large")
		default:
			return writeServiceError(c, err, "internal server error")
		}
	}
}
