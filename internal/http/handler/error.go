package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"deedapi/internal/http/middleware"
	"deedapi/internal/model"
	"deedapi/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
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
// - code: machine-readable short error code (e.g., "TOKEN_EXPIRED", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// mapServiceError translates service sentinel errors into the standardized
// error response. Validation messages are safe to echo; everything unknown
// collapses into INTERNAL_ERROR.
func mapServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrSecretRequired),
		errors.Is(err, model.ErrInvalidSignerRef):
		return writeError(c, fiber.StatusBadRequest, "VALIDATION_FAILURE", err.Error())
	case errors.Is(err, service.ErrTokenNotFound):
		return writeError(c, fiber.StatusNotFound, "TOKEN_NOT_FOUND", "signing token not found")
	case errors.Is(err, service.ErrTokenExpired):
		return writeError(c, fiber.StatusBadRequest, "TOKEN_EXPIRED", "signing token has expired")
	case errors.Is(err, service.ErrTokenUsed):
		return writeError(c, fiber.StatusBadRequest, "TOKEN_USED", "signing token has already been used")
	case errors.Is(err, service.ErrDeedNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "mortgage deed not found")
	case errors.Is(err, service.ErrSignerNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "signer not found")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
