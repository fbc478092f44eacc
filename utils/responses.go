package utils

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/runleveling/server/models"
)

// SendJSON sends a JSON response using Fiber
func SendJSON(c *fiber.Ctx, statusCode int, data interface{}) error {
	return c.Status(statusCode).JSON(data)
}

// SendSuccess sends a successful JSON response
func SendSuccess(c *fiber.Ctx, data interface{}, message string) error {
	return SendJSON(c, http.StatusOK, models.NewSuccessResponse(data, message))
}

// SendCreated sends a created resource JSON response
func SendCreated(c *fiber.Ctx, data interface{}, message string) error {
	return SendJSON(c, http.StatusCreated, models.NewSuccessResponse(data, message))
}

// SendError sends an error JSON response
func SendError(c *fiber.Ctx, statusCode int, code, message string, details map[string]string) error {
	return SendJSON(c, statusCode, models.NewErrorResponse(code, message, details))
}

// SendBadRequest sends a bad request error response
func SendBadRequest(c *fiber.Ctx, message string, details map[string]string) error {
	return SendError(c, http.StatusBadRequest, "BAD_REQUEST", message, details)
}

// SendNotFound sends a not found error response
func SendNotFound(c *fiber.Ctx, message string) error {
	return SendError(c, http.StatusNotFound, "NOT_FOUND", message, nil)
}

// SendConflict sends a conflict error response
func SendConflict(c *fiber.Ctx, message string, details map[string]string) error {
	return SendError(c, http.StatusConflict, "CONFLICT", message, details)
}

// SendUnprocessableEntity sends an unprocessable entity error response
func SendUnprocessableEntity(c *fiber.Ctx, message string, details map[string]string) error {
	return SendError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", message, details)
}

// SendServiceUnavailable sends a service unavailable error response
func SendServiceUnavailable(c *fiber.Ctx, message string) error {
	return SendError(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", message, nil)
}

// SendInternalServerError sends an internal server error response
func SendInternalServerError(c *fiber.Ctx, message string) error {
	return SendError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", message, nil)
}

// HandleValidationErrors converts validation errors to API response
func HandleValidationErrors(c *fiber.Ctx, errors []models.ValidationError) error {
	details := make(map[string]string, len(errors))
	for _, e := range errors {
		details[e.Field] = e.Message
	}
	return SendUnprocessableEntity(c, "Validation failed", details)
}

// GetIPAddress extracts the client IP, honoring proxy headers.
func GetIPAddress(c *fiber.Ctx) string {
	if ip := c.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := c.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return c.IP()
}

// GetUserAgent returns the request user agent.
func GetUserAgent(c *fiber.Ctx) string {
	return c.Get("User-Agent")
}
