package server

import (
	"context"
	"errors"

	"fileshare/internal/models"

	"github.com/gofiber/fiber/v2"
)

// mapServiceError picks the HTTP status for an error returned by a service.
func mapServiceError(err error) int {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case models.CodeValidation:
			return fiber.StatusBadRequest
		default:
			return fiber.StatusInternalServerError
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fiber.StatusRequestTimeout
	}
	return fiber.StatusInternalServerError
}
