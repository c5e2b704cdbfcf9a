package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse writes the standard failure envelope.
func ErrorResponse(ctx *fiber.Ctx, status int, message string) error {
	return ctx.Status(status).JSON(fiber.Map{
		"success": false,
		"code":    status,
		"message": message,
	})
}

// SuccessResponse writes the standard success envelope.
func SuccessResponse(ctx *fiber.Ctx, status int, message string, data interface{}) error {
	return ctx.Status(status).JSON(fiber.Map{
		"success": true,
		"code":    status,
		"message": message,
		"data":    data,
	})
}

// ErrorHandler is installed as fiber.Config.ErrorHandler so errors returned by
// handlers (body parsing, unknown routes) still use the envelope.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Internal server error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status = fiberErr.Code
		message = fiberErr.Message
	}
	return ErrorResponse(ctx, status, message)
}
