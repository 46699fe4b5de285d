package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/career-coach/internal/apperror"
)

// ErrorHandler converts an error into the API's JSON error body. It is used
// both by handlers and as the fiber app's error handler.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if appErr, ok := apperror.From(err); ok {
		body := fiber.Map{
			"error": appErr.Message,
			"kind":  appErr.Kind,
		}
		if appErr.Subject != "" {
			body["subject"] = appErr.Subject
		}
		return c.Status(appErr.Code).JSON(body)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"error": fiberErr.Message,
		})
	}

	log.Printf("❌ Unhandled error on %s %s: %v\n", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}

func respondError(c *fiber.Ctx, err error) error {
	return ErrorHandler(c, err)
}
