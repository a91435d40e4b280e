package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/fleetsight/fleetsight/internal/domain"
)

// ErrorHandler maps domain errors escaping a handler to HTTP statuses.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var verrs domain.ValidationErrors
		if errors.As(err, &verrs) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "validation failed",
				"details": verrs,
			})
		}

		code := fiber.StatusInternalServerError

		var fiberErr *fiber.Error
		switch {
		case errors.Is(err, domain.ErrDriverNotFound):
			code = fiber.StatusNotFound
		case errors.Is(err, domain.ErrUnknownFormat):
			code = fiber.StatusBadRequest
		case errors.Is(err, domain.ErrRenderTimeout):
			code = fiber.StatusGatewayTimeout
		case errors.Is(err, domain.ErrRenderUnavailable):
			code = fiber.StatusServiceUnavailable
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
		}

		if code == fiber.StatusInternalServerError {
			log.Error("Internal Server Error", zap.Error(err), zap.String("path", c.Path()))
		}

		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
