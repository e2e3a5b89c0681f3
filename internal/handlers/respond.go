package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"rezoomai/resume-api/internal/services"
)

// StatusFor maps a failure kind to its HTTP status.
func StatusFor(kind services.Kind) int {
	switch kind {
	case services.KindBadRequest,
		services.KindUnsupportedType,
		services.KindExtraction,
		services.KindEmptyExtraction:
		return fiber.StatusBadRequest
	case services.KindInvalidModelResponse:
		return fiber.StatusBadGateway
	case services.KindTimeout:
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError renders err as {error} for client faults and as
// {error, message} for server faults. Causes are logged, never returned.
func writeError(c *fiber.Ctx, log *zap.Logger, err error) error {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		svcErr = &services.Error{Kind: services.KindInternal, Message: "An unexpected error occurred", Err: err}
	}

	status := StatusFor(svcErr.Kind)
	fields := []zap.Field{
		zap.String("kind", svcErr.Kind.String()),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", status),
		zap.Error(err),
	}

	if status >= fiber.StatusInternalServerError {
		log.Error("request failed", fields...)
		return c.Status(status).JSON(fiber.Map{
			"error":   "Internal server error",
			"message": svcErr.Message,
		})
	}

	log.Info("request rejected", fields...)
	return c.Status(status).JSON(fiber.Map{
		"error": svcErr.Message,
	})
}
