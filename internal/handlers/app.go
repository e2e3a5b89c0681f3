package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const appName = "RezoomAI Resume API"

// BodyLimit sizes the request body limit for a maximum upload size. Multipart
// framing and base64 transport inflate the body beyond the file itself.
func BodyLimit(maxFileSize int64) int {
	return int(maxFileSize*2) + 1<<20
}

// NewFiberConfig is the fiber configuration the API is served with.
// Multipart bodies are left unparsed for the upload handler, which also
// accepts base64-transported bodies and answers malformed ones in JSON.
func NewFiberConfig(bodyLimit int, log *zap.Logger) fiber.Config {
	return fiber.Config{
		AppName:                      appName,
		BodyLimit:                    bodyLimit,
		ErrorHandler:                 ErrorHandler(log),
		DisablePreParseMultipartForm: true,
		DisableStartupMessage:        true,
	}
}

// ErrorHandler renders errors that escape the handlers, such as unknown routes
// and oversized bodies, in the same shapes the handlers use.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "An unexpected error occurred"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}

		c.Set(fiber.HeaderAccessControlAllowOrigin, "*")

		if code >= fiber.StatusInternalServerError {
			log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
			return c.Status(code).JSON(fiber.Map{
				"error":   "Internal server error",
				"message": message,
			})
		}

		return c.Status(code).JSON(fiber.Map{
			"error": message,
		})
	}
}
