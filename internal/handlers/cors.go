package handlers

import "github.com/gofiber/fiber/v2"

const (
	corsAllowHeaders = "Content-Type, Authorization"
	postMethods      = "POST, OPTIONS"
	userMethods      = "GET, POST, PUT, OPTIONS"
)

// CORS allows any origin and answers preflight requests itself with 200 and
// an empty body, whether or not the request carries an Origin header.
func CORS(allowMethods string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderAccessControlAllowOrigin, "*")

		if c.Method() != fiber.MethodOptions {
			return c.Next()
		}

		c.Set(fiber.HeaderAccessControlAllowHeaders, corsAllowHeaders)
		c.Set(fiber.HeaderAccessControlAllowMethods, allowMethods)
		c.Status(fiber.StatusOK)
		return nil
	}
}

func MethodNotAllowed(c *fiber.Ctx) error {
	return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{
		"error": "Method not allowed",
	})
}
