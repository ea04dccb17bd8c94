package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/waorder/internal/utils"
)

const adminContextKey = "adminSubject"

// AdminAuth validates admin bearer tokens and stores the token subject in context.
func AdminAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		subject, err := utils.ParseToken(secret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(adminContextKey, subject)
		return c.Next()
	}
}

// CurrentAdmin returns the authenticated admin subject.
func CurrentAdmin(c *fiber.Ctx) (string, bool) {
	subject, ok := c.Locals(adminContextKey).(string)
	return subject, ok && subject != ""
}
