package auth

import (
	"strings"

	"directory-backend/internal/audit"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxUserIDKey = "user_id"
	CtxPhoneKey  = "phone"
)

// JWTMiddleware verifies the bearer token and exposes the caller both in
// Locals and in the request context for services.
func JWTMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header is missing")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header must be 'Bearer <token>'")
		}

		claims, err := ParseToken(secret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxPhoneKey, claims.Phone)
		c.SetUserContext(audit.WithActor(c.UserContext(), audit.Actor{UserID: claims.UserID, Phone: claims.Phone}))

		return c.Next()
	}
}
