package middleware

import (
	"kinto/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequireAuth guards staff-only routes (article management, index reload).
func RequireAuth(jwtManager *auth.JWTManager, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := claimsFromHeader(c, jwtManager)
		if err != nil {
			logger.Warn("Rejected unauthenticated request", zap.String("path", c.Path()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization token required",
			})
		}

		storeClaims(c, claims)
		return c.Next()
	}
}

// RequireRole gates a route on the authenticated user's role. Must run after
// RequireAuth.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if current, ok := c.Locals("role").(string); !ok || current != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}
		return c.Next()
	}
}

// OptionalAuth resolves claims when a token is present but lets anonymous
// requests through. The chat route uses it: anyone may ask, only staff
// context unlocks internal articles.
func OptionalAuth(jwtManager *auth.JWTManager, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := claimsFromHeader(c, jwtManager)
		if err == nil {
			storeClaims(c, claims)
		}
		return c.Next()
	}
}

func claimsFromHeader(c *fiber.Ctx, jwtManager *auth.JWTManager) (*auth.Claims, error) {
	token := c.Get("Authorization")
	if token == "" {
		return nil, auth.ErrInvalidToken
	}
	if len(token) > 7 && token[:7] == "Bearer " {
		token = token[7:]
	}
	return jwtManager.ValidateToken(token)
}

func storeClaims(c *fiber.Ctx, claims *auth.Claims) {
	c.Locals("userID", claims.UserID)
	c.Locals("username", claims.Username)
	c.Locals("email", claims.Email)
	c.Locals("role", claims.Role)
}
