package middleware

import (
	"strings"

	"cafe-inventory/internal/repository"
	"cafe-inventory/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// Context keys set by RequireAuth.
const (
	LocalUserID   = "user_id"
	LocalUserName = "user_name"
)

// RequireAuth is middleware that validates the bearer token and sets user info in context
func RequireAuth(tokens *jwt.Manager, userRepo repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get Authorization header
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		// Deleted users lose access even with a live token
		user, err := userRepo.FindByID(c.UserContext(), claims.UserID.String())
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "User not found"})
		}

		c.Locals(LocalUserID, user.ID.String())
		c.Locals(LocalUserName, user.Username)

		return c.Next()
	}
}
