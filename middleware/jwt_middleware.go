package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"resellerdash/models"
	"resellerdash/utils"
)

// Protected requires a valid session token. The token is read from the
// Authorization header, then the access_token cookie, then the token query
// parameter (browsers cannot set headers on a WebSocket upgrade).
func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var token string
		authHeader := c.Get("Authorization")
		switch {
		case authHeader != "":
			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid authorization format",
				})
			}
			token = tokenParts[1]
		case c.Cookies("access_token") != "":
			token = c.Cookies("access_token")
		default:
			token = c.Query("token")
		}
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization required",
			})
		}

		claims, err := utils.ParseJWTToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("admin", claims.User())
		c.Locals("adminID", claims.AdminID)
		c.Locals("sessionID", claims.ID)

		return c.Next()
	}
}

// CurrentAdmin returns the operator Protected stored on the request.
func CurrentAdmin(c *fiber.Ctx) (models.AdminUser, bool) {
	admin, ok := c.Locals("admin").(models.AdminUser)
	return admin, ok
}
