package auth

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
)

// Middleware guards the admin surface: a valid, unrevoked session cookie
// or a redirect to the login page.
func Middleware(db *sql.DB, secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := c.Cookies("token")
		if tokenStr == "" {
			return c.Redirect("/login")
		}

		claims, err := ValidateToken(tokenStr, secret)
		if err != nil {
			c.ClearCookie("token")
			return c.Redirect("/login")
		}

		if IsRevoked(db, claims.ID) {
			c.ClearCookie("token")
			return c.Redirect("/login")
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("username", claims.Username)
		return c.Next()
	}
}
