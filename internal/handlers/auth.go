package handlers

import (
	"database/sql"
	"log"
	"time"

	"certwatch/internal/auth"
	"certwatch/internal/config"
	"certwatch/internal/models"

	"github.com/gofiber/fiber/v2"
)

func LoginPage(c *fiber.Ctx) error {
	return c.Render("login", fiber.Map{})
}

func LoginPost(db *sql.DB, cfg *config.Config, lockout *auth.LockoutTracker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		username := c.FormValue("username")
		password := c.FormValue("password")

		if lockout.IsLocked(c.IP()) || lockout.IsLocked(username) {
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{
				"Error": "Too many failed attempts. Try again later.",
			})
		}

		user, err := models.GetUserByUsername(db, username)
		if err != nil || !auth.CheckPassword(user.Password, password) {
			lockout.RecordFailure(c.IP())
			lockout.RecordFailure(username)
			log.Printf("failed login for %q from %s", sanitizeLogInput(username), c.IP())
			return c.Render("login", fiber.Map{"Error": "Invalid username or password"})
		}

		lockout.Reset(c.IP())
		lockout.Reset(username)

		// Password accepted but a second factor is still owed.
		if user.TOTPEnabled {
			pending, err := auth.GeneratePendingToken(user.ID, cfg.JWTSecret)
			if err != nil {
				log.Printf("failed to issue pending token: %v", err)
				return c.Render("login", fiber.Map{"Error": "Internal server error"})
			}
			c.Cookie(&fiber.Cookie{
				Name:     "totp_pending",
				Value:    pending,
				HTTPOnly: true,
				Secure:   cfg.SecureCookies,
				SameSite: "Lax",
				Expires:  time.Now().Add(5 * time.Minute),
				Path:     "/",
			})
			return c.Render("totp_verify", fiber.Map{})
		}

		return issueSession(c, db, cfg, user)
	}
}

// TOTPVerify exchanges a pending cookie plus a valid authenticator code
// for a real session.
func TOTPVerify(db *sql.DB, cfg *config.Config, lockout *auth.LockoutTracker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pending := c.Cookies("totp_pending")
		if pending == "" {
			return c.Redirect("/login")
		}

		userID, err := auth.ValidatePendingToken(pending, cfg.JWTSecret)
		if err != nil {
			return c.Redirect("/login")
		}

		if lockout.IsLocked(c.IP()) {
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{
				"Error": "Too many failed attempts. Try again later.",
			})
		}

		user, err := models.GetUserByID(db, userID)
		if err != nil {
			return c.Redirect("/login")
		}

		if !user.TOTPSecret.Valid || !auth.ValidateTOTPCode(c.FormValue("code"), user.TOTPSecret.String) {
			lockout.RecordFailure(c.IP())
			return c.Render("totp_verify", fiber.Map{"Error": "Invalid code. Please try again."})
		}

		c.Cookie(&fiber.Cookie{
			Name:     "totp_pending",
			Value:    "",
			HTTPOnly: true,
			Expires:  time.Now().Add(-1 * time.Hour),
			Path:     "/",
		})

		return issueSession(c, db, cfg, user)
	}
}

func issueSession(c *fiber.Ctx, db *sql.DB, cfg *config.Config, user *models.User) error {
	token, err := auth.GenerateToken(user.ID, user.Username, cfg.JWTSecret, cfg.JWTExpiryHours)
	if err != nil {
		log.Printf("failed to issue session token: %v", err)
		return c.Render("login", fiber.Map{"Error": "Internal server error"})
	}

	c.Cookie(&fiber.Cookie{
		Name:     "token",
		Value:    token,
		HTTPOnly: true,
		Secure:   cfg.SecureCookies,
		SameSite: "Lax",
		Expires:  time.Now().Add(time.Duration(cfg.JWTExpiryHours) * time.Hour),
		Path:     "/",
	})

	models.LogActivity(db, "user", user.ID, "login", "Logged in", c.IP(), string(c.Request().Header.UserAgent()))
	return c.Redirect("/dashboard")
}

func Logout(db *sql.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := c.Cookies("token"); token != "" {
			if claims, err := auth.ValidateToken(token, cfg.JWTSecret); err == nil {
				exp := time.Now().Add(time.Duration(cfg.JWTExpiryHours) * time.Hour)
				if claims.ExpiresAt != nil {
					exp = claims.ExpiresAt.Time
				}
				if err := auth.RevokeToken(db, claims.ID, exp); err != nil {
					log.Printf("failed to revoke token on logout: %v", err)
				}
			}
		}

		c.Cookie(&fiber.Cookie{
			Name:     "token",
			Value:    "",
			HTTPOnly: true,
			Expires:  time.Now().Add(-1 * time.Hour),
			Path:     "/",
		})
		return c.Redirect("/login")
	}
}
