package handlers

import (
	"database/sql"

	"certwatch/internal/auth"
	"certwatch/internal/models"

	"github.com/gofiber/fiber/v2"
)

const totpIssuer = "certwatch"

func TOTPSetupPage(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)
		user, err := models.GetUserByID(db, userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to load user")
		}

		if user.TOTPEnabled {
			return c.Render("totp_setup", fiber.Map{"Enabled": true})
		}

		key, qrDataURI, err := auth.GenerateTOTPSecret(user.Username, totpIssuer)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to generate TOTP secret")
		}

		// Stored but not enabled until the first code verifies.
		if err := models.SetUserTOTPSecret(db, userID, key.Secret()); err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to save TOTP secret")
		}

		return c.Render("totp_setup", fiber.Map{
			"QRCode": qrDataURI,
			"Secret": key.Secret(),
		})
	}
}

func TOTPEnable(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)
		code := c.FormValue("code")

		user, err := models.GetUserByID(db, userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to load user")
		}

		if !user.TOTPSecret.Valid {
			return c.Redirect("/settings/2fa")
		}

		if !auth.ValidateTOTPCode(code, user.TOTPSecret.String) {
			return c.Render("totp_setup", fiber.Map{
				"Secret": user.TOTPSecret.String,
				"Error":  "Invalid code. Please try again.",
			})
		}

		if err := models.EnableUserTOTP(db, userID); err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to enable 2FA")
		}

		models.LogActivity(db, "user", userID, "totp_enabled", "Enabled two-factor auth", c.IP(), string(c.Request().Header.UserAgent()))
		return c.Render("totp_setup", fiber.Map{"Enabled": true})
	}
}

func TOTPDisable(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)
		code := c.FormValue("code")

		user, err := models.GetUserByID(db, userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to load user")
		}

		if !user.TOTPEnabled {
			return c.Redirect("/settings/2fa")
		}

		if !user.TOTPSecret.Valid || !auth.ValidateTOTPCode(code, user.TOTPSecret.String) {
			return c.Render("totp_setup", fiber.Map{
				"Enabled": true,
				"Error":   "Invalid code. Cannot disable 2FA.",
			})
		}

		if err := models.DisableUserTOTP(db, userID); err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to disable 2FA")
		}

		models.LogActivity(db, "user", userID, "totp_disabled", "Disabled two-factor auth", c.IP(), string(c.Request().Header.UserAgent()))
		return c.Redirect("/settings/2fa")
	}
}
