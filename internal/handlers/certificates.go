package handlers

import (
	"database/sql"
	"log"
	"strconv"
	"strings"

	"certwatch/internal/models"

	"github.com/gofiber/fiber/v2"
)

func ListCertificates(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		certs, err := models.GetAllCertificates(db)
		if err != nil {
			log.Printf("failed to list certificates: %v", err)
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to load certificates")
		}

		hosts, err := models.GetAllHosts(db)
		if err != nil {
			log.Printf("failed to load hosts for certificate form: %v", err)
		}

		return c.Render("certificates", fiber.Map{
			"Certificates": certs,
			"Hosts":        hosts,
		})
	}
}

func CertificateDetail(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).SendString("Invalid certificate ID")
		}

		cert, err := models.GetCertificateByID(db, id)
		if err != nil {
			return c.Status(fiber.StatusNotFound).SendString("Certificate not found")
		}

		hosts, _ := models.GetAllHosts(db)

		// Latest persisted verdict, if this certificate has ever been flagged.
		verdict, err := models.GetLatestVerdictForCertificate(db, id)
		if err != nil {
			verdict = nil
		}

		return c.Render("certificate_detail", fiber.Map{
			"Certificate": cert,
			"Hosts":       hosts,
			"Verdict":     verdict,
		})
	}
}

func CreateCertificate(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := strings.TrimSpace(c.FormValue("name"))
		if !validateName(name) {
			return c.Status(fiber.StatusBadRequest).SendString("Certificate name is required")
		}

		cert := &models.Certificate{
			Name:   name,
			Public: c.FormValue("public") == "1" || c.FormValue("public") == "on",
			HostID: parseNullableID(c.FormValue("host_id")),
		}

		if err := models.CreateCertificate(db, cert); err != nil {
			log.Printf("failed to create certificate: %v", err)
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to create certificate")
		}

		models.LogActivity(db, "certificate", cert.ID, "created", "Created certificate "+cert.Name, c.IP(), string(c.Request().Header.UserAgent()))
		return c.Redirect("/certificates")
	}
}

func UpdateCertificate(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).SendString("Invalid certificate ID")
		}

		existing, err := models.GetCertificateByID(db, id)
		if err != nil {
			return c.Status(fiber.StatusNotFound).SendString("Certificate not found")
		}

		name := strings.TrimSpace(c.FormValue("name"))
		if name == "" {
			name = existing.Name
		}
		if !validateName(name) {
			return c.Status(fiber.StatusBadRequest).SendString("Invalid certificate name")
		}

		existing.Name = name
		if c.FormValue("public") != "" {
			existing.Public = c.FormValue("public") == "1" || c.FormValue("public") == "on"
		}
		if hid := c.FormValue("host_id"); hid != "" {
			existing.HostID = parseNullableID(hid)
		}

		if err := models.UpdateCertificate(db, existing); err != nil {
			log.Printf("failed to update certificate %d: %v", id, err)
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to update certificate")
		}

		models.LogActivity(db, "certificate", id, "updated", "Updated certificate "+name, c.IP(), string(c.Request().Header.UserAgent()))
		return c.Redirect("/certificates")
	}
}

func DeleteCertificate(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).SendString("Invalid certificate ID")
		}

		cert, err := models.GetCertificateByID(db, id)
		if err != nil {
			return c.Status(fiber.StatusNotFound).SendString("Certificate not found")
		}

		// Domains pointing at it become unassigned (schema sets NULL) and
		// drop out of future scans.
		if err := models.DeleteCertificate(db, id); err != nil {
			log.Printf("failed to delete certificate %d: %v", id, err)
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to delete certificate")
		}

		models.LogActivity(db, "certificate", id, "deleted", "Deleted certificate "+cert.Name, c.IP(), string(c.Request().Header.UserAgent()))
		return c.Redirect("/certificates")
	}
}

// parseNullableID turns a form value into a nullable foreign key. "0" and
// unparseable input mean unassigned.
func parseNullableID(s string) sql.NullInt64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: v, Valid: true}
}
