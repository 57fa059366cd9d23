package handlers

import (
	"database/sql"
	"log"
	"strconv"
	"strings"

	"certwatch/internal/models"

	"github.com/gofiber/fiber/v2"
)

func ListDomains(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		domains, err := models.GetAllDomains(db)
		if err != nil {
			log.Printf("failed to list domains: %v", err)
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to load domains")
		}

		certs, err := models.GetAllCertificates(db)
		if err != nil {
			log.Printf("failed to load certificates for domain form: %v", err)
		}

		return c.Render("domains", fiber.Map{
			"Domains":      domains,
			"Certificates": certs,
		})
	}
}

func CreateDomain(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fqdn := strings.TrimSpace(strings.ToLower(c.FormValue("fqdn")))
		if !validateDomain(fqdn) {
			return c.Status(fiber.StatusBadRequest).SendString("Invalid domain name")
		}

		port, err := strconv.Atoi(c.FormValue("port", "0"))
		if err != nil || !validatePort(port) {
			return c.Status(fiber.StatusBadRequest).SendString("Invalid port")
		}

		d := &models.Domain{
			FQDN:          fqdn,
			Port:          port,
			CertificateID: parseNullableID(c.FormValue("certificate_id")),
		}

		if err := models.CreateDomain(db, d); err != nil {
			log.Printf("failed to create domain %s: %v", sanitizeLogInput(fqdn), err)
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to create domain (is it a duplicate?)")
		}

		models.LogActivity(db, "domain", d.ID, "created", "Created domain "+d.FQDN, c.IP(), string(c.Request().Header.UserAgent()))
		return c.Redirect("/domains")
	}
}

func UpdateDomain(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).SendString("Invalid domain ID")
		}

		existing, err := models.GetDomainByID(db, id)
		if err != nil {
			return c.Status(fiber.StatusNotFound).SendString("Domain not found")
		}

		fqdn := strings.TrimSpace(strings.ToLower(c.FormValue("fqdn")))
		if fqdn == "" {
			fqdn = existing.FQDN
		}
		if !validateDomain(fqdn) {
			return c.Status(fiber.StatusBadRequest).SendString("Invalid domain name")
		}

		port := existing.Port
		if p := c.FormValue("port"); p != "" {
			port, err = strconv.Atoi(p)
			if err != nil || !validatePort(port) {
				return c.Status(fiber.StatusBadRequest).SendString("Invalid port")
			}
		}

		existing.FQDN = fqdn
		existing.Port = port
		if cid := c.FormValue("certificate_id"); cid != "" {
			existing.CertificateID = parseNullableID(cid)
		}

		if err := models.UpdateDomain(db, existing); err != nil {
			log.Printf("failed to update domain %d: %v", id, err)
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to update domain")
		}

		models.LogActivity(db, "domain", id, "updated", "Updated domain "+fqdn, c.IP(), string(c.Request().Header.UserAgent()))
		return c.Redirect("/domains")
	}
}

func DeleteDomain(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).SendString("Invalid domain ID")
		}

		domain, err := models.GetDomainByID(db, id)
		if err != nil {
			return c.Status(fiber.StatusNotFound).SendString("Domain not found")
		}

		if err := models.DeleteDomain(db, id); err != nil {
			log.Printf("failed to delete domain %d: %v", id, err)
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to delete domain")
		}

		models.LogActivity(db, "domain", id, "deleted", "Deleted domain "+domain.FQDN, c.IP(), string(c.Request().Header.UserAgent()))
		return c.Redirect("/domains")
	}
}
