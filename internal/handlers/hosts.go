package handlers

import (
	"database/sql"
	"log"
	"strconv"
	"strings"

	"certwatch/internal/models"

	"github.com/gofiber/fiber/v2"
)

func ListHosts(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		hosts, err := models.GetAllHosts(db)
		if err != nil {
			log.Printf("failed to list hosts: %v", err)
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to load hosts")
		}

		return c.Render("hosts", fiber.Map{"Hosts": hosts})
	}
}

func CreateHost(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := strings.TrimSpace(c.FormValue("name"))
		if !validateName(name) {
			return c.Status(fiber.StatusBadRequest).SendString("Host name is required")
		}

		h := &models.Host{Name: name}
		if err := models.CreateHost(db, h); err != nil {
			log.Printf("failed to create host: %v", err)
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to create host")
		}

		models.LogActivity(db, "host", h.ID, "created", "Created host "+h.Name, c.IP(), string(c.Request().Header.UserAgent()))
		return c.Redirect("/hosts")
	}
}

func UpdateHost(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).SendString("Invalid host ID")
		}

		existing, err := models.GetHostByID(db, id)
		if err != nil {
			return c.Status(fiber.StatusNotFound).SendString("Host not found")
		}

		name := strings.TrimSpace(c.FormValue("name"))
		if name == "" {
			name = existing.Name
		}
		if !validateName(name) {
			return c.Status(fiber.StatusBadRequest).SendString("Invalid host name")
		}

		existing.Name = name
		if err := models.UpdateHost(db, existing); err != nil {
			log.Printf("failed to update host %d: %v", id, err)
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to update host")
		}

		models.LogActivity(db, "host", id, "updated", "Updated host "+name, c.IP(), string(c.Request().Header.UserAgent()))
		return c.Redirect("/hosts")
	}
}

func DeleteHost(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).SendString("Invalid host ID")
		}

		host, err := models.GetHostByID(db, id)
		if err != nil {
			return c.Status(fiber.StatusNotFound).SendString("Host not found")
		}

		// Certificates keep existing with host_id set NULL by the schema.
		if err := models.DeleteHost(db, id); err != nil {
			log.Printf("failed to delete host %d: %v", id, err)
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to delete host")
		}

		models.LogActivity(db, "host", id, "deleted", "Deleted host "+host.Name, c.IP(), string(c.Request().Header.UserAgent()))
		return c.Redirect("/hosts")
	}
}
