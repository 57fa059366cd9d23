package handlers

import (
	"log"

	"certwatch/internal/backup"

	"github.com/gofiber/fiber/v2"
)

func BackupsPage(bm *backup.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		backups, err := bm.ListBackups()
		if err != nil {
			log.Printf("failed to list backups: %v", err)
			backups = nil
		}

		type backupView struct {
			backup.BackupInfo
			SizeHuman string
		}
		views := make([]backupView, 0, len(backups))
		for _, b := range backups {
			views = append(views, backupView{BackupInfo: b, SizeHuman: backup.FormatSize(b.Size)})
		}

		return c.Render("backups", fiber.Map{"Backups": views})
	}
}

func CreateDatabaseBackup(bm *backup.Manager, dbPath string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bi, err := bm.BackupDatabase(dbPath)
		if err != nil {
			log.Printf("database backup failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).SendString("Database backup failed")
		}

		log.Printf("database backup created: %s (%s)", bi.Name, backup.FormatSize(bi.Size))
		return c.Redirect("/backups")
	}
}

func DeleteBackup(bm *backup.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := c.Params("name")
		if name == "" {
			return c.Status(fiber.StatusBadRequest).SendString("Backup name required")
		}

		if err := bm.DeleteBackup(name); err != nil {
			log.Printf("failed to delete backup %s: %v", sanitizeLogInput(name), err)
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to delete backup")
		}

		return c.Redirect("/backups")
	}
}

func DownloadBackup(bm *backup.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := c.Params("name")
		if name == "" {
			return c.Status(fiber.StatusBadRequest).SendString("Backup name required")
		}

		backups, err := bm.ListBackups()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to list backups")
		}

		for _, b := range backups {
			if b.Name == name {
				return c.Download(b.Path, b.Name)
			}
		}

		return c.Status(fiber.StatusNotFound).SendString("Backup not found")
	}
}
