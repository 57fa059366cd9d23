package handlers

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"certwatch/internal/metrics"
	"certwatch/internal/models"
	"certwatch/internal/scan"

	"github.com/gofiber/fiber/v2"
)

// RunScan triggers a full scan and waits for it to finish. The runner
// rejects overlapping runs, which maps to 409 here.
func RunScan(db *sql.DB, runner *scan.Runner) fiber.Handler {
	return func(c *fiber.Ctx) error {
		models.LogActivity(db, "scan", 0, "triggered", "Manual scan triggered", c.IP(), string(c.Request().Header.UserAgent()))

		report, meta, err := runner.Run(context.Background())
		if errors.Is(err, scan.ErrScanInFlight) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "a scan is already running",
			})
		}
		if err != nil {
			log.Printf("manual scan failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "scan failed: " + err.Error(),
			})
		}

		// Clean runs count too, and a recovery drops the flagged gauge to 0.
		flagged := 0
		if report != nil {
			flagged = len(report.Verdicts)
		}
		metrics.Default.RecordScan(meta.DomainsProbed, meta.ProbeFailures, flagged)

		if c.Accepts("text/html", "application/json") == "text/html" {
			return c.Redirect("/reports")
		}
		return c.JSON(fiber.Map{"flagged": flagged})
	}
}

// ScanStatus reports whether a scan is currently in flight.
func ScanStatus(runner *scan.Runner) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"running": runner.Running()})
	}
}
