package handlers

import (
	"database/sql"
	"log"

	"certwatch/internal/models"

	"github.com/gofiber/fiber/v2"
)

func Dashboard(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var hostCount, certCount, domainCount, unassignedCount int

		if err := db.QueryRow("SELECT COUNT(*) FROM hosts").Scan(&hostCount); err != nil {
			log.Printf("dashboard host count failed: %v", err)
		}
		if err := db.QueryRow("SELECT COUNT(*) FROM certificates").Scan(&certCount); err != nil {
			log.Printf("dashboard certificate count failed: %v", err)
		}
		if err := db.QueryRow(`SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN certificate_id IS NULL THEN 1 ELSE 0 END), 0)
			FROM domains`).Scan(&domainCount, &unassignedCount); err != nil {
			log.Printf("dashboard domain counts failed: %v", err)
		}

		var latest *models.ScanRun
		var latestVerdicts []models.ScanVerdict
		runs, err := models.GetRecentScanRuns(db, 1)
		if err != nil {
			log.Printf("dashboard: failed to load latest run: %v", err)
		} else if len(runs) > 0 {
			latest = &runs[0]
			latestVerdicts, err = models.GetVerdictsByRunID(db, latest.ID)
			if err != nil {
				log.Printf("dashboard: failed to load verdicts for run %s: %v", latest.ID, err)
			}
		}

		activities, err := models.GetRecentActivities(db, 10)
		if err != nil {
			log.Printf("dashboard: failed to load activities: %v", err)
		}

		return c.Render("dashboard", fiber.Map{
			"HostCount":       hostCount,
			"CertCount":       certCount,
			"DomainCount":     domainCount,
			"UnassignedCount": unassignedCount,
			"LatestRun":       latest,
			"LatestVerdicts":  latestVerdicts,
			"Activities":      activities,
		})
	}
}
