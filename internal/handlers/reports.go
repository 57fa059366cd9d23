package handlers

import (
	"database/sql"
	"encoding/json"
	"log"

	"certwatch/internal/models"

	"github.com/gofiber/fiber/v2"
)

func ListReports(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		runs, err := models.GetRecentScanRuns(db, 50)
		if err != nil {
			log.Printf("failed to list scan runs: %v", err)
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to load reports")
		}

		return c.Render("reports", fiber.Map{"Runs": runs})
	}
}

// domainOutcomeView is the decoded shape of a verdict's stored domain
// outcomes for display.
type domainOutcomeView struct {
	FQDN     string `json:"fqdn"`
	Outcome  string `json:"outcome"`
	NotAfter string `json:"not_after,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

func ReportDetail(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		runID := c.Params("id")
		run, err := models.GetScanRunByID(db, runID)
		if err != nil {
			return c.Status(fiber.StatusNotFound).SendString("Report not found")
		}

		verdicts, err := models.GetVerdictsByRunID(db, runID)
		if err != nil {
			log.Printf("failed to load verdicts for run %s: %v", runID, err)
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to load report")
		}

		type verdictView struct {
			models.ScanVerdict
			DomainOutcomes []domainOutcomeView
		}

		views := make([]verdictView, 0, len(verdicts))
		for _, v := range verdicts {
			view := verdictView{ScanVerdict: v}
			if v.Domains != "" {
				if err := json.Unmarshal([]byte(v.Domains), &view.DomainOutcomes); err != nil {
					log.Printf("failed to decode domain outcomes for verdict %d: %v", v.ID, err)
				}
			}
			views = append(views, view)
		}

		return c.Render("report_detail", fiber.Map{
			"Run":      run,
			"Verdicts": views,
		})
	}
}
