package handlers

import (
	"database/sql"
	"log"
	"time"

	"certwatch/internal/models"

	"github.com/gofiber/fiber/v2"
)

// PublicStatus returns a JSON array with the latest verdict for each
// certificate marked public. This endpoint is unauthenticated and intended
// for external consumption (status pages, uptime monitors).
func PublicStatus(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		certs, err := models.GetAllCertificates(db)
		if err != nil {
			log.Printf("failed to list certificates for public status: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to load certificate status",
			})
		}

		type statusJSON struct {
			Certificate string `json:"certificate"`
			Host        string `json:"host,omitempty"`
			Verdict     string `json:"verdict"`
			NotAfter    string `json:"not_after,omitempty"`
			DaysLeft    *int64 `json:"days_left,omitempty"`
		}

		result := make([]statusJSON, 0, len(certs))
		for _, cert := range certs {
			if !cert.Public {
				continue
			}

			entry := statusJSON{
				Certificate: cert.Name,
				Host:        cert.HostName,
				Verdict:     "ok",
			}

			// Only flagged verdicts are persisted; absence means the last
			// scan found nothing wrong (or the cert was never scanned).
			v, err := models.GetLatestVerdictForCertificate(db, cert.ID)
			if err == nil {
				entry.Verdict = v.Verdict
				if v.NotAfter.Valid {
					entry.NotAfter = v.NotAfter.Time.UTC().Format(time.RFC3339)
				}
				if v.DaysLeft.Valid {
					d := v.DaysLeft.Int64
					entry.DaysLeft = &d
				}
			}

			result = append(result, entry)
		}

		c.Set("Cache-Control", "public, max-age=300")
		c.Set("Last-Modified", time.Now().UTC().Format(time.RFC1123))
		return c.JSON(result)
	}
}
