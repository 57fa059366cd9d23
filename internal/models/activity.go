package models

import (
	"database/sql"
	"fmt"
)

// Activity is an audit entry for inventory mutations (host, certificate,
// domain changes) and manual scan triggers.
type Activity struct {
	ID         int
	EntityType string
	EntityID   int
	Action     string
	Details    string
	IP         string
	UserAgent  string
	CreatedAt  string
}

// LogActivity records an audit entry. Failures are deliberately ignored:
// the audit trail must never break an inventory operation.
func LogActivity(db *sql.DB, entityType string, entityID int, action, details, ip, userAgent string) {
	_, _ = db.Exec(
		"INSERT INTO activities (entity_type, entity_id, action, details, ip, user_agent) VALUES (?, ?, ?, ?, ?, ?)",
		entityType, entityID, action, details, ip, userAgent,
	)
}

func GetRecentActivities(db *sql.DB, limit int) ([]Activity, error) {
	rows, err := db.Query(
		`SELECT id, entity_type, COALESCE(entity_id,0), action, COALESCE(details,''),
		        COALESCE(ip,''), COALESCE(user_agent,''), created_at
		 FROM activities ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.EntityType, &a.EntityID, &a.Action, &a.Details, &a.IP, &a.UserAgent, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// PruneActivities removes audit entries older than the retention window.
func PruneActivities(db *sql.DB, retentionDays int) {
	db.Exec(
		"DELETE FROM activities WHERE created_at < datetime('now', ?)",
		fmt.Sprintf("-%d days", retentionDays),
	)
}
