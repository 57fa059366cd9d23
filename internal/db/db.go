package db

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// Open opens (or creates) the certwatch database and applies the embedded
// schema. The scan ticker and the web surface share one handle, so WAL
// mode is enabled for concurrent reads during a write.
func Open(dbPath string) (*sql.DB, error) {
	database, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := database.Exec("PRAGMA journal_mode=WAL"); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Wait up to 5s for locks instead of failing immediately with SQLITE_BUSY
	database.Exec("PRAGMA busy_timeout = 5000")
	database.Exec("PRAGMA foreign_keys = ON")

	if _, err := database.Exec(schema); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return database, nil
}
