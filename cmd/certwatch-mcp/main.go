package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"certwatch/internal/backup"
	"certwatch/internal/db"
	"certwatch/internal/inventory"
	mcptools "certwatch/internal/mcp"
	"certwatch/internal/scan"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	_ = godotenv.Load()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./certwatch.db"
	}

	database, err := db.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	threshold := 30
	if v, err := strconv.Atoi(os.Getenv("EXPIRY_THRESHOLD")); err == nil && v >= 0 {
		threshold = v
	}

	store := inventory.NewStore(database)
	runner := &scan.Runner{
		Settings: scan.Settings{
			ThresholdDays:   threshold,
			ProbeTimeout:    10 * time.Second,
			OverallDeadline: 5 * time.Minute,
			Concurrency:     8,
			DefaultPort:     443,
		},
		Inventory: store,
		Recorder:  store,
	}

	backupDir := os.Getenv("BACKUP_DIR")
	if backupDir == "" {
		backupDir = "./backups"
	}
	bm := backup.NewManager(backupDir, 90)

	s := server.NewMCPServer(
		"certwatch",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	mcptools.RegisterTools(s, database, runner, bm, dbPath)

	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
