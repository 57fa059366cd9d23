package mcptools

import (
	"database/sql"

	"certwatch/internal/backup"
	"certwatch/internal/scan"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func RegisterTools(s *server.MCPServer, db *sql.DB, runner *scan.Runner, bm *backup.Manager, dbPath string) {
	h := &handlers{db: db, runner: runner, bm: bm, dbPath: dbPath}

	s.AddTool(
		mcp.NewTool("list_hosts",
			mcp.WithDescription("List all hosts with their certificate counts."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
		),
		h.listHosts,
	)

	s.AddTool(
		mcp.NewTool("list_certificates",
			mcp.WithDescription("List all tracked certificates with their host assignment and domain counts. Optionally filter by host or public flag."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithNumber("host_id", mcp.Description("Filter by host ID")),
			mcp.WithBoolean("public", mcp.Description("Only certificates exposed on the public status endpoint")),
		),
		h.listCertificates,
	)

	s.AddTool(
		mcp.NewTool("list_domains",
			mcp.WithDescription("List all domains with their certificate assignment. Unassigned domains are excluded from scans."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithBoolean("unassigned", mcp.Description("Only domains with no certificate assigned")),
		),
		h.listDomains,
	)

	s.AddTool(
		mcp.NewTool("get_latest_report",
			mcp.WithDescription("Get the most recent scan run and its flagged certificate verdicts (expired, expiring soon, or unknown)."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
		),
		h.getLatestReport,
	)

	s.AddTool(
		mcp.NewTool("get_scan_history",
			mcp.WithDescription("Get recent scan runs with probe and flag counts."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithNumber("limit", mcp.Description("Number of runs to return (default 10)")),
		),
		h.getScanHistory,
	)

	s.AddTool(
		mcp.NewTool("get_certificate_status",
			mcp.WithDescription("Get the latest persisted verdict for one certificate, including per-domain probe outcomes."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithNumber("certificate_id", mcp.Description("Certificate ID"), mcp.Required()),
		),
		h.getCertificateStatus,
	)

	s.AddTool(
		mcp.NewTool("run_scan",
			mcp.WithDescription("Probe every assigned domain now and return the resulting report. Fails if a scan is already in flight."),
			mcp.WithReadOnlyHintAnnotation(false),
			mcp.WithDestructiveHintAnnotation(false),
		),
		h.runScan,
	)

	s.AddTool(
		mcp.NewTool("get_activity_log",
			mcp.WithDescription("Get the recent audit trail of inventory changes and scan triggers."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithNumber("limit", mcp.Description("Number of activities to return (default 20)")),
			mcp.WithString("entity_type", mcp.Description("Filter by entity type (host, certificate, domain, scan, user)")),
		),
		h.getActivityLog,
	)

	s.AddTool(
		mcp.NewTool("backup_database",
			mcp.WithDescription("Create a gzip-compressed backup of the SQLite database. Returns the backup file path."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
		),
		h.backupDatabase,
	)
}
