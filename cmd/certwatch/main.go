package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"certwatch/internal/auth"
	"certwatch/internal/backup"
	"certwatch/internal/config"
	"certwatch/internal/db"
	"certwatch/internal/handlers"
	"certwatch/internal/inventory"
	"certwatch/internal/metrics"
	"certwatch/internal/models"
	"certwatch/internal/notify"
	"certwatch/internal/scan"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	if err := models.EnsureAdminExists(database, cfg.AdminUser, cfg.AdminPass); err != nil {
		log.Fatalf("Failed to ensure admin user: %v", err)
	}

	store := inventory.NewStore(database)
	runner := &scan.Runner{
		Settings:  cfg.ScanSettings(),
		Inventory: store,
		Recorder:  store,
		Notifier: notify.NewWebhookSender(
			cfg.WebhookURL, cfg.WebhookUser, cfg.WebhookPass,
			cfg.EmailTo, cfg.EmailSender, cfg.EmailSubject,
		),
	}

	bm := backup.NewManager(cfg.BackupDir, cfg.RunRetentionDays)
	lockout := auth.NewLockoutTracker(cfg.LockoutMaxAttempts, time.Duration(cfg.LockoutDurationMin)*time.Minute)

	// Background scan loop plus periodic housekeeping.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go scanLoop(ctx, cfg, database, runner)

	engine := html.New("./templates", ".html")
	engine.AddFunc("verdictClass", verdictClass)

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).SendString(err.Error())
		},
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(helmet.New())
	app.Use(metrics.Middleware())

	// Static files
	app.Static("/static", "./static")

	// Rate limit on login
	loginLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	})

	// Public routes
	app.Get("/login", handlers.LoginPage)
	app.Post("/login", loginLimiter, handlers.LoginPost(database, cfg, lockout))
	app.Post("/login/totp", loginLimiter, handlers.TOTPVerify(database, cfg, lockout))
	app.Get("/logout", handlers.Logout(database, cfg))
	app.Get("/api/status", handlers.PublicStatus(database))
	app.Get("/metrics", metrics.Handler())

	// Protected routes
	protected := app.Group("/", auth.Middleware(database, cfg.JWTSecret))

	// General rate limiter for protected routes
	protected.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))

	// CSRF protection
	protected.Use(csrf.New(csrf.Config{
		KeyLookup:      "header:X-CSRF-Token",
		CookieName:     "csrf_token",
		CookieSameSite: "Lax",
		CookieHTTPOnly: false,
		Expiration:     1 * time.Hour,
	}))

	// Dashboard
	protected.Get("/dashboard", handlers.Dashboard(database))

	// Host CRUD
	protected.Get("/hosts", handlers.ListHosts(database))
	protected.Post("/hosts", handlers.CreateHost(database))
	protected.Post("/hosts/:id", handlers.UpdateHost(database))
	protected.Post("/hosts/:id/delete", handlers.DeleteHost(database))

	// Certificate CRUD
	protected.Get("/certificates", handlers.ListCertificates(database))
	protected.Post("/certificates", handlers.CreateCertificate(database))
	protected.Get("/certificates/:id", handlers.CertificateDetail(database))
	protected.Post("/certificates/:id", handlers.UpdateCertificate(database))
	protected.Post("/certificates/:id/delete", handlers.DeleteCertificate(database))

	// Domain CRUD
	protected.Get("/domains", handlers.ListDomains(database))
	protected.Post("/domains", handlers.CreateDomain(database))
	protected.Post("/domains/:id", handlers.UpdateDomain(database))
	protected.Post("/domains/:id/delete", handlers.DeleteDomain(database))

	// Scan trigger + reports
	protected.Post("/scan/run", handlers.RunScan(database, runner))
	protected.Get("/scan/status", handlers.ScanStatus(runner))
	protected.Get("/reports", handlers.ListReports(database))
	protected.Get("/reports/:id", handlers.ReportDetail(database))

	// Backups
	protected.Get("/backups", handlers.BackupsPage(bm))
	protected.Post("/backups", handlers.CreateDatabaseBackup(bm, cfg.DBPath))
	protected.Post("/backups/:name/delete", handlers.DeleteBackup(bm))
	protected.Get("/backups/:name/download", handlers.DownloadBackup(bm))

	// Two-factor setup
	protected.Get("/settings/2fa", handlers.TOTPSetupPage(database))
	protected.Post("/settings/2fa/enable", handlers.TOTPEnable(database))
	protected.Post("/settings/2fa/disable", handlers.TOTPDisable(database))

	// Redirect root to dashboard
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/dashboard")
	})

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	log.Printf("certwatch starting on port %s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}

// scanLoop runs scheduled scans and periodic retention pruning until the
// context is cancelled.
func scanLoop(ctx context.Context, cfg *config.Config, database *sql.DB, runner *scan.Runner) {
	if cfg.ScanOnStart {
		runScheduledScan(ctx, cfg, database, runner)
	}

	ticker := time.NewTicker(cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runScheduledScan(ctx, cfg, database, runner)
		}
	}
}

func runScheduledScan(ctx context.Context, cfg *config.Config, database *sql.DB, runner *scan.Runner) {
	report, meta, err := runner.Run(ctx)
	if err != nil {
		log.Printf("scheduled scan failed: %v", err)
		return
	}

	flagged := 0
	if report != nil {
		flagged = len(report.Verdicts)
	}
	metrics.Default.RecordScan(meta.DomainsProbed, meta.ProbeFailures, flagged)

	models.PruneScanRuns(database, cfg.RunRetentionDays)
	models.PruneActivities(database, cfg.ActivityRetentionDays)
	auth.CleanupExpiredTokens(database)
}

func verdictClass(verdict string) string {
	switch verdict {
	case "expired":
		return "verdict-expired"
	case "expiring_soon":
		return "verdict-expiring"
	case "unknown":
		return "verdict-unknown"
	default:
		return "verdict-ok"
	}
}
