package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"certwatch/internal/scan"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	JWTSecret     string
	AdminUser     string
	AdminPass     string
	DBPath        string
	SecureCookies bool
	BackupDir     string

	WebhookURL   string
	WebhookUser  string
	WebhookPass  string
	EmailTo      string
	EmailSender  string
	EmailSubject string

	ExpiryThreshold int
	ProbeTimeout    time.Duration
	ScanDeadline    time.Duration
	ScanConcurrency int
	DefaultPort     int
	ScanInterval    time.Duration
	ScanOnStart     bool

	JWTExpiryHours     int
	LockoutMaxAttempts int
	LockoutDurationMin int

	RunRetentionDays      int
	ActivityRetentionDays int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("APP_PORT", "3000"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		AdminUser:     getEnv("ADMIN_USER", "admin"),
		AdminPass:     getEnv("ADMIN_PASS", ""),
		DBPath:        getEnv("DB_PATH", "./certwatch.db"),
		SecureCookies: getEnv("SECURE_COOKIES", "false") == "true",
		BackupDir:     getEnv("BACKUP_DIR", "./backups"),

		WebhookURL:   getEnv("WEBHOOK_URL", ""),
		WebhookUser:  getEnv("WEBHOOK_USER", ""),
		WebhookPass:  getEnv("WEBHOOK_PASS", ""),
		EmailTo:      getEnv("EMAIL_TO", ""),
		EmailSender:  getEnv("EMAIL_SENDER", ""),
		EmailSubject: getEnv("EMAIL_SUBJECT", "Expiring TLS certificates"),

		ExpiryThreshold: getEnvInt("EXPIRY_THRESHOLD", 30),
		ProbeTimeout:    getEnvDuration("PROBE_TIMEOUT", 10*time.Second),
		ScanDeadline:    getEnvDuration("SCAN_DEADLINE", 5*time.Minute),
		ScanConcurrency: getEnvInt("SCAN_CONCURRENCY", 8),
		DefaultPort:     getEnvInt("DEFAULT_PORT", 443),
		ScanInterval:    getEnvDuration("SCAN_INTERVAL", 24*time.Hour),
		ScanOnStart:     getEnv("SCAN_ON_START", "false") == "true",

		JWTExpiryHours:     getEnvInt("JWT_EXPIRY_HOURS", 24),
		LockoutMaxAttempts: getEnvInt("LOCKOUT_MAX_ATTEMPTS", 5),
		LockoutDurationMin: getEnvInt("LOCKOUT_DURATION_MIN", 15),

		RunRetentionDays:      getEnvInt("RUN_RETENTION_DAYS", 90),
		ActivityRetentionDays: getEnvInt("ACTIVITY_RETENTION_DAYS", 90),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.AdminPass == "" {
		return nil, fmt.Errorf("ADMIN_PASS is required")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters; use a longer secret in production")
	}

	// Scan parameters fail fast here, before any scheduling starts.
	if err := cfg.ScanSettings().Validate(); err != nil {
		return nil, err
	}
	if cfg.ScanInterval < time.Minute {
		return nil, fmt.Errorf("SCAN_INTERVAL must be at least 1m, got %s", cfg.ScanInterval)
	}

	if cfg.WebhookURL == "" {
		log.Println("WARNING: WEBHOOK_URL is not set; reports will be computed but not delivered")
	} else if cfg.EmailTo == "" || cfg.EmailSender == "" {
		return nil, fmt.Errorf("EMAIL_TO and EMAIL_SENDER are required when WEBHOOK_URL is set")
	}

	if cfg.BackupDir != "" {
		if err := os.MkdirAll(cfg.BackupDir, 0750); err != nil {
			log.Printf("WARNING: could not create BACKUP_DIR %q: %v", cfg.BackupDir, err)
		}
	}

	return cfg, nil
}

// ScanSettings maps the process configuration onto the scan engine's
// configuration surface.
func (c *Config) ScanSettings() scan.Settings {
	return scan.Settings{
		ThresholdDays:   c.ExpiryThreshold,
		ProbeTimeout:    c.ProbeTimeout,
		OverallDeadline: c.ScanDeadline,
		Concurrency:     c.ScanConcurrency,
		DefaultPort:     c.DefaultPort,
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		log.Printf("WARNING: %s=%q is not a valid duration, using %s", key, val, fallback)
	}
	return fallback
}
