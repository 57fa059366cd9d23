package models

import (
	"database/sql"
	"fmt"
	"time"

	"certwatch/internal/auth"
)

type User struct {
	ID          int
	Username    string
	Password    string
	TOTPSecret  sql.NullString
	TOTPEnabled bool
	CreatedAt   time.Time
}

func GetUserByUsername(db *sql.DB, username string) (*User, error) {
	user := &User{}
	err := db.QueryRow(
		"SELECT id, username, password, totp_secret, totp_enabled, created_at FROM users WHERE username = ?",
		username,
	).Scan(&user.ID, &user.Username, &user.Password, &user.TOTPSecret, &user.TOTPEnabled, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	return user, nil
}

func GetUserByID(db *sql.DB, id int) (*User, error) {
	user := &User{}
	err := db.QueryRow(
		"SELECT id, username, password, totp_secret, totp_enabled, created_at FROM users WHERE id = ?",
		id,
	).Scan(&user.ID, &user.Username, &user.Password, &user.TOTPSecret, &user.TOTPEnabled, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	return user, nil
}

func CreateUser(db *sql.DB, username, hashedPassword string) error {
	_, err := db.Exec(
		"INSERT INTO users (username, password) VALUES (?, ?)",
		username, hashedPassword,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func SetUserTOTPSecret(db *sql.DB, id int, secret string) error {
	_, err := db.Exec("UPDATE users SET totp_secret = ?, totp_enabled = 0 WHERE id = ?", secret, id)
	if err != nil {
		return fmt.Errorf("failed to store TOTP secret: %w", err)
	}
	return nil
}

func EnableUserTOTP(db *sql.DB, id int) error {
	_, err := db.Exec("UPDATE users SET totp_enabled = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to enable TOTP: %w", err)
	}
	return nil
}

func DisableUserTOTP(db *sql.DB, id int) error {
	_, err := db.Exec("UPDATE users SET totp_secret = NULL, totp_enabled = 0 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to disable TOTP: %w", err)
	}
	return nil
}

// EnsureAdminExists creates the admin user if it doesn't exist, or updates
// the stored password hash when the configured plain-text password no longer
// matches, so changes to ADMIN_PASS in .env take effect on restart.
func EnsureAdminExists(db *sql.DB, username, plainPassword string) error {
	var currentHash string
	err := db.QueryRow("SELECT password FROM users WHERE username = ?", username).Scan(&currentHash)

	if err == sql.ErrNoRows {
		hash, err := auth.HashPassword(plainPassword)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}
		return CreateUser(db, username, hash)
	}
	if err != nil {
		return fmt.Errorf("failed to check admin existence: %w", err)
	}

	if !auth.CheckPassword(currentHash, plainPassword) {
		hash, err := auth.HashPassword(plainPassword)
		if err != nil {
			return fmt.Errorf("failed to hash updated admin password: %w", err)
		}
		_, err = db.Exec("UPDATE users SET password = ? WHERE username = ?", hash, username)
		if err != nil {
			return fmt.Errorf("failed to update admin password: %w", err)
		}
	}

	return nil
}
