package auth

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	_ "modernc.org/sqlite"
)

const testSecret = "test-secret-key-at-least-32-chars!!"

// newTestDB opens an in-memory SQLite database with the revoked_tokens
// table so revocation checks have a valid schema to operate against.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS revoked_tokens (jti TEXT PRIMARY KEY, expires_at DATETIME)`)
	if err != nil {
		t.Fatalf("create revoked_tokens table: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newApp(middleware ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handlers := append(middleware, func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/", handlers...)
	return app
}

func tokenCookie(t *testing.T, userID int, username string) string {
	t.Helper()
	tok, err := GenerateToken(userID, username, testSecret, 24)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return "token=" + tok
}

func TestMiddleware_RedirectsWhenNoCookie(t *testing.T) {
	app := newApp(Middleware(newTestDB(t), testSecret))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}

	if resp.StatusCode != http.StatusFound {
		t.Errorf("expected 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/login" {
		t.Errorf("expected redirect to /login, got %q", loc)
	}
}

func TestMiddleware_RedirectsWhenTokenInvalid(t *testing.T) {
	app := newApp(Middleware(newTestDB(t), testSecret))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Cookie", "token=this.is.not.a.valid.jwt")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}

	if resp.StatusCode != http.StatusFound {
		t.Errorf("expected 302, got %d", resp.StatusCode)
	}
}

func TestMiddleware_AllowsValidToken(t *testing.T) {
	app := newApp(Middleware(newTestDB(t), testSecret))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Cookie", tokenCookie(t, 1, "admin"))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestMiddleware_RejectsRevokedToken(t *testing.T) {
	db := newTestDB(t)
	app := newApp(Middleware(db, testSecret))

	tok, err := GenerateToken(1, "admin", testSecret, 24)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	claims, err := ValidateToken(tok, testSecret)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if err := RevokeToken(db, claims.ID, time.Now().Add(24*time.Hour)); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Cookie", "token="+tok)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}

	if resp.StatusCode != http.StatusFound {
		t.Errorf("expected revoked token to redirect, got %d", resp.StatusCode)
	}
}
