package auth

import (
	"strings"
	"testing"
)

func TestHashPassword_SaltedBcrypt(t *testing.T) {
	first, err := HashPassword("certwatch-admin-pass")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !strings.HasPrefix(first, "$2") {
		t.Errorf("expected a bcrypt hash, got %q", first)
	}

	// Admin bootstrap rehashes on every credential change; the salt
	// must make each hash unique even for an unchanged password.
	second, err := HashPassword("certwatch-admin-pass")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if first == second {
		t.Error("two hashes of the same password must differ")
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	cases := []struct {
		name     string
		hash     string
		password string
		want     bool
	}{
		{"matching password", hash, "correct horse", true},
		{"wrong password", hash, "battery staple", false},
		{"empty password", hash, "", false},
		{"empty stored hash", "", "correct horse", false},
		{"plaintext stored instead of hash", "correct horse", "correct horse", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := CheckPassword(c.hash, c.password); got != c.want {
				t.Errorf("CheckPassword = %v, want %v", got, c.want)
			}
		})
	}
}
