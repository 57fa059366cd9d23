package handlers

import (
	"strings"
	"testing"
)

func TestValidateDomain_Valid(t *testing.T) {
	cases := []string{
		"example.com",
		"sub.example.com",
		"my-site.example.co.uk",
		"example.com:8443",
		"localhost",
	}
	for _, c := range cases {
		if !validateDomain(c) {
			t.Errorf("expected %q to be valid", c)
		}
	}
}

func TestValidateDomain_Invalid(t *testing.T) {
	cases := []string{
		"",
		"-example.com",
		"example.com:",
		"example.com:notaport",
		"example.com:99999",
		strings.Repeat("a", 254),
	}
	for _, c := range cases {
		if validateDomain(c) {
			t.Errorf("expected %q to be invalid", c)
		}
	}
}

func TestValidatePort(t *testing.T) {
	valid := []int{0, 443, 8443, 65535}
	for _, p := range valid {
		if !validatePort(p) {
			t.Errorf("expected port %d to be valid", p)
		}
	}
	invalid := []int{-1, 65536}
	for _, p := range invalid {
		if validatePort(p) {
			t.Errorf("expected port %d to be invalid", p)
		}
	}
}

func TestValidateName(t *testing.T) {
	if !validateName("wildcard-prod") {
		t.Error("expected name to be valid")
	}
	if validateName("") {
		t.Error("empty name should be invalid")
	}
	if validateName(strings.Repeat("x", 201)) {
		t.Error("names over 200 chars should be invalid")
	}
}

func TestSanitizeLogInput(t *testing.T) {
	if got := sanitizeLogInput("hello\nworld\r"); got != "helloworld" {
		t.Errorf("expected %q, got %q", "helloworld", got)
	}
}
