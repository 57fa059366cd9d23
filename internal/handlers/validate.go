package handlers

import (
	"regexp"
	"strings"
)

var domainRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9\-]{0,62}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9\-]{0,62}[a-zA-Z0-9])?)*$`)

// validateDomain accepts a DNS name, optionally with a ":port" suffix.
func validateDomain(domain string) bool {
	if host, port, ok := strings.Cut(domain, ":"); ok {
		if !validatePortString(port) {
			return false
		}
		domain = host
	}
	if domain == "" || len(domain) > 253 {
		return false
	}
	return domainRegex.MatchString(domain)
}

// validatePort accepts 0 as "use the configured default port".
func validatePort(port int) bool {
	return port >= 0 && port <= 65535
}

func validatePortString(s string) bool {
	if s == "" || len(s) > 5 {
		return false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
		n = n*10 + int(r-'0')
	}
	return n >= 1 && n <= 65535
}

func validateName(name string) bool {
	return name != "" && len(name) <= 200
}

func sanitizeLogInput(s string) string {
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "\r", "")
	return s
}
