package scan

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"strconv"
	"syscall"
	"time"
)

type OutcomeKind int

const (
	// OutcomeExpiry means the handshake completed and the leaf
	// certificate's NotAfter was read.
	OutcomeExpiry OutcomeKind = iota
	// OutcomeUnreachable covers DNS failures, connection refused, and
	// network/host unreachable conditions.
	OutcomeUnreachable
	// OutcomeTLSFailure means TCP connected but the TLS layer failed.
	OutcomeTLSFailure
	// OutcomeTimeout means the probe did not finish within its budget.
	OutcomeTimeout
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeExpiry:
		return "expiry_observed"
	case OutcomeUnreachable:
		return "unreachable"
	case OutcomeTLSFailure:
		return "tls_failure"
	case OutcomeTimeout:
		return "timeout"
	}
	return "unknown"
}

// ProbeResult is produced once per domain per scan run and consumed by the
// reconciler. NotAfter is only meaningful when Outcome is OutcomeExpiry;
// Reason is only set for OutcomeTLSFailure and OutcomeUnreachable.
type ProbeResult struct {
	DomainID   int
	FQDN       string
	Port       int
	Outcome    OutcomeKind
	NotAfter   time.Time
	Reason     string
	ObservedAt time.Time
}

// Probe opens a TLS connection to fqdn:port with SNI set to fqdn and reads
// the leaf certificate's expiry. It deliberately skips chain and hostname
// verification: this is an expiry monitor, not a validator, and a server
// presenting the wrong certificate still has an expiry worth observing.
// The connection is closed on every path. An fqdn that already carries a
// ":port" suffix overrides the port argument.
func Probe(ctx context.Context, fqdn string, port int, timeout time.Duration) ProbeResult {
	host, port := splitTarget(fqdn, port)

	result := ProbeResult{
		FQDN:       fqdn,
		Port:       port,
		ObservedAt: time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: timeout},
		Config: &tls.Config{
			ServerName:         host,
			InsecureSkipVerify: true,
		},
	}

	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		result.Outcome, result.Reason = classifyDialError(err)
		return result
	}
	defer conn.Close()

	certs := conn.(*tls.Conn).ConnectionState().PeerCertificates
	if len(certs) == 0 {
		result.Outcome = OutcomeTLSFailure
		result.Reason = "no certificates presented"
		return result
	}

	// Index 0 is always the leaf (server) certificate.
	result.Outcome = OutcomeExpiry
	result.NotAfter = certs[0].NotAfter.UTC()
	return result
}

// splitTarget separates an optional ":port" suffix from a domain string,
// falling back to the supplied default port.
func splitTarget(fqdn string, defaultPort int) (string, int) {
	host, portStr, err := net.SplitHostPort(fqdn)
	if err != nil {
		return fqdn, defaultPort
	}
	p, err := strconv.Atoi(portStr)
	if err != nil || p < 1 || p > 65535 {
		return host, defaultPort
	}
	return host, p
}

func classifyDialError(err error) (OutcomeKind, string) {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return OutcomeTimeout, ""
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return OutcomeUnreachable, err.Error()
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return OutcomeUnreachable, err.Error()
	}

	// TCP connected but the handshake failed (protocol mismatch, reset
	// mid-handshake, plain-text server on a TLS port).
	return OutcomeTLSFailure, err.Error()
}
