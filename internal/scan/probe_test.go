package scan

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestProbe_ObservesLeafExpiry(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	addr := srv.Listener.Addr().String()
	result := Probe(context.Background(), addr, 443, 5*time.Second)

	if result.Outcome != OutcomeExpiry {
		t.Fatalf("expected expiry_observed, got %s (%s)", result.Outcome, result.Reason)
	}
	want := srv.Certificate().NotAfter.UTC()
	if !result.NotAfter.Equal(want) {
		t.Errorf("expected NotAfter %s, got %s", want, result.NotAfter)
	}
}

func TestProbe_ConnectionRefusedIsUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	result := Probe(context.Background(), addr, 443, 2*time.Second)
	if result.Outcome != OutcomeUnreachable {
		t.Errorf("expected unreachable, got %s (%s)", result.Outcome, result.Reason)
	}
}

func TestProbe_DNSFailureIsUnreachable(t *testing.T) {
	result := Probe(context.Background(), "nonexistent.invalid", 443, 2*time.Second)
	if result.Outcome != OutcomeUnreachable {
		t.Errorf("expected unreachable for unresolvable host, got %s (%s)", result.Outcome, result.Reason)
	}
}

func TestProbe_PlainTextServerIsTLSFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Write([]byte("HTTP/1.1 400 Bad Request\r\n\r\n"))
			conn.Close()
		}
	}()

	result := Probe(context.Background(), ln.Addr().String(), 443, 2*time.Second)
	if result.Outcome != OutcomeTLSFailure {
		t.Errorf("expected tls_failure, got %s (%s)", result.Outcome, result.Reason)
	}
	if result.Reason == "" {
		t.Error("tls_failure should carry a reason")
	}
}

func TestProbe_StalledHandshakeIsTimeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	// Accept the TCP connection but never answer the ClientHello.
	done := make(chan struct{})
	defer close(done)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		<-done
	}()

	start := time.Now()
	result := Probe(context.Background(), ln.Addr().String(), 443, 300*time.Millisecond)
	elapsed := time.Since(start)

	if result.Outcome != OutcomeTimeout {
		t.Errorf("expected timeout, got %s (%s)", result.Outcome, result.Reason)
	}
	if elapsed > 2*time.Second {
		t.Errorf("probe took %s, should abandon around its 300ms budget", elapsed)
	}
}

func TestSplitTarget(t *testing.T) {
	cases := []struct {
		fqdn     string
		defPort  int
		wantHost string
		wantPort int
	}{
		{"example.com", 443, "example.com", 443},
		{"example.com:8443", 443, "example.com", 8443},
		{"example.com:0", 443, "example.com", 443},
		{"example.com:notaport", 443, "example.com", 443},
	}
	for _, c := range cases {
		host, port := splitTarget(c.fqdn, c.defPort)
		if host != c.wantHost || port != c.wantPort {
			t.Errorf("splitTarget(%q, %d) = (%q, %d), want (%q, %d)",
				c.fqdn, c.defPort, host, port, c.wantHost, c.wantPort)
		}
	}
}
