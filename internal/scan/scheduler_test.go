package scan

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_ProbesEveryTarget(t *testing.T) {
	targets := make([]Target, 20)
	for i := range targets {
		targets[i] = Target{DomainID: i + 1, FQDN: fmt.Sprintf("d%d.example.com", i), Port: 443}
	}

	s := NewScheduler(4, time.Second, 10*time.Second)
	s.probe = func(_ context.Context, fqdn string, port int, _ time.Duration) ProbeResult {
		return ProbeResult{FQDN: fqdn, Port: port, Outcome: OutcomeExpiry, NotAfter: time.Now().Add(time.Hour)}
	}

	results := s.Run(context.Background(), targets)
	if len(results) != len(targets) {
		t.Fatalf("expected %d results, got %d", len(targets), len(results))
	}

	seen := make(map[int]bool)
	for _, r := range results {
		seen[r.DomainID] = true
	}
	for _, tgt := range targets {
		if !seen[tgt.DomainID] {
			t.Errorf("no result for domain %d", tgt.DomainID)
		}
	}
}

func TestScheduler_BoundsConcurrency(t *testing.T) {
	const limit = 3

	var inFlight, peak atomic.Int64
	var mu sync.Mutex

	s := NewScheduler(limit, time.Second, 10*time.Second)
	s.probe = func(_ context.Context, fqdn string, port int, _ time.Duration) ProbeResult {
		n := inFlight.Add(1)
		mu.Lock()
		if n > peak.Load() {
			peak.Store(n)
		}
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return ProbeResult{FQDN: fqdn, Outcome: OutcomeExpiry}
	}

	targets := make([]Target, 30)
	for i := range targets {
		targets[i] = Target{DomainID: i + 1, FQDN: "x.example.com", Port: 443}
	}
	s.Run(context.Background(), targets)

	if p := peak.Load(); p > limit {
		t.Errorf("observed %d concurrent probes, limit is %d", p, limit)
	}
}

func TestScheduler_DeadlineRecordsRemainingAsTimeouts(t *testing.T) {
	var attempted atomic.Int64

	s := NewScheduler(1, 50*time.Millisecond, 120*time.Millisecond)
	s.probe = func(ctx context.Context, fqdn string, port int, _ time.Duration) ProbeResult {
		attempted.Add(1)
		select {
		case <-time.After(40 * time.Millisecond):
		case <-ctx.Done():
		}
		return ProbeResult{FQDN: fqdn, Outcome: OutcomeExpiry, NotAfter: time.Now().Add(time.Hour)}
	}

	targets := make([]Target, 10)
	for i := range targets {
		targets[i] = Target{DomainID: i + 1, FQDN: fmt.Sprintf("d%d.example.com", i), Port: 443}
	}

	start := time.Now()
	results := s.Run(context.Background(), targets)
	elapsed := time.Since(start)

	if len(results) != len(targets) {
		t.Fatalf("expected %d results even with the deadline cut, got %d", len(targets), len(results))
	}
	if elapsed > time.Second {
		t.Errorf("run took %s, deadline was 120ms", elapsed)
	}

	timeouts := 0
	for _, r := range results {
		if r.Outcome == OutcomeTimeout {
			timeouts++
		}
	}
	if timeouts == 0 {
		t.Error("expected some targets recorded as timeouts after the deadline")
	}
	if got := attempted.Load(); int(got)+timeouts < len(targets) {
		t.Errorf("every target must be attempted or timed out: %d attempted, %d timeouts", got, timeouts)
	}
}

func TestScheduler_SlowProbeDoesNotStarveOthers(t *testing.T) {
	s := NewScheduler(2, 100*time.Millisecond, 5*time.Second)
	s.probe = func(ctx context.Context, fqdn string, port int, timeout time.Duration) ProbeResult {
		if fqdn == "stuck.example.com" {
			select {
			case <-time.After(timeout):
				return ProbeResult{FQDN: fqdn, Outcome: OutcomeTimeout}
			case <-ctx.Done():
				return ProbeResult{FQDN: fqdn, Outcome: OutcomeTimeout}
			}
		}
		return ProbeResult{FQDN: fqdn, Outcome: OutcomeExpiry, NotAfter: time.Now().Add(time.Hour)}
	}

	targets := []Target{
		{DomainID: 1, FQDN: "stuck.example.com", Port: 443},
		{DomainID: 2, FQDN: "fast-1.example.com", Port: 443},
		{DomainID: 3, FQDN: "fast-2.example.com", Port: 443},
		{DomainID: 4, FQDN: "fast-3.example.com", Port: 443},
	}

	results := s.Run(context.Background(), targets)

	ok := 0
	for _, r := range results {
		if r.Outcome == OutcomeExpiry {
			ok++
		}
	}
	if ok != 3 {
		t.Errorf("expected 3 successful probes alongside the stalled one, got %d", ok)
	}
}
