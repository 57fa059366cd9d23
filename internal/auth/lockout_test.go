package auth

import (
	"fmt"
	"testing"
	"time"
)

func TestLockout_ThresholdBoundary(t *testing.T) {
	cases := []struct {
		maxFails int
		failures int
		locked   bool
	}{
		{3, 0, false},
		{3, 2, false},
		{3, 3, true},
		{3, 5, true},
		{1, 1, true},
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("%d of %d failures", c.failures, c.maxFails), func(t *testing.T) {
			lt := NewLockoutTracker(c.maxFails, time.Hour)
			for i := 0; i < c.failures; i++ {
				lt.RecordFailure("admin")
			}
			if got := lt.IsLocked("admin"); got != c.locked {
				t.Errorf("IsLocked = %v, want %v", got, c.locked)
			}
		})
	}
}

func TestLockout_KeysAreIndependent(t *testing.T) {
	// The login flow throttles the client IP and the attempted username
	// as separate keys; locking one must not lock the other.
	lt := NewLockoutTracker(2, time.Hour)

	lt.RecordFailure("203.0.113.7")
	lt.RecordFailure("203.0.113.7")

	if !lt.IsLocked("203.0.113.7") {
		t.Error("IP key should be locked after reaching the limit")
	}
	if lt.IsLocked("admin") {
		t.Error("username key must be unaffected by failures on the IP key")
	}
}

func TestLockout_ExpiryForgetsFailures(t *testing.T) {
	lt := NewLockoutTracker(2, 30*time.Millisecond)

	lt.RecordFailure("admin")
	lt.RecordFailure("admin")
	if !lt.IsLocked("admin") {
		t.Fatal("expected lockout after reaching the limit")
	}

	time.Sleep(40 * time.Millisecond)
	if lt.IsLocked("admin") {
		t.Error("lockout should expire after the configured duration")
	}

	// The expired entry is dropped entirely, so one fresh failure must
	// not re-lock.
	lt.RecordFailure("admin")
	if lt.IsLocked("admin") {
		t.Error("a single failure after expiry must not lock again")
	}
}

func TestLockout_ResetOnSuccessfulLogin(t *testing.T) {
	lt := NewLockoutTracker(3, time.Hour)

	lt.RecordFailure("admin")
	lt.RecordFailure("admin")
	lt.Reset("admin")

	// The counter restarts from zero after a successful login.
	lt.RecordFailure("admin")
	lt.RecordFailure("admin")
	if lt.IsLocked("admin") {
		t.Error("failures before a reset must not count toward the limit")
	}

	lt.RecordFailure("admin")
	if !lt.IsLocked("admin") {
		t.Error("expected lockout after three post-reset failures")
	}
}
