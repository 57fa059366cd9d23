package auth

import (
	"sync"
	"time"
)

type failureState struct {
	count       int
	lockedUntil time.Time
}

// LockoutTracker throttles brute-force login attempts. The login flow
// records every failure under two keys, the client IP and the attempted
// username, so an attacker can neither rotate addresses against one
// account nor spray one address across accounts. State is in-memory; a
// restart clears it, which is acceptable for a single-admin monitoring
// tool.
type LockoutTracker struct {
	mu       sync.Mutex
	failures map[string]*failureState
	maxFails int
	lockDur  time.Duration
}

func NewLockoutTracker(maxFailedAttempts int, lockoutDuration time.Duration) *LockoutTracker {
	return &LockoutTracker{
		failures: make(map[string]*failureState),
		maxFails: maxFailedAttempts,
		lockDur:  lockoutDuration,
	}
}

// IsLocked returns true if the given key is currently locked out. An
// expired lockout is forgotten on first check, so the next failure
// starts a fresh count.
func (lt *LockoutTracker) IsLocked(key string) bool {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	f, ok := lt.failures[key]
	if !ok || f.count < lt.maxFails {
		return false
	}

	if time.Now().Before(f.lockedUntil) {
		return true
	}

	delete(lt.failures, key)
	return false
}

// RecordFailure increments the failure count for a key and starts the
// lockout window once the count reaches the limit.
func (lt *LockoutTracker) RecordFailure(key string) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	f, ok := lt.failures[key]
	if !ok {
		f = &failureState{}
		lt.failures[key] = f
	}

	f.count++
	if f.count >= lt.maxFails {
		f.lockedUntil = time.Now().Add(lt.lockDur)
	}
}

// Reset clears the failure count for a key (called on successful login).
func (lt *LockoutTracker) Reset(key string) {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	delete(lt.failures, key)
}
