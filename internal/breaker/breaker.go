// Package breaker implements a single process-wide circuit breaker guarding
// calls to the backend. It is a simplified, single-service relative of the
// per-service health monitor pattern: one threshold, one cooldown, one
// mutex, since this proxy only ever talks to one configured backend.
package breaker

import (
	"sync"
	"time"
)

const (
	// FailureThreshold is the consecutive-failure count that trips the
	// breaker open.
	FailureThreshold = 5
	// CooldownPeriod is how long the breaker stays open before a probe
	// request is allowed through.
	CooldownPeriod = 30 * time.Second
)

// Breaker is a three-state (closed/open/half-open) circuit breaker. The
// half-open state is implicit: once the cooldown elapses the breaker
// resets to closed optimistically and lets the probe request through,
// without a distinct stored state.
type Breaker struct {
	mu sync.Mutex

	enabled         bool
	consecutiveFail int
	isOpen          bool
	lastFailureTime time.Time
}

// New creates a Breaker. When enabled is false, ShouldAllowRequest always
// returns true; failures are still counted for the /health report, matching
// the ENABLE_CIRCUIT_BREAKER configuration knob.
func New(enabled bool) *Breaker {
	return &Breaker{enabled: enabled}
}

// RecordSuccess zeroes the failure counter and closes the breaker.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFail = 0
	b.isOpen = false
}

// RecordFailure increments the consecutive-failure counter and trips the
// breaker open once it reaches FailureThreshold.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFail++
	b.lastFailureTime = time.Now()
	if b.consecutiveFail >= FailureThreshold {
		b.isOpen = true
	}
}

// ShouldAllowRequest reports whether a request may proceed. An open breaker
// that has been open for at least CooldownPeriod resets to closed and
// allows the probe request through; otherwise it denies.
func (b *Breaker) ShouldAllowRequest() bool {
	if !b.enabled {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.isOpen {
		return true
	}

	if time.Since(b.lastFailureTime) >= CooldownPeriod {
		b.isOpen = false
		b.consecutiveFail = 0
		return true
	}
	return false
}

// IsOpen reports the breaker's current trip state, for diagnostics.
func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.isOpen
}

// ConsecutiveFailures reports the current failure streak, for diagnostics.
func (b *Breaker) ConsecutiveFailures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.consecutiveFail
}
