package refresh

import (
	"fmt"
	"time"
)

const (
	// DefaultNormalTimeout keeps successful data for an hour so rate-limited upstreams are not bothered too often.
	DefaultNormalTimeout = time.Hour
	// DefaultErrorTimeout is the cooldown before retrying after a failed refresh.
	DefaultErrorTimeout = 6 * time.Minute
)

// Policy holds the staleness thresholds of the gate.
type Policy struct {
	NormalTimeout time.Duration
	ErrorTimeout  time.Duration
}

// DefaultPolicy returns the 1h / 6min policy.
func DefaultPolicy() Policy {
	return Policy{NormalTimeout: DefaultNormalTimeout, ErrorTimeout: DefaultErrorTimeout}
}

// Validate checks 0 < ErrorTimeout < NormalTimeout.
func (p Policy) Validate() error {
	if p.ErrorTimeout <= 0 {
		return fmt.Errorf("error timeout must be positive, got %s", p.ErrorTimeout)
	}
	if p.NormalTimeout <= p.ErrorTimeout {
		return fmt.Errorf("error timeout (%s) must be shorter than normal timeout (%s)", p.ErrorTimeout, p.NormalTimeout)
	}
	return nil
}

// IsOutdated reports whether entry must be refreshed at now.
func IsOutdated[T any](p Policy, entry Entry[T], now time.Time) bool {
	if !entry.Attempted() {
		return true
	}
	age := now.Sub(entry.LastUpdated)
	if entry.WasError && age >= p.ErrorTimeout {
		return true
	}
	return age >= p.NormalTimeout
}

// NextRefresh returns the earliest time entry becomes outdated.
func NextRefresh[T any](p Policy, entry Entry[T]) time.Time {
	if !entry.Attempted() {
		return time.Time{}
	}
	if entry.WasError {
		return entry.LastUpdated.Add(p.ErrorTimeout)
	}
	return entry.LastUpdated.Add(p.NormalTimeout)
}
