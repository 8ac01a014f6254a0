package refresh

import (
	"math"
	"strconv"
	"time"
)

// Status is the outcome kind of a gate lookup.
type Status string

const (
	StatusFresh          Status = "fresh"
	StatusStaleFromError Status = "stale_from_error"
	StatusNoDataYet      Status = "no_data_yet"
)

// Result is what callers of the gate observe. Value is set for Fresh and
// StaleFromError, RetryAfter only for NoDataYet.
type Result[T any] struct {
	Status     Status
	Value      T
	RetryAfter time.Duration
}

// HasValue reports whether the result carries data that can be served.
func (r Result[T]) HasValue() bool {
	return r.Status != StatusNoDataYet
}

// Resolve maps an entry to the outcome served to callers.
func Resolve[T any](p Policy, entry Entry[T]) Result[T] {
	switch {
	case !entry.WasError:
		return Result[T]{Status: StatusFresh, Value: entry.Value}
	case entry.HasValue:
		return Result[T]{Status: StatusStaleFromError, Value: entry.Value}
	default:
		return Result[T]{Status: StatusNoDataYet, RetryAfter: p.ErrorTimeout}
	}
}

// RetryAfterSeconds renders d as a Retry-After header value in whole seconds, rounded up.
func RetryAfterSeconds(d time.Duration) string {
	secs := int64(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
