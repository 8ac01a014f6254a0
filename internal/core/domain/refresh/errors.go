package refresh

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies why a refresh failed.
type Kind string

const (
	KindUnavailable Kind = "upstream_unavailable"
	KindRateLimited Kind = "upstream_rate_limited"
	KindMalformed   Kind = "upstream_malformed"
	KindUnknown     Kind = "unknown_failure"
)

// FetchError is an upstream failure annotated with its kind and source.
type FetchError struct {
	Kind   Kind
	Source string
	// ResetAt is the throttling reset hint of a rate-limited upstream, zero when not announced.
	ResetAt time.Time
	Err     error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Source, e.Kind)
	if !e.ResetAt.IsZero() {
		msg += fmt.Sprintf(" (resets at %s)", e.ResetAt.UTC().Format(time.RFC3339))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Unavailable wraps a transport failure reaching source.
func Unavailable(source string, err error) *FetchError {
	return &FetchError{Kind: KindUnavailable, Source: source, Err: err}
}

// RateLimited wraps a throttling response from source.
func RateLimited(source string, resetAt time.Time, err error) *FetchError {
	return &FetchError{Kind: KindRateLimited, Source: source, ResetAt: resetAt, Err: err}
}

// Malformed wraps a response from source that could not be parsed.
func Malformed(source string, err error) *FetchError {
	return &FetchError{Kind: KindMalformed, Source: source, Err: err}
}

// Classify returns the kind of err; anything that is not a FetchError is unknown.
func Classify(err error) Kind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// ResetHint returns the rate limit reset time carried by err, if any.
func ResetHint(err error) (time.Time, bool) {
	var fe *FetchError
	if errors.As(err, &fe) && !fe.ResetAt.IsZero() {
		return fe.ResetAt, true
	}
	return time.Time{}, false
}

// SourceOf returns the upstream name carried by err, or "unknown".
func SourceOf(err error) string {
	var fe *FetchError
	if errors.As(err, &fe) && fe.Source != "" {
		return fe.Source
	}
	return "unknown"
}
