package refresh

import "time"

// Entry is the single cached unit guarded by the refresh gate.
//
// LastUpdated is zero until the first refresh attempt. Value is only meaningful
// when HasValue is set, which happens on the first successful refresh and is
// never undone by a later failure.
type Entry[T any] struct {
	Value       T
	HasValue    bool
	LastUpdated time.Time
	WasError    bool
}

// State is the position of an entry in the refresh state machine.
type State string

const (
	StateEmpty       State = "empty"
	StateFresh       State = "fresh"
	StateStaleError  State = "stale_error"
	StateErrorNoData State = "error_no_data"
)

// Attempted reports whether at least one refresh attempt has been recorded.
func (e Entry[T]) Attempted() bool {
	return !e.LastUpdated.IsZero()
}

// State derives the state machine position from the entry fields.
func (e Entry[T]) State() State {
	switch {
	case !e.Attempted():
		return StateEmpty
	case !e.WasError:
		return StateFresh
	case e.HasValue:
		return StateStaleError
	default:
		return StateErrorNoData
	}
}

// Succeeded returns the entry after a successful refresh at now.
func (e Entry[T]) Succeeded(value T, now time.Time) Entry[T] {
	return Entry[T]{Value: value, HasValue: true, LastUpdated: now, WasError: false}
}

// Failed returns the entry after a failed refresh at now. The last good value is kept.
func (e Entry[T]) Failed(now time.Time) Entry[T] {
	e.LastUpdated = now
	e.WasError = true
	return e
}
