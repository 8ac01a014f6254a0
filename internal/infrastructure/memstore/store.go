package memstore

import (
	"sync/atomic"

	"github.com/teamnewpipe/np-web-api/internal/core/domain/refresh"
)

// SlotStore implements ports.EntryStore with a single in-process slot.
//
// Reads load an immutable snapshot through an atomic pointer, so they never
// block and never observe a half-written entry. There is no writer exclusion:
// callers of Write must already hold the refresh lock.
type SlotStore[T any] struct {
	slot atomic.Pointer[refresh.Entry[T]]
}

// NewSlotStore returns an empty store.
func NewSlotStore[T any]() *SlotStore[T] {
	return &SlotStore[T]{}
}

// Read returns a copy of the current entry, or the zero entry before the first write.
func (s *SlotStore[T]) Read() refresh.Entry[T] {
	if e := s.slot.Load(); e != nil {
		return *e
	}
	return refresh.Entry[T]{}
}

// Write replaces the current entry.
func (s *SlotStore[T]) Write(entry refresh.Entry[T]) {
	s.slot.Store(&entry)
}
