package memstore_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamnewpipe/np-web-api/internal/core/domain/refresh"
	"github.com/teamnewpipe/np-web-api/internal/infrastructure/memstore"
)

func TestSlotStore_EmptyRead(t *testing.T) {
	s := memstore.NewSlotStore[string]()
	e := s.Read()
	require.Equal(t, refresh.StateEmpty, e.State())
	require.False(t, e.HasValue)
}

func TestSlotStore_ReadIsSnapshot(t *testing.T) {
	s := memstore.NewSlotStore[[]int]()
	now := time.Now()
	s.Write(refresh.Entry[[]int]{Value: []int{1}, HasValue: true, LastUpdated: now})

	snap := s.Read()
	snap.WasError = true
	snap.LastUpdated = time.Time{}

	again := s.Read()
	require.False(t, again.WasError)
	require.True(t, now.Equal(again.LastUpdated))
}

func TestSlotStore_ConcurrentReadsDuringWrites(t *testing.T) {
	s := memstore.NewSlotStore[int]()
	start := time.Now()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= 1000; i++ {
			s.Write(refresh.Entry[int]{Value: i, HasValue: true, LastUpdated: start.Add(time.Duration(i))})
		}
	}()
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				e := s.Read()
				if e.HasValue {
					// value and timestamp are always written together
					assert.Equal(t, start.Add(time.Duration(e.Value)), e.LastUpdated)
				}
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1000, s.Read().Value)
}
