package ports

import (
	"context"
	"time"

	"github.com/teamnewpipe/np-web-api/internal/core/domain/apidata"
	"github.com/teamnewpipe/np-web-api/internal/core/domain/refresh"
)

// EntryStore holds exactly one cache entry.
// Read must be safe to call at any time and returns a snapshot copy.
// Write is only called by the holder of the refresh lock; implementations
// do not serialize writers themselves.
type EntryStore[T any] interface {
	Read() refresh.Entry[T]
	Write(entry refresh.Entry[T])
}

// DataSource produces a fresh value or fails.
type DataSource[T any] interface {
	Fetch(ctx context.Context) (T, error)
}

// DataSourceFunc adapts a function to DataSource.
type DataSourceFunc[T any] func(ctx context.Context) (T, error)

func (f DataSourceFunc[T]) Fetch(ctx context.Context) (T, error) { return f(ctx) }

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// DataService is what the HTTP layer uses to obtain the aggregate document.
type DataService interface {
	// Get returns the best available data; it never returns raw upstream errors.
	Get(ctx context.Context) refresh.Result[apidata.Data]
	// Snapshot returns the current entry without triggering a refresh.
	Snapshot() refresh.Entry[apidata.Data]
}

// RefreshObserver receives refresh telemetry. Implementations must be cheap and non-blocking.
type RefreshObserver interface {
	ObserveRefresh(kind refresh.Kind, failed bool, duration time.Duration)
	ObserveOutcome(status refresh.Status)
}

// ErrorReporter forwards unexpected failures to a crash reporting backend.
type ErrorReporter interface {
	Report(ctx context.Context, err error, tags map[string]string)
}
