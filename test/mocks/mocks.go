package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/teamnewpipe/np-web-api/internal/core/domain/apidata"
	"github.com/teamnewpipe/np-web-api/internal/core/domain/refresh"
)

// ClockMock is a manually advanced clock.
type ClockMock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClockMock(start time.Time) *ClockMock { return &ClockMock{now: start} }

func (m *ClockMock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the clock to t.
func (m *ClockMock) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d.
func (m *ClockMock) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// DataSourceMock is a lightweight mock for DataSource that counts calls
type DataSourceMock[T any] struct {
	FetchFn func(ctx context.Context) (T, error)

	mu    sync.Mutex
	calls int
}

func (m *DataSourceMock[T]) Fetch(ctx context.Context) (T, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.FetchFn != nil {
		return m.FetchFn(ctx)
	}
	var zero T
	return zero, fmt.Errorf("not configured")
}

// Calls returns how many times Fetch ran.
func (m *DataSourceMock[T]) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// DataServiceMock is a lightweight mock for DataService
type DataServiceMock struct {
	GetFn      func(ctx context.Context) refresh.Result[apidata.Data]
	SnapshotFn func() refresh.Entry[apidata.Data]
}

func (m *DataServiceMock) Get(ctx context.Context) refresh.Result[apidata.Data] {
	if m.GetFn != nil {
		return m.GetFn(ctx)
	}
	return refresh.Result[apidata.Data]{Status: refresh.StatusNoDataYet, RetryAfter: refresh.DefaultErrorTimeout}
}

func (m *DataServiceMock) Snapshot() refresh.Entry[apidata.Data] {
	if m.SnapshotFn != nil {
		return m.SnapshotFn()
	}
	return refresh.Entry[apidata.Data]{}
}

// RateLimiterServiceMock is a lightweight mock for RateLimiterService
type RateLimiterServiceMock struct {
	AllowFn func(ctx context.Context, clientKey string) (bool, int, int, time.Time, error)
}

func (m *RateLimiterServiceMock) Allow(ctx context.Context, clientKey string) (bool, int, int, time.Time, error) {
	if m.AllowFn != nil {
		return m.AllowFn(ctx, clientKey)
	}
	return true, 1, 1, time.Unix(0, 0), nil
}

// RateLimitRepositoryMock is a lightweight mock for RateLimitRepository
type RateLimitRepositoryMock struct {
	IncrementWindowFn func(ctx context.Context, clientKey string, window time.Duration, keyPrefix string, ttl time.Duration) (int, time.Time, error)
}

func (m *RateLimitRepositoryMock) IncrementWindow(ctx context.Context, clientKey string, window time.Duration, keyPrefix string, ttl time.Duration) (int, time.Time, error) {
	if m.IncrementWindowFn != nil {
		return m.IncrementWindowFn(ctx, clientKey, window, keyPrefix, ttl)
	}
	return 1, time.Unix(0, 0), nil
}

// RefreshObserverMock records observed telemetry.
type RefreshObserverMock struct {
	mu        sync.Mutex
	Refreshes []refresh.Kind
	Failures  int
	Outcomes  []refresh.Status
}

func (m *RefreshObserverMock) ObserveRefresh(kind refresh.Kind, failed bool, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Refreshes = append(m.Refreshes, kind)
	if failed {
		m.Failures++
	}
}

func (m *RefreshObserverMock) ObserveOutcome(status refresh.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Outcomes = append(m.Outcomes, status)
}

// ErrorReporterMock records reported errors.
type ErrorReporterMock struct {
	mu     sync.Mutex
	Errors []error
	Tags   []map[string]string
}

func (m *ErrorReporterMock) Report(_ context.Context, err error, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors = append(m.Errors, err)
	m.Tags = append(m.Tags, tags)
}

// HealthCheckerMock is a lightweight mock for HealthChecker
type HealthCheckerMock struct {
	NameValue string
	CheckFn   func(ctx context.Context) error
}

func (m *HealthCheckerMock) Name() string { return m.NameValue }

func (m *HealthCheckerMock) Check(ctx context.Context) error {
	if m.CheckFn != nil {
		return m.CheckFn(ctx)
	}
	return nil
}
