package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/teamnewpipe/np-web-api/internal/core/domain/refresh"
	"github.com/teamnewpipe/np-web-api/internal/core/ports"
	"github.com/teamnewpipe/np-web-api/internal/infrastructure/clock"
)

// RefreshGateConfig groups the optional collaborators and thresholds of a RefreshGate.
type RefreshGateConfig struct {
	NormalTimeout time.Duration
	ErrorTimeout  time.Duration
	Clock         ports.Clock
	Observer      ports.RefreshObserver
	Reporter      ports.ErrorReporter
}

// RefreshGate serves a single cached value and refreshes it from a DataSource,
// running at most one refresh at a time.
type RefreshGate[T any] struct {
	mu       sync.Mutex // held for the whole refresh, including the fetch
	source   ports.DataSource[T]
	store    ports.EntryStore[T]
	policy   refresh.Policy
	clock    ports.Clock
	observer ports.RefreshObserver
	reporter ports.ErrorReporter
	logger   *logrus.Logger
}

func NewRefreshGate[T any](source ports.DataSource[T], store ports.EntryStore[T], cfg *RefreshGateConfig, logger *logrus.Logger) (*RefreshGate[T], error) {
	if source == nil {
		return nil, fmt.Errorf("refresh gate: data source is required")
	}
	if store == nil {
		return nil, fmt.Errorf("refresh gate: entry store is required")
	}
	policy := refresh.DefaultPolicy()
	var c ports.Clock = clock.System{}
	g := &RefreshGate[T]{source: source, store: store, logger: logger}
	if cfg != nil {
		if cfg.NormalTimeout > 0 {
			policy.NormalTimeout = cfg.NormalTimeout
		}
		if cfg.ErrorTimeout > 0 {
			policy.ErrorTimeout = cfg.ErrorTimeout
		}
		if cfg.Clock != nil {
			c = cfg.Clock
		}
		g.observer = cfg.Observer
		g.reporter = cfg.Reporter
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("refresh gate: %w", err)
	}
	g.policy = policy
	g.clock = c
	return g, nil
}

// Policy returns the thresholds in effect.
func (g *RefreshGate[T]) Policy() refresh.Policy {
	return g.policy
}

// Snapshot returns the current entry without refreshing.
func (g *RefreshGate[T]) Snapshot() refresh.Entry[T] {
	return g.store.Read()
}

// Get returns the cached value, refreshing it first when it is outdated.
// Upstream failures never escape: they surface as StaleFromError or NoDataYet.
func (g *RefreshGate[T]) Get(ctx context.Context) refresh.Result[T] {
	entry := g.store.Read()
	if refresh.IsOutdated(g.policy, entry, g.clock.Now()) {
		entry = g.refresh(ctx)
	} else if g.logger != nil {
		g.logger.WithField("state", entry.State()).Debug("cache up to date, serving cached data")
	}

	res := refresh.Resolve(g.policy, entry)
	if g.observer != nil {
		g.observer.ObserveOutcome(res.Status)
	}
	if g.logger != nil {
		switch res.Status {
		case refresh.StatusStaleFromError:
			g.logger.Warn("last update failed, serving stale data")
		case refresh.StatusNoDataYet:
			g.logger.WithField("retry_after", res.RetryAfter).Warn("update failed and no data cached yet")
		}
	}
	return res
}

// refresh runs the locked part of Get and returns the entry to serve.
func (g *RefreshGate[T]) refresh(ctx context.Context) refresh.Entry[T] {
	g.mu.Lock()
	defer g.mu.Unlock()

	// Another caller may have refreshed while we were waiting for the lock.
	entry := g.store.Read()
	now := g.clock.Now()
	if !refresh.IsOutdated(g.policy, entry, now) {
		if g.logger != nil {
			g.logger.Info("cache was outdated but has been refreshed concurrently")
		}
		return entry
	}

	attempt := uuid.New()
	var log *logrus.Entry
	if g.logger != nil {
		log = g.logger.WithFields(logrus.Fields{"attempt_id": attempt.String(), "state": entry.State()})
		log.Info("cache outdated, fetching fresh data")
	}

	// A started refresh always runs to completion, even if the caller goes away.
	fetchCtx := context.WithoutCancel(ctx)
	start := time.Now()
	value, err := g.fetch(fetchCtx)
	elapsed := time.Since(start)

	if err != nil {
		entry = entry.Failed(now)
		g.recordFailure(fetchCtx, log, attempt, err, elapsed)
	} else {
		entry = entry.Succeeded(value, now)
		if g.observer != nil {
			g.observer.ObserveRefresh("", false, elapsed)
		}
		if log != nil {
			log.WithFields(logrus.Fields{"duration": elapsed, "next_refresh": refresh.NextRefresh(g.policy, entry)}).Info("cache updated")
		}
	}
	g.store.Write(entry)
	return entry
}

// fetch calls the data source, turning a panic into an error.
func (g *RefreshGate[T]) fetch(ctx context.Context) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value = zero
			err = fmt.Errorf("data source panicked: %v", r)
		}
	}()
	return g.source.Fetch(ctx)
}

func (g *RefreshGate[T]) recordFailure(ctx context.Context, log *logrus.Entry, attempt uuid.UUID, err error, elapsed time.Duration) {
	kind := refresh.Classify(err)
	if g.observer != nil {
		g.observer.ObserveRefresh(kind, true, elapsed)
	}
	if log != nil {
		fields := logrus.Fields{"kind": kind, "source": refresh.SourceOf(err), "duration": elapsed}
		if reset, ok := refresh.ResetHint(err); ok {
			fields["reset_at"] = reset
		}
		fields["retry_in"] = g.policy.ErrorTimeout
		log.WithFields(fields).WithError(err).Error("refreshing data failed")
	}
	if g.reporter != nil {
		g.reporter.Report(ctx, err, map[string]string{
			"kind":       string(kind),
			"source":     refresh.SourceOf(err),
			"attempt_id": attempt.String(),
		})
	}
}
