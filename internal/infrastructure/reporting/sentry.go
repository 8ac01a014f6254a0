package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// SentryReporter implements ports.ErrorReporter on top of the global Sentry hub.
type SentryReporter struct {
	hub *sentry.Hub
}

// NewSentryReporter initializes the Sentry SDK for dsn.
func NewSentryReporter(dsn, environment string) (*SentryReporter, error) {
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize sentry: %w", err)
	}
	return &SentryReporter{hub: sentry.CurrentHub()}, nil
}

func (r *SentryReporter) Report(ctx context.Context, err error, tags map[string]string) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = r.hub
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		hub.CaptureException(err)
	})
}

// Flush waits for buffered events to be delivered.
func (r *SentryReporter) Flush(timeout time.Duration) bool {
	return r.hub.Flush(timeout)
}

// NopReporter discards reports; used when no DSN is configured.
type NopReporter struct{}

func (NopReporter) Report(context.Context, error, map[string]string) {}
