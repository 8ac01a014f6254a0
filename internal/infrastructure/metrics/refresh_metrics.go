package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/teamnewpipe/np-web-api/internal/core/domain/refresh"
)

// RefreshMetrics implements ports.RefreshObserver with Prometheus collectors.
type RefreshMetrics struct {
	refreshes *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	outcomes  *prometheus.CounterVec
}

// NewRefreshMetrics creates the collectors and registers them with reg.
func NewRefreshMetrics(reg prometheus.Registerer) (*RefreshMetrics, error) {
	m := &RefreshMetrics{
		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "data_refreshes_total",
				Help: "The total number of upstream refresh attempts by result",
			},
			[]string{"result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "data_refresh_duration_seconds",
				Help:    "The upstream refresh latencies in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"result"},
		),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "data_requests_total",
				Help: "The total number of data lookups by served status",
			},
			[]string{"status"},
		),
	}
	for _, c := range []prometheus.Collector{m.refreshes, m.duration, m.outcomes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *RefreshMetrics) ObserveRefresh(kind refresh.Kind, failed bool, duration time.Duration) {
	result := "success"
	if failed {
		result = string(kind)
	}
	m.refreshes.WithLabelValues(result).Inc()
	m.duration.WithLabelValues(result).Observe(duration.Seconds())
}

func (m *RefreshMetrics) ObserveOutcome(status refresh.Status) {
	m.outcomes.WithLabelValues(string(status)).Inc()
}
