package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/teamnewpipe/np-web-api/internal/core/ports"
)

// MiddlewareCollection holds all middleware instances
type MiddlewareCollection struct {
	Logging   *LoggingMiddleware
	RateLimit *RateLimitMiddleware
	Metrics   *MetricsMiddleware
}

// NewMiddlewareCollection creates a new collection of all middleware
func NewMiddlewareCollection(
	rateLimiterService ports.RateLimiterService,
	logger *logrus.Logger,
	requestsTotal *prometheus.CounterVec,
	requestDuration *prometheus.HistogramVec,
) *MiddlewareCollection {
	return &MiddlewareCollection{
		Logging:   NewLoggingMiddleware(logger),
		RateLimit: NewRateLimitMiddleware(rateLimiterService, logger),
		Metrics:   NewMetricsMiddleware(requestsTotal, requestDuration),
	}
}
