package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedRoute labels requests that hit no route, keeping label cardinality bounded.
const unmatchedRoute = "unmatched"

// MetricsMiddleware holds the Prometheus metrics
type MetricsMiddleware struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetricsMiddleware creates a new metrics middleware instance
func NewMetricsMiddleware(requestsTotal *prometheus.CounterVec, requestDuration *prometheus.HistogramVec) *MetricsMiddleware {
	return &MetricsMiddleware{
		requestsTotal:   requestsTotal,
		requestDuration: requestDuration,
	}
}

// CollectHTTPMetrics creates middleware that collects HTTP request metrics
func (m *MetricsMiddleware) CollectHTTPMetrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				// let echo write the response so the recorded status is the final one
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = unmatchedRoute
			}
			method := c.Request().Method
			status := strconv.Itoa(c.Response().Status)

			m.requestsTotal.WithLabelValues(method, route, status).Inc()
			m.requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())

			return nil
		}
	}
}
