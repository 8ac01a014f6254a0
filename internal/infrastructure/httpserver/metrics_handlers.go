package httpserver

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "The total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "The HTTP request latencies in seconds",
		},
		[]string{"method", "endpoint"},
	)

	metricsHandler = promhttp.Handler()
)

func init() {
	prometheus.MustRegister(requestsTotal)
	prometheus.MustRegister(requestDuration)
}

// GetRequestsTotal returns the requests total metric for middleware use
func GetRequestsTotal() *prometheus.CounterVec {
	return requestsTotal
}

// GetRequestDuration returns the request duration metric for middleware use
func GetRequestDuration() *prometheus.HistogramVec {
	return requestDuration
}

// LogMetricsInitialization logs that metrics have been initialized
func (s *Server) LogMetricsInitialization() {
	if s.logger != nil {
		s.logger.WithFields(map[string]interface{}{
			"http_requests_total":   "Counter for HTTP requests by method, endpoint, status",
			"http_request_duration": "Histogram for HTTP request duration by method, endpoint",
			"data_refreshes_total":  "Counter for upstream refresh attempts by result",
			"data_requests_total":   "Counter for data lookups by served status",
			"metrics_endpoint":      "/metrics",
		}).Debug("Available Prometheus metrics")
	}
}

// metricsEndpoint exposes the default Prometheus registry
func (s *Server) metricsEndpoint(c echo.Context) error {
	metricsHandler.ServeHTTP(c.Response(), c.Request())
	return nil
}
