package httpserver

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/teamnewpipe/np-web-api/internal/core/ports"
	customMiddleware "github.com/teamnewpipe/np-web-api/internal/infrastructure/httpserver/middleware"
)

type ServerConfig struct {
	Host           string
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	TLSCertFile    string
	TLSKeyFile     string
	AllowedOrigins []string
	Environment    string
}

type ServerDeps struct {
	DataService ports.DataService
	// RateLimiterService is optional; without it requests are not limited.
	RateLimiterService ports.RateLimiterService
	HealthCheckers     []ports.HealthChecker
}

type Server struct {
	echo           *echo.Echo
	config         *ServerConfig
	logger         *logrus.Logger
	dataService    ports.DataService
	middleware     *customMiddleware.MiddlewareCollection
	healthCheckers []ports.HealthChecker
}

func NewServer(serverConfig *ServerConfig, logger *logrus.Logger, deps ServerDeps) *Server {
	e := echo.New()
	e.HideBanner = true

	server := &Server{
		echo:           e,
		config:         serverConfig,
		logger:         logger,
		dataService:    deps.DataService,
		healthCheckers: deps.HealthCheckers,
		middleware: customMiddleware.NewMiddlewareCollection(
			deps.RateLimiterService,
			logger,
			GetRequestsTotal(),
			GetRequestDuration(),
		),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}
