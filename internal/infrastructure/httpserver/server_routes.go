package httpserver

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)

	s.echo.GET("/data.json", s.dataJSON, s.middleware.RateLimit.Handler())
}
