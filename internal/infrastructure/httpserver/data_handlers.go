package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/teamnewpipe/np-web-api/internal/core/domain/refresh"
)

// dataJSON serves the aggregate document. Stale data after a failed refresh is
// served like fresh data; only a cache that never held data yields 503.
func (s *Server) dataJSON(c echo.Context) error {
	res := s.dataService.Get(c.Request().Context())

	if res.Status == refresh.StatusNoDataYet {
		if s.logger != nil {
			s.logger.Debug("error and no cached data, responding with status 503")
		}
		c.Response().Header().Set("Retry-After", refresh.RetryAfterSeconds(res.RetryAfter))
		return c.String(http.StatusServiceUnavailable, "temporary issues, try again later")
	}

	return c.JSON(http.StatusOK, res.Value)
}
