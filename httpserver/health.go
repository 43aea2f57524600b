package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const healthTimeout = 2 * time.Second

// HealthChecker is implemented by the storage handle.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

func (s *Server) RegisterHealthRoutes(router *echo.Group) {
	router.GET("/", s.handleRoot)
	router.GET("/health", s.handleHealth)
}

// handleRoot godoc
// @Summary Liveness
// @Description Plain text liveness probe
// @Tags health
// @Produce plain
// @Success 200 {string} string
// @Router / [get]
func (s *Server) handleRoot(c echo.Context) error {
	return c.String(http.StatusOK, "Movie server is running")
}

// handleHealth godoc
// @Summary Health Check
// @Description Check that the server can reach its store
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (s *Server) handleHealth(c echo.Context) error {
	if s.HealthChecker != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()

		if err := s.HealthChecker.Ping(ctx); err != nil {
			s.Logger.Warnw("health check failed", "error", err, "request_id", s.requestID(c))
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status":  http.StatusText(http.StatusServiceUnavailable),
				"message": "store unavailable",
			})
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":  http.StatusText(http.StatusOK),
		"message": "Service is up and running",
	})
}
