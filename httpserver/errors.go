package httpserver

import (
	"net/http"

	"moviehub/pkg/sentry"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// handleError is the router's HTTPErrorHandler. Client errors are logged at
// warn, server errors at error and reported to Sentry.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, kind, message := describeError(err)

	fields := []interface{}{
		zap.String("request_id", s.requestID(c)),
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
		zap.Int("status", status),
	}
	if status >= http.StatusInternalServerError {
		s.Logger.Errorw(err.Error(), fields...)
		sentry.WithContext(c).Error(err)
	} else {
		s.Logger.Warnw(err.Error(), fields...)
	}

	if werr := writeError(c, status, kind, message, err); werr != nil {
		s.Logger.Errorw("write error response", zap.Error(werr))
	}
}

func (s *Server) requestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}
