package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"moviehub/errs"
	"moviehub/movie"

	"github.com/labstack/echo/v4"
)

const defaultErrorCode = "100500"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

type createdResponse struct {
	Success    bool   `json:"success"`
	InsertedID string `json:"insertedId"`
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type countResponse struct {
	TotalMovies int64 `json:"totalMovies"`
}

func writeMovies(c echo.Context, movies []movie.Movie) error {
	if movies == nil {
		movies = []movie.Movie{}
	}
	return c.JSON(http.StatusOK, movies)
}

func writeSuccess(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, successResponse{
		Success: true,
		Message: message,
	})
}

func writeError(c echo.Context, status int, kind, message string, err error) error {
	if c.Request().Method == http.MethodHead {
		return c.NoContent(status)
	}
	return c.JSON(status, ErrorResponse{
		Success: false,
		Code:    errorCode(err, status),
		Error:   kind,
		Message: message,
	})
}

// describeError resolves the status, kind and client-facing message of err.
// Internal failures never expose their message.
func describeError(err error) (int, string, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, statusKind(he.Code), fmt.Sprint(he.Message)
	}

	switch code := errs.ErrorCode(err); code {
	case errs.EINVALID:
		return http.StatusBadRequest, code, errs.ErrorMessage(err)
	case errs.EUNAUTHORIZED:
		return http.StatusUnauthorized, code, errs.ErrorMessage(err)
	case errs.EFORBIDDEN:
		return http.StatusForbidden, code, errs.ErrorMessage(err)
	case errs.ENOTFOUND:
		return http.StatusNotFound, code, errs.ErrorMessage(err)
	case errs.ENOTIMPLEMENTED:
		return http.StatusNotImplemented, code, errs.ErrorMessage(err)
	}
	return http.StatusInternalServerError, errs.EINTERNAL, "Internal server error"
}

func statusKind(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return errs.EUNAUTHORIZED
	case http.StatusForbidden:
		return errs.EFORBIDDEN
	case http.StatusNotFound:
		return errs.ENOTFOUND
	case http.StatusNotImplemented:
		return errs.ENOTIMPLEMENTED
	}
	if status >= http.StatusInternalServerError {
		return errs.EINTERNAL
	}
	return errs.EINVALID
}

func errorCode(err error, status int) string {
	var appErr *errs.Error
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case errs.EINVALID:
			return "100010"
		case errs.ENOTFOUND:
			return "100404"
		case errs.EUNAUTHORIZED:
			return "100401"
		case errs.EFORBIDDEN:
			return "100403"
		case errs.ENOTIMPLEMENTED:
			return "100501"
		case errs.EINTERNAL:
			return defaultErrorCode
		}
	}

	if status != 0 {
		return fmt.Sprintf("100%03d", status)
	}
	return defaultErrorCode
}
