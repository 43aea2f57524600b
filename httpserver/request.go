package httpserver

import (
	"math"
	"strconv"
	"strings"

	"moviehub/errs"
	"moviehub/movie"

	"github.com/labstack/echo/v4"
)

// HeaderUserEmail carries the caller's email on mutating requests.
const HeaderUserEmail = "X-User-Email"

// CreateMovieRequest holds the fields a new record must carry. The full
// payload is kept separately since records accept arbitrary fields.
type CreateMovieRequest struct {
	Title   string `json:"title" validate:"required,notblank"`
	AddedBy string `json:"addedBy" validate:"required,notblank,max=320"`
}

func newCreateMovieRequest(fields map[string]any) CreateMovieRequest {
	title, _ := fields[movie.FieldTitle].(string)
	addedBy, _ := fields[movie.FieldAddedBy].(string)
	return CreateMovieRequest{Title: title, AddedBy: addedBy}
}

// bindFields decodes a JSON object body. An empty body yields an empty map.
func bindFields(c echo.Context) (map[string]any, error) {
	var fields map[string]any
	if err := (&echo.DefaultBinder{}).BindBody(c, &fields); err != nil {
		return nil, errs.Errorf(errs.EINVALID, "request body must be a JSON object")
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// callerEmail returns the first non-empty caller email from the header,
// the email query parameter and the callerEmail body field.
func callerEmail(c echo.Context, body map[string]any) string {
	if v := c.Request().Header.Get(HeaderUserEmail); strings.TrimSpace(v) != "" {
		return v
	}
	if v := c.QueryParam("email"); strings.TrimSpace(v) != "" {
		return v
	}
	if v, ok := body[movie.FieldCallerEmail].(string); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return ""
}

// parseFilter reads list filters. Malformed values are ignored.
func parseFilter(c echo.Context) movie.Filter {
	var f movie.Filter
	for _, raw := range c.QueryParams()[movie.FieldGenre] {
		for _, g := range strings.Split(raw, ",") {
			if g = strings.TrimSpace(g); g != "" {
				f.Genres = append(f.Genres, g)
			}
		}
	}
	f.MinRating = parseRating(c.QueryParam("minRating"))
	f.MaxRating = parseRating(c.QueryParam("maxRating"))
	return f
}

func parseRating(raw string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
