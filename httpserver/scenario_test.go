// nolint: funlen
package httpserver_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"moviehub/httpserver"
	"moviehub/memory"
	"moviehub/movie"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type movieAPI struct {
	t      *testing.T
	server *httpserver.Server
}

func newMovieAPI(t *testing.T, opts ...movie.Option) *movieAPI {
	t.Helper()
	uc := movie.NewUsecase(memory.NewMovieRepository(), opts...)
	return &movieAPI{t: t, server: newTestServer(t, httpserver.WithMovieService(uc))}
}

func (a *movieAPI) do(method, path, body string, headers map[string]string) (int, []byte) {
	response := serve(a.server, newRequest(method, path, body, headers))
	return response.Code, response.Body.Bytes()
}

func (a *movieAPI) create(body string) string {
	a.t.Helper()
	response := serve(a.server, newRequest(http.MethodPost, "/movies", body, nil))
	require.Equal(a.t, http.StatusCreated, response.Code, response.Body.String())
	created := decodeJSON[map[string]any](a.t, response)
	id, _ := created["insertedId"].(string)
	require.True(a.t, movie.ValidID(id))
	return id
}

func (a *movieAPI) get(id string) map[string]any {
	a.t.Helper()
	response := serve(a.server, newRequest(http.MethodGet, "/movies/"+id, "", nil))
	require.Equal(a.t, http.StatusOK, response.Code, response.Body.String())
	return decodeJSON[map[string]any](a.t, response)
}

func (a *movieAPI) list(path string) []map[string]any {
	a.t.Helper()
	response := serve(a.server, newRequest(http.MethodGet, path, "", nil))
	require.Equal(a.t, http.StatusOK, response.Code, response.Body.String())
	return decodeJSON[[]map[string]any](a.t, response)
}

func titlesOf(records []map[string]any) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i], _ = r["title"].(string)
	}
	return out
}

func TestScenario_CreateGetUpdate(t *testing.T) {
	api := newMovieAPI(t)

	id := api.create(`{"title":"Inception","addedBy":"a@x.com","rating":9}`)

	got := api.get(id)
	assert.Equal(t, "Inception", got["title"])
	assert.Equal(t, "a@x.com", got["addedBy"])

	code, _ := api.do(http.MethodPut, "/movies/"+id, `{"callerEmail":"b@x.com","rating":1}`, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, 9.0, api.get(id)["rating"], "record must be unchanged after a forbidden update")

	code, _ = api.do(http.MethodPut, "/movies/"+id, `{"callerEmail":"a@x.com","rating":10}`, nil)
	assert.Equal(t, http.StatusOK, code)

	got = api.get(id)
	assert.Equal(t, 10.0, got["rating"])
	assert.Equal(t, "a@x.com", got["addedBy"])
}

func TestScenario_DeleteFailures(t *testing.T) {
	api := newMovieAPI(t)
	id := api.create(`{"title":"Inception","addedBy":"a@x.com"}`)

	code, _ := api.do(http.MethodDelete, "/movies/not-an-id", "", map[string]string{httpserver.HeaderUserEmail: "a@x.com"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = api.do(http.MethodDelete, "/movies/"+id, "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = api.do(http.MethodDelete, "/movies/"+movie.NewID(), "", map[string]string{httpserver.HeaderUserEmail: "a@x.com"})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = api.do(http.MethodDelete, "/movies/"+id+"?email=b@x.com", "", nil)
	assert.Equal(t, http.StatusForbidden, code)
	api.get(id)

	code, _ = api.do(http.MethodDelete, "/movies/"+id+"?email=a@x.com", "", nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = api.do(http.MethodGet, "/movies/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestScenario_ServerSetsCreatedAt(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	api := newMovieAPI(t, movie.WithClock(func() time.Time { return now }))

	id := api.create(`{"title":"Up","addedBy":"a@x.com","createdAt":"1999-01-01T00:00:00Z","_id":"ffffffffffffffffffffffff"}`)

	got := api.get(id)
	assert.NotEqual(t, "ffffffffffffffffffffffff", id)
	assert.Equal(t, "2024-06-01T08:00:00Z", got["createdAt"])
}

func TestScenario_ImmutableFieldsSurviveUpdate(t *testing.T) {
	api := newMovieAPI(t)
	id := api.create(`{"title":"Up","addedBy":"a@x.com","director":"Docter"}`)
	before := api.get(id)

	code, _ := api.do(http.MethodPut, "/movies/"+id, fmt.Sprintf(
		`{"callerEmail":"a@x.com","_id":"%s","id":"%s","addedBy":"b@x.com","createdAt":"1999-01-01T00:00:00Z","year":2009}`,
		movie.NewID(), movie.NewID()), nil)
	require.Equal(t, http.StatusOK, code)

	after := api.get(id)
	assert.Equal(t, before["_id"], after["_id"])
	assert.Equal(t, "a@x.com", after["addedBy"])
	assert.Equal(t, before["createdAt"], after["createdAt"])
	assert.Equal(t, "Docter", after["director"])
	assert.Equal(t, 2009.0, after["year"])
	assert.NotContains(t, after, "callerEmail")
	assert.NotContains(t, after, "id")
}

func TestScenario_MalformedIDsFailFast(t *testing.T) {
	api := newMovieAPI(t)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		code, _ := api.do(method, "/movies/123", `{"callerEmail":"a@x.com"}`, nil)
		assert.Equal(t, http.StatusBadRequest, code, method)
	}
}

func TestScenario_ListingAndStats(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	api := newMovieAPI(t, movie.WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}))

	api.create(`{"title":"A","addedBy":"a@x.com","rating":6,"genre":"Drama"}`)
	api.create(`{"title":"B","addedBy":"b@x.com","rating":7,"genre":["Action","Drama"]}`)
	api.create(`{"title":"C","addedBy":"a@x.com","rating":9,"genre":["Comedy"]}`)
	api.create(`{"title":"D","addedBy":"a@x.com"}`)
	api.create(`{"title":"E","addedBy":"c@x.com","rating":"9.5","genre":["Action"]}`)
	api.create(`{"title":"F","addedBy":"c@x.com","rating":7}`)
	api.create(`{"title":"G","addedBy":"c@x.com","rating":3}`)

	assert.Equal(t, []string{"G", "F", "E", "D", "C", "B", "A"}, titlesOf(api.list("/movies")))
	assert.Equal(t, []string{"F", "E", "C", "B"}, titlesOf(api.list("/movies?minRating=7")))
	assert.Equal(t, []string{"F", "C", "B"}, titlesOf(api.list("/movies?minRating=7&maxRating=9")))
	assert.Equal(t, []string{"E", "C", "B"}, titlesOf(api.list("/movies?genre=Action,Comedy")))
	assert.Equal(t, []string{"G", "F", "E", "D", "C", "B", "A"}, titlesOf(api.list("/movies?minRating=abc")))
	assert.Equal(t, []string{"D", "C", "A"}, titlesOf(api.list("/my-movies/a@x.com")))
	assert.Empty(t, api.list("/my-movies/nobody@x.com"))

	assert.Equal(t, []string{"G", "F", "E", "D", "C", "B"}, titlesOf(api.list("/recent")))
	assert.Equal(t, []string{"E", "C", "B", "F", "A"}, titlesOf(api.list("/top-rated")))

	code, body := api.do(http.MethodGet, "/stats/count", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"totalMovies":7}`, string(body))
}

func TestScenario_PathLikeFieldNamesAreRejected(t *testing.T) {
	api := newMovieAPI(t)
	id := api.create(`{"title":"Up","addedBy":"a@x.com","genre":["Animation"]}`)

	for _, body := range []string{
		`{"callerEmail":"a@x.com","genre.0":5}`,
		`{"callerEmail":"a@x.com","$set":{"title":"x"}}`,
	} {
		code, _ := api.do(http.MethodPut, "/movies/"+id, body, nil)
		assert.Equal(t, http.StatusBadRequest, code, body)
	}

	for _, body := range []string{
		`{"title":"Up","addedBy":"a@x.com","genre.0":5}`,
		`{"title":"Up","addedBy":"a@x.com","$where":"1"}`,
	} {
		code, _ := api.do(http.MethodPost, "/movies", body, nil)
		assert.Equal(t, http.StatusBadRequest, code, body)
	}

	assert.Equal(t, []any{"Animation"}, api.get(id)["genre"])
	assert.Len(t, api.list("/movies"), 1)
	assert.Len(t, api.list("/my-movies/a@x.com"), 1)
}

func TestScenario_NullGenreRemovesField(t *testing.T) {
	api := newMovieAPI(t)
	id := api.create(`{"title":"Up","addedBy":"a@x.com","genre":["Animation"]}`)

	code, _ := api.do(http.MethodPut, "/movies/"+id, `{"callerEmail":"a@x.com","genre":null}`, nil)
	require.Equal(t, http.StatusOK, code)

	assert.NotContains(t, api.get(id), "genre")
}
