package httpserver_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"moviehub/httpserver"
	"moviehub/movie"
	"moviehub/postgres"

	"github.com/docker/go-connections/nat"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

func TestPostgresBackedServer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	db := MustCreateTestDatabase(t)
	MigrateTestDatabase(t, db, "../migrations")
	server := MustCreateServer(t, db)

	code := serve(server, newRequest(http.MethodGet, "/health", "", nil)).Code
	assert.Equal(t, http.StatusOK, code)

	created := serve(server, newRequest(http.MethodPost, "/movies",
		`{"title":"Inception","addedBy":"a@x.com","rating":9,"genre":["Sci-Fi"],"director":"Nolan"}`, nil))
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	id, _ := decodeJSON[map[string]any](t, created)["insertedId"].(string)
	require.True(t, movie.ValidID(id))

	forbidden := serve(server, newRequest(http.MethodPut, "/movies/"+id, `{"callerEmail":"b@x.com","rating":1}`, nil))
	assert.Equal(t, http.StatusForbidden, forbidden.Code)

	updated := serve(server, newRequest(http.MethodPut, "/movies/"+id, `{"callerEmail":"a@x.com","rating":10,"year":2010}`, nil))
	assert.Equal(t, http.StatusOK, updated.Code)

	got := decodeJSON[map[string]any](t, serve(server, newRequest(http.MethodGet, "/movies/"+id, "", nil)))
	assert.Equal(t, 10.0, got["rating"])
	assert.Equal(t, "a@x.com", got["addedBy"])
	assert.Equal(t, "Nolan", got["director"])
	assert.Equal(t, 2010.0, got["year"])

	listed := serve(server, newRequest(http.MethodGet, "/movies?genre=Sci-Fi&minRating=9", "", nil))
	assert.Len(t, decodeJSON[[]map[string]any](t, listed), 1)

	deleted := serve(server, newRequest(http.MethodDelete, "/movies/"+id, "", map[string]string{httpserver.HeaderUserEmail: "a@x.com"}))
	assert.Equal(t, http.StatusOK, deleted.Code)

	count := serve(server, newRequest(http.MethodGet, "/stats/count", "", nil))
	assert.JSONEq(t, `{"totalMovies":0}`, count.Body.String())
}

func MustCreateServer(t testing.TB, db *gorm.DB) *httpserver.Server {
	t.Helper()

	repo := postgres.NewMovieRepository(db)

	return newTestServer(t,
		httpserver.WithMovieService(movie.NewUsecase(repo)),
		httpserver.WithHealthChecker(repo),
	)
}

// MustCreateTestDatabase starts a PostgreSQL testcontainer and returns a GORM DB connection
func MustCreateTestDatabase(t testing.TB) *gorm.DB {
	t.Helper()
	ctx := context.Background()
	dbName, dbUser, dbPass := "test_movies", "test", "testpass"
	postgre, err := pgcontainer.RunContainer(ctx,
		testcontainers.WithImage("docker.io/postgres:15.2-alpine"),
		pgcontainer.WithDatabase(dbName),
		pgcontainer.WithUsername(dbUser),
		pgcontainer.WithPassword(dbPass),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		err := postgre.Terminate(ctx)
		assert.NoError(t, err, "failed to terminate postgres container")
	})

	host, port := extractHostAndPort(t, ctx, postgre)
	db, err := postgres.NewConnection(postgres.Options{
		DBName:   dbName,
		DBUser:   dbUser,
		Password: dbPass,
		Host:     host,
		Port:     port.Port(),
	})
	require.NoError(t, err, "failed to connect to postgres database")

	return db
}

func extractHostAndPort(t testing.TB, ctx context.Context, postgre *pgcontainer.PostgresContainer) (string, nat.Port) {
	t.Helper()
	host, err := postgre.Host(ctx)
	assert.NoError(t, err, "failed to get container host")

	port, err := postgre.MappedPort(ctx, "5432")
	assert.NoError(t, err, "failed to get mapped port")
	return host, port
}

// MigrateTestDatabase runs all migration files against the test database
func MigrateTestDatabase(t testing.TB, db *gorm.DB, migrationPath string) {
	t.Helper()
	migrations := &migrate.FileMigrationSource{
		Dir: migrationPath,
	}

	sqlDB, err := db.DB()
	assert.NoError(t, err, "failed to get sql.DB from gorm.DB")

	_, err = migrate.Exec(sqlDB, "postgres", migrations, migrate.Up)
	assert.NoError(t, err, "failed to run database migrations")
}
