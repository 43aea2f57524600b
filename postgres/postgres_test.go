package postgres_test

import (
	"context"
	"testing"
	"time"

	"moviehub/postgres"

	_ "github.com/lib/pq"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

const migrationsDir = "../migrations"

type credentials struct {
	name, user, pass string
}

func TestConnection(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	creds := credentials{name: "moviehub", user: "moviehub", pass: "123456"}
	db := openDatabase(t, creds)

	applied := migrateDatabase(t, db, migrate.Up)
	assert.Equal(t, 1, applied)

	var currentUser string
	require.NoError(t, db.Raw("SELECT current_user").Scan(&currentUser).Error)
	assert.Equal(t, creds.user, currentUser)

	var columns []string
	require.NoError(t, db.Raw(
		"SELECT column_name FROM information_schema.columns WHERE table_name = ? ORDER BY ordinal_position", "movies",
	).Scan(&columns).Error)
	assert.Equal(t, []string{"id", "title", "added_by", "created_at", "genre", "rating", "extra"}, columns)

	var extraDefault string
	require.NoError(t, db.Raw(
		"SELECT column_default FROM information_schema.columns WHERE table_name = ? AND column_name = ?", "movies", "extra",
	).Scan(&extraDefault).Error)
	assert.Contains(t, extraDefault, "'{}'::jsonb")

	var indexes []string
	require.NoError(t, db.Raw(
		"SELECT indexname FROM pg_indexes WHERE tablename = ? ORDER BY indexname", "movies",
	).Scan(&indexes).Error)
	assert.Equal(t, []string{
		"movies_added_by_idx",
		"movies_created_at_idx",
		"movies_genre_idx",
		"movies_pkey",
		"movies_rating_idx",
	}, indexes)

	reverted := migrateDatabase(t, db, migrate.Down)
	assert.Equal(t, 1, reverted)
	assert.False(t, db.Migrator().HasTable("movies"))
}

func TestNewConnection_Error(t *testing.T) {
	_, err := postgres.NewConnection(postgres.Options{
		DBName:   "movies",
		DBUser:   "nobody",
		Password: "wrongpass",
		Host:     "invalidhost",
		Port:     "5432",
		SSLMode:  true,
	})

	assert.Error(t, err)
}

// openMigratedDatabase starts a fresh postgres and applies every migration.
func openMigratedDatabase(t testing.TB) *gorm.DB {
	t.Helper()
	db := openDatabase(t, credentials{name: "movies", user: "movies", pass: "123456"})
	migrateDatabase(t, db, migrate.Up)
	return db
}

func migrateDatabase(t testing.TB, db *gorm.DB, dir migrate.MigrationDirection) int {
	t.Helper()

	sqlDB, err := db.DB()
	require.NoError(t, err)

	n, err := migrate.Exec(sqlDB, "postgres", &migrate.FileMigrationSource{Dir: migrationsDir}, dir)
	require.NoError(t, err)
	return n
}

func openDatabase(t testing.TB, creds credentials) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	cont, err := pgcontainer.RunContainer(ctx,
		testcontainers.WithImage("docker.io/postgres:15.2-alpine"),
		pgcontainer.WithDatabase(creds.name),
		pgcontainer.WithUsername(creds.user),
		pgcontainer.WithPassword(creds.pass),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, cont.Terminate(ctx))
	})

	host, err := cont.Host(ctx)
	require.NoError(t, err)
	port, err := cont.MappedPort(ctx, "5432")
	require.NoError(t, err)

	db, err := postgres.NewConnection(postgres.Options{
		DBName:   creds.name,
		DBUser:   creds.user,
		Password: creds.pass,
		Host:     host,
		Port:     port.Port(),
	})
	require.NoError(t, err)
	return db
}
