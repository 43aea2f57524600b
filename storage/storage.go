// Package storage opens the movie repository selected by DB_DRIVER.
package storage

import (
	"context"
	"fmt"
	"strconv"

	"moviehub/dynamodb"
	"moviehub/memory"
	"moviehub/mongodb"
	"moviehub/movie"
	"moviehub/pkg/config"
	"moviehub/postgres"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Store is an opened repository together with its lifecycle hooks.
type Store struct {
	Movies movie.Repository

	// Pinger probes the backing store. Nil for the in-process driver.
	Pinger Pinger

	close func(ctx context.Context) error
}

// Open builds the repository for cfg.DB.Driver. Unless lazy connect is
// enabled the store is dialed and prepared here, so a bad configuration
// fails at startup.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.DB.Driver {
	case config.DriverMongoDB:
		return openMongoDB(ctx, cfg)
	case config.DriverPostgres:
		return openPostgres(cfg)
	case config.DriverDynamoDB:
		return openDynamoDB(ctx, cfg)
	case config.DriverMemory:
		return &Store{Movies: memory.NewMovieRepository()}, nil
	}
	return nil, fmt.Errorf("storage: unknown driver %q", cfg.DB.Driver)
}

// Close releases the store's connections.
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

func openMongoDB(ctx context.Context, cfg *config.Config) (*Store, error) {
	client, err := mongodb.NewClient(mongodb.Options{
		URI:        cfg.Mongo.URI,
		Database:   cfg.Mongo.Database,
		Collection: cfg.Mongo.Collection,
	})
	if err != nil {
		return nil, err
	}

	repo := mongodb.NewMovieRepository(client)
	if !cfg.DB.LazyConnect {
		if _, err := client.Connect(ctx); err != nil {
			return nil, err
		}
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
	}

	return &Store{Movies: repo, Pinger: client, close: client.Disconnect}, nil
}

func openPostgres(cfg *config.Config) (*Store, error) {
	db, err := postgres.NewConnection(postgres.Options{
		DBName:   cfg.DB.Name,
		DBUser:   cfg.DB.User,
		Password: cfg.DB.Pass,
		Host:     cfg.DB.Host,
		Port:     strconv.Itoa(cfg.DB.Port),
		SSLMode:  cfg.DB.EnableSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: open postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("storage: open postgres: %w", err)
	}

	repo := postgres.NewMovieRepository(db)
	return &Store{
		Movies: repo,
		Pinger: repo,
		close: func(context.Context) error {
			return sqlDB.Close()
		},
	}, nil
}

func openDynamoDB(ctx context.Context, cfg *config.Config) (*Store, error) {
	client, err := dynamodb.NewClient(ctx, dynamodb.Options{
		Region:       cfg.DynamoDB.Region,
		Endpoint:     cfg.DynamoDB.Endpoint,
		AccessKey:    cfg.DynamoDB.AccessKey,
		SecretKey:    cfg.DynamoDB.SecretKey,
		SessionToken: cfg.DynamoDB.SessionToken,
	})
	if err != nil {
		return nil, err
	}

	repo, err := dynamodb.NewMovieRepository(client, cfg.DynamoDB.MoviesTable)
	if err != nil {
		return nil, err
	}
	if !cfg.DB.LazyConnect {
		if err := repo.EnsureTable(ctx); err != nil {
			return nil, err
		}
	}

	return &Store{Movies: repo, Pinger: repo}, nil
}
