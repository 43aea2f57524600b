// Package memory keeps movies in process. It backs local runs and tests and
// answers queries exactly like the persistent adapters.
package memory

import (
	"context"
	"sync"

	"moviehub/movie"
)

// MovieRepository implements movie.Repository on a guarded map.
type MovieRepository struct {
	mu     sync.RWMutex
	movies map[string]movie.Movie
	newID  func() string
}

func NewMovieRepository() *MovieRepository {
	return &MovieRepository{
		movies: make(map[string]movie.Movie),
		newID:  movie.NewID,
	}
}

func (r *MovieRepository) Find(_ context.Context, q movie.Query) ([]movie.Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]movie.Movie, 0, len(r.movies))
	for _, m := range r.movies {
		all = append(all, m)
	}
	return q.Select(all), nil
}

func (r *MovieRepository) FindByID(_ context.Context, id string) (movie.Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.movies[id]
	if !ok {
		return movie.Movie{}, movie.ErrNotFound
	}
	return m, nil
}

func (r *MovieRepository) Insert(_ context.Context, m movie.Movie) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m.ID = r.newID()
	r.movies[m.ID] = m
	return m.ID, nil
}

func (r *MovieRepository) Update(_ context.Context, id, owner string, p movie.Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.movies[id]
	if !ok || !m.OwnedBy(owner) {
		return movie.ErrNotFound
	}
	r.movies[id] = m.Apply(p)
	return nil
}

func (r *MovieRepository) Delete(_ context.Context, id, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.movies[id]
	if !ok || !m.OwnedBy(owner) {
		return movie.ErrNotFound
	}
	delete(r.movies, id)
	return nil
}

func (r *MovieRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.movies)), nil
}
