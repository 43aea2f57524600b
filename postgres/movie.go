package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"moviehub/movie"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// MovieModel represents the database model for movies.
// Fields the service does not interpret live in the extra JSONB column.
type MovieModel struct {
	ID        string         `gorm:"primaryKey;type:char(24)"`
	Title     string         `gorm:"not null"`
	AddedBy   string         `gorm:"column:added_by;not null"`
	CreatedAt time.Time      `gorm:"not null"`
	Genre     pq.StringArray `gorm:"type:text[]"`
	Rating    *float64
	Extra     map[string]any `gorm:"type:jsonb;serializer:json;not null"`
}

// TableName specifies the table name for GORM
func (MovieModel) TableName() string {
	return "movies"
}

// MovieRepository implements movie.Repository interface
type MovieRepository struct {
	db *gorm.DB
}

// NewMovieRepository creates a new movie repository
func NewMovieRepository(db *gorm.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

func (r *MovieRepository) Find(ctx context.Context, q movie.Query) ([]movie.Movie, error) {
	tx := r.db.WithContext(ctx).Model(&MovieModel{})

	if q.AddedBy != "" {
		tx = tx.Where("added_by = ?", q.AddedBy)
	}
	if len(q.Genres) > 0 {
		tx = tx.Where("genre && ?", pq.Array(q.Genres))
	}
	if q.MinRating != nil {
		tx = tx.Where("rating >= ?", *q.MinRating)
	}
	if q.MaxRating != nil {
		tx = tx.Where("rating <= ?", *q.MaxRating)
	}

	switch q.Sort {
	case movie.SortTopRated:
		tx = tx.Order("rating DESC NULLS LAST").Order("id ASC")
	default:
		tx = tx.Order("created_at DESC").Order("id DESC")
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var models []MovieModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}

	movies := make([]movie.Movie, len(models))
	for i, model := range models {
		movies[i] = toDomainMovie(model)
	}
	return movies, nil
}

func (r *MovieRepository) FindByID(ctx context.Context, id string) (movie.Movie, error) {
	var model MovieModel

	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return movie.Movie{}, movie.ErrNotFound
		}
		return movie.Movie{}, err
	}

	return toDomainMovie(model), nil
}

func (r *MovieRepository) Insert(ctx context.Context, m movie.Movie) (string, error) {
	model := toModelMovie(m)
	model.ID = movie.NewID()
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return "", err
	}
	return model.ID, nil
}

// Update applies p in a single statement guarded by id and owner.
// Unknown fields are merged into the extra column.
func (r *MovieRepository) Update(ctx context.Context, id, owner string, p movie.Patch) error {
	updates := map[string]any{}
	extra := map[string]any{}
	for k, v := range p.Set() {
		switch k {
		case movie.FieldTitle:
			updates["title"] = v
		case movie.FieldRating:
			updates["rating"] = v
		case movie.FieldGenre:
			genre, _ := v.([]string)
			if genre == nil {
				updates["genre"] = nil
			} else {
				updates["genre"] = pq.StringArray(genre)
			}
		default:
			extra[k] = v
		}
	}
	if len(extra) > 0 {
		b, err := json.Marshal(extra)
		if err != nil {
			return fmt.Errorf("postgres: marshal movie fields: %w", err)
		}
		updates["extra"] = gorm.Expr("COALESCE(extra, '{}'::jsonb) || ?::jsonb", string(b))
	}

	res := r.db.WithContext(ctx).
		Model(&MovieModel{}).
		Where("id = ? AND added_by = ?", id, owner).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return movie.ErrNotFound
	}
	return nil
}

func (r *MovieRepository) Delete(ctx context.Context, id, owner string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND added_by = ?", id, owner).
		Delete(&MovieModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return movie.ErrNotFound
	}
	return nil
}

func (r *MovieRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&MovieModel{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// Ping checks that the database is reachable.
func (r *MovieRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func toModelMovie(m movie.Movie) MovieModel {
	extra := m.Extra
	if extra == nil {
		extra = map[string]any{}
	}
	var genre pq.StringArray
	if m.Genre != nil {
		genre = pq.StringArray(m.Genre)
	}
	return MovieModel{
		ID:        m.ID,
		Title:     m.Title,
		AddedBy:   m.AddedBy,
		CreatedAt: m.CreatedAt,
		Genre:     genre,
		Rating:    m.Rating,
		Extra:     extra,
	}
}

func toDomainMovie(model MovieModel) movie.Movie {
	var extra map[string]any
	if len(model.Extra) > 0 {
		extra = model.Extra
	}
	var genre []string
	if model.Genre != nil {
		genre = []string(model.Genre)
	}
	return movie.Movie{
		ID:        model.ID,
		Title:     model.Title,
		AddedBy:   model.AddedBy,
		CreatedAt: model.CreatedAt.UTC(),
		Genre:     genre,
		Rating:    model.Rating,
		Extra:     extra,
	}
}
