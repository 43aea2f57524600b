package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"moviehub/movie"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// movieDocument is the stored shape of a movie. Fields the service does not
// know about are kept flat in the document through the inline map.
type movieDocument struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Title     string        `bson:"title"`
	AddedBy   string        `bson:"addedBy"`
	CreatedAt time.Time     `bson:"createdAt"`
	Genre     []string      `bson:"genre,omitempty"`
	Rating    *float64      `bson:"rating,omitempty"`
	Extra     bson.M        `bson:",inline"`
}

type CollectionProvider interface {
	Collection(ctx context.Context) (*mongo.Collection, error)
}

// MovieRepository implements movie.Repository on a document collection.
type MovieRepository struct {
	p CollectionProvider
}

func NewMovieRepository(p CollectionProvider) *MovieRepository {
	return &MovieRepository{p: p}
}

// EnsureIndexes creates the indexes backing the list, owner and top-rated reads.
func (r *MovieRepository) EnsureIndexes(ctx context.Context) error {
	coll, err := r.p.Collection(ctx)
	if err != nil {
		return err
	}

	_, err = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "addedBy", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "rating", Value: -1}}},
		{Keys: bson.D{{Key: "genre", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongodb: create indexes: %w", err)
	}
	return nil
}

func (r *MovieRepository) Find(ctx context.Context, q movie.Query) ([]movie.Movie, error) {
	coll, err := r.p.Collection(ctx)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(sortFor(q.Sort))
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := coll.Find(ctx, filterFor(q), opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb: find movies: %w", err)
	}

	var docs []movieDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongodb: decode movies: %w", err)
	}

	movies := make([]movie.Movie, len(docs))
	for i, doc := range docs {
		movies[i] = toDomainMovie(doc)
	}
	return movies, nil
}

func (r *MovieRepository) FindByID(ctx context.Context, id string) (movie.Movie, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return movie.Movie{}, movie.ErrInvalidID
	}

	coll, err := r.p.Collection(ctx)
	if err != nil {
		return movie.Movie{}, err
	}

	var doc movieDocument
	err = coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return movie.Movie{}, movie.ErrNotFound
		}
		return movie.Movie{}, fmt.Errorf("mongodb: find movie: %w", err)
	}

	return toDomainMovie(doc), nil
}

func (r *MovieRepository) Insert(ctx context.Context, m movie.Movie) (string, error) {
	coll, err := r.p.Collection(ctx)
	if err != nil {
		return "", err
	}

	doc := toDocument(m)
	doc.ID = bson.NewObjectID()
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("mongodb: insert movie: %w", err)
	}
	return doc.ID.Hex(), nil
}

func (r *MovieRepository) Update(ctx context.Context, id, owner string, p movie.Patch) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return movie.ErrInvalidID
	}

	coll, err := r.p.Collection(ctx)
	if err != nil {
		return err
	}

	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": oid, "addedBy": owner},
		bson.M{"$set": bson.M(p.Set())},
	)
	if err != nil {
		return fmt.Errorf("mongodb: update movie: %w", err)
	}
	if res.MatchedCount == 0 {
		return movie.ErrNotFound
	}
	return nil
}

func (r *MovieRepository) Delete(ctx context.Context, id, owner string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return movie.ErrInvalidID
	}

	coll, err := r.p.Collection(ctx)
	if err != nil {
		return err
	}

	res, err := coll.DeleteOne(ctx, bson.M{"_id": oid, "addedBy": owner})
	if err != nil {
		return fmt.Errorf("mongodb: delete movie: %w", err)
	}
	if res.DeletedCount == 0 {
		return movie.ErrNotFound
	}
	return nil
}

func (r *MovieRepository) Count(ctx context.Context) (int64, error) {
	coll, err := r.p.Collection(ctx)
	if err != nil {
		return 0, err
	}

	n, err := coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("mongodb: count movies: %w", err)
	}
	return n, nil
}

func filterFor(q movie.Query) bson.M {
	filter := bson.M{}
	if q.AddedBy != "" {
		filter["addedBy"] = q.AddedBy
	}
	if len(q.Genres) > 0 {
		filter["genre"] = bson.M{"$in": q.Genres}
	}

	rating := bson.M{}
	if q.MinRating != nil {
		rating["$gte"] = *q.MinRating
	}
	if q.MaxRating != nil {
		rating["$lte"] = *q.MaxRating
	}
	if len(rating) > 0 {
		filter["rating"] = rating
	}
	return filter
}

func sortFor(order movie.SortOrder) bson.D {
	if order == movie.SortTopRated {
		return bson.D{{Key: "rating", Value: -1}, {Key: "_id", Value: 1}}
	}
	return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
}

func toDocument(m movie.Movie) movieDocument {
	return movieDocument{
		Title:     m.Title,
		AddedBy:   m.AddedBy,
		CreatedAt: m.CreatedAt,
		Genre:     m.Genre,
		Rating:    m.Rating,
		Extra:     bson.M(m.Extra),
	}
}

func toDomainMovie(doc movieDocument) movie.Movie {
	var extra map[string]any
	if len(doc.Extra) > 0 {
		extra = map[string]any(doc.Extra)
	}
	return movie.Movie{
		ID:        doc.ID.Hex(),
		Title:     doc.Title,
		AddedBy:   doc.AddedBy,
		CreatedAt: doc.CreatedAt.UTC(),
		Genre:     doc.Genre,
		Rating:    doc.Rating,
		Extra:     extra,
	}
}
