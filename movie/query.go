package movie

import (
	"slices"
	"sort"
)

const (
	TopRatedLimit = 5
	RecentLimit   = 6
)

// SortOrder selects how Find orders its results.
type SortOrder int

const (
	// SortNewest orders by createdAt descending, then id descending.
	SortNewest SortOrder = iota
	// SortTopRated orders by rating descending with unrated records last,
	// then id ascending.
	SortTopRated
)

// Filter is the client-facing list filter. Zero value matches everything.
type Filter struct {
	Genres    []string
	MinRating *float64
	MaxRating *float64
}

// Query is what repositories execute.
type Query struct {
	Filter
	AddedBy string
	Sort    SortOrder
	Limit   int
}

// Match reports whether m satisfies every condition of q.
func (q Query) Match(m Movie) bool {
	if q.AddedBy != "" && m.AddedBy != q.AddedBy {
		return false
	}
	if len(q.Genres) > 0 && !slices.ContainsFunc(m.Genre, func(g string) bool {
		return slices.Contains(q.Genres, g)
	}) {
		return false
	}
	if q.MinRating != nil && (m.Rating == nil || *m.Rating < *q.MinRating) {
		return false
	}
	if q.MaxRating != nil && (m.Rating == nil || *m.Rating > *q.MaxRating) {
		return false
	}
	return true
}

// Select filters, orders and limits movies in process. Adapters without
// server-side querying use it so every store answers the same way.
func (q Query) Select(movies []Movie) []Movie {
	out := make([]Movie, 0, len(movies))
	for _, m := range movies {
		if q.Match(m) {
			out = append(out, m)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return q.Sort.Less(out[i], out[j])
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// Less reports whether a sorts before b.
func (o SortOrder) Less(a, b Movie) bool {
	switch o {
	case SortTopRated:
		switch {
		case a.Rating == nil && b.Rating == nil:
		case a.Rating == nil:
			return false
		case b.Rating == nil:
			return true
		case *a.Rating != *b.Rating:
			return *a.Rating > *b.Rating
		}
		return a.ID < b.ID
	default:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	}
}
