package movie

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"moviehub/errs"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Well-known record fields. Everything else a client sends is kept as-is.
const (
	FieldID          = "_id"
	FieldAltID       = "id"
	FieldTitle       = "title"
	FieldAddedBy     = "addedBy"
	FieldCreatedAt   = "createdAt"
	FieldGenre       = "genre"
	FieldRating      = "rating"
	FieldCallerEmail = "callerEmail"
)

var (
	ErrInvalidID       = errs.Errorf(errs.EINVALID, "invalid movie id")
	ErrNotFound        = errs.Errorf(errs.ENOTFOUND, "movie not found")
	ErrForbidden       = errs.Errorf(errs.EFORBIDDEN, "you can only modify movies you added")
	ErrCallerRequired  = errs.Errorf(errs.EUNAUTHORIZED, "caller email is required")
	ErrTitleRequired   = errs.Errorf(errs.EINVALID, "title is required")
	ErrAddedByRequired = errs.Errorf(errs.EINVALID, "addedBy is required")
	ErrInvalidGenre    = errs.Errorf(errs.EINVALID, "genre must be a string or a list of strings")
	ErrInvalidRating   = errs.Errorf(errs.EINVALID, "rating must be a number")
	ErrInvalidField    = errs.Errorf(errs.EINVALID, "field names must not contain '.' or start with '$'")
)

// Movie is a single movie record. ID, AddedBy and CreatedAt never change
// after creation; Extra holds the descriptive fields the service does not
// interpret.
type Movie struct {
	ID        string
	Title     string
	AddedBy   string
	CreatedAt time.Time
	Genre     []string
	Rating    *float64
	Extra     map[string]any
}

// ValidID reports whether id has the store's identifier format
// (a 24 character hex ObjectID).
func ValidID(id string) bool {
	_, err := bson.ObjectIDFromHex(id)
	return err == nil
}

// NewID returns a fresh identifier for adapters that do not generate one natively.
func NewID() string {
	return bson.NewObjectID().Hex()
}

// New builds a record from a client payload. Identity and timestamp fields
// supplied by the client are discarded; CreatedAt is set to now.
func New(fields map[string]any, now time.Time) (Movie, error) {
	var m Movie
	for k, v := range fields {
		if !validFieldName(k) {
			return Movie{}, ErrInvalidField
		}
		switch k {
		case FieldID, FieldAltID, FieldCreatedAt, FieldCallerEmail:
			continue
		}
		if err := m.set(k, v); err != nil {
			return Movie{}, err
		}
	}
	if err := m.Validate(); err != nil {
		return Movie{}, err
	}
	m.CreatedAt = now
	return m, nil
}

// validFieldName reports whether key can be stored as a top-level field.
// Dotted names and '$' prefixes are paths and operators to a document store.
func validFieldName(key string) bool {
	return !strings.Contains(key, ".") && !strings.HasPrefix(key, "$")
}

func (m Movie) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return ErrTitleRequired
	}
	if strings.TrimSpace(m.AddedBy) == "" {
		return ErrAddedByRequired
	}
	return nil
}

// OwnedBy reports whether email is the record's owner.
func (m Movie) OwnedBy(email string) bool {
	return m.AddedBy == email
}

// Apply merges p into a copy of m. Fields absent from p are untouched.
func (m Movie) Apply(p Patch) Movie {
	out := m
	out.Extra = make(map[string]any, len(m.Extra))
	for k, v := range m.Extra {
		out.Extra[k] = v
	}
	for k, v := range p {
		// Patch values are normalized by NewPatch, set cannot fail here.
		_ = out.set(k, v)
	}
	if len(out.Extra) == 0 {
		out.Extra = nil
	}
	return out
}

// Fields returns the record as a flat document.
func (m Movie) Fields() map[string]any {
	out := make(map[string]any, len(m.Extra)+6)
	for k, v := range m.Extra {
		out[k] = v
	}
	out[FieldID] = m.ID
	out[FieldTitle] = m.Title
	out[FieldAddedBy] = m.AddedBy
	out[FieldCreatedAt] = m.CreatedAt
	if m.Genre != nil {
		out[FieldGenre] = m.Genre
	}
	if m.Rating != nil {
		out[FieldRating] = *m.Rating
	}
	return out
}

func (m Movie) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Fields())
}

func (m *Movie) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	out, err := FromFields(fields)
	if err != nil {
		return err
	}
	*m = out
	return nil
}

// FromFields rebuilds a stored record from a flat document, the inverse of
// Fields. createdAt may be a time.Time or an RFC 3339 string.
func FromFields(fields map[string]any) (Movie, error) {
	var out Movie
	for k, v := range fields {
		switch k {
		case FieldID:
			s, _ := v.(string)
			out.ID = s
		case FieldCreatedAt:
			switch t := v.(type) {
			case time.Time:
				out.CreatedAt = t
			case string:
				if t == "" {
					continue
				}
				parsed, err := time.Parse(time.RFC3339Nano, t)
				if err != nil {
					return Movie{}, fmt.Errorf("movie: createdAt: %w", err)
				}
				out.CreatedAt = parsed
			}
		default:
			if err := out.set(k, v); err != nil {
				return Movie{}, err
			}
		}
	}
	return out, nil
}

func (m *Movie) set(key string, value any) error {
	switch key {
	case FieldTitle:
		s, _ := value.(string)
		m.Title = s
	case FieldAddedBy:
		s, _ := value.(string)
		m.AddedBy = s
	case FieldGenre:
		genre, err := toGenre(value)
		if err != nil {
			return err
		}
		m.Genre = genre
	case FieldRating:
		rating, err := toRating(value)
		if err != nil {
			return err
		}
		m.Rating = rating
	default:
		if m.Extra == nil {
			m.Extra = make(map[string]any)
		}
		m.Extra[key] = value
	}
	return nil
}

func toGenre(value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []string:
		if v == nil {
			return nil, nil
		}
		return append([]string{}, v...), nil
	case []any:
		genre := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, ErrInvalidGenre
			}
			genre = append(genre, s)
		}
		return genre, nil
	}
	return nil, ErrInvalidGenre
}

func toRating(value any) (*float64, error) {
	var f float64
	switch v := value.(type) {
	case nil:
		return nil, nil
	case *float64:
		if v == nil {
			return nil, nil
		}
		f = *v
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil, ErrInvalidRating
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, ErrInvalidRating
		}
		f = parsed
	default:
		return nil, ErrInvalidRating
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, ErrInvalidRating
	}
	return &f, nil
}
