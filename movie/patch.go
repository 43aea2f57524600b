package movie

import "strings"

// Patch is a partial update. Keys are record fields, values overwrite the
// stored ones in place.
type Patch map[string]any

// immutableFields are dropped from every update payload, whatever their value.
var immutableFields = map[string]struct{}{
	FieldID:          {},
	FieldAltID:       {},
	FieldAddedBy:     {},
	FieldCreatedAt:   {},
	FieldCallerEmail: {},
}

// NewPatch strips immutable fields from fields and normalizes the
// well-known ones (genre becomes []string, rating becomes *float64).
func NewPatch(fields map[string]any) (Patch, error) {
	p := make(Patch, len(fields))
	for k, v := range fields {
		if !validFieldName(k) {
			return nil, ErrInvalidField
		}
		if _, ok := immutableFields[k]; ok {
			continue
		}

		switch k {
		case FieldTitle:
			s, ok := v.(string)
			if !ok || strings.TrimSpace(s) == "" {
				return nil, ErrTitleRequired
			}
			p[k] = s
		case FieldGenre:
			genre, err := toGenre(v)
			if err != nil {
				return nil, err
			}
			p[k] = genre
		case FieldRating:
			rating, err := toRating(v)
			if err != nil {
				return nil, err
			}
			p[k] = rating
		default:
			p[k] = v
		}
	}
	return p, nil
}

// Set returns the patch with typed values flattened for stores that take
// plain documents (nil pointers become nil).
func (p Patch) Set() map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		switch val := v.(type) {
		case *float64:
			if val == nil {
				out[k] = nil
			} else {
				out[k] = *val
			}
		case []string:
			if val == nil {
				out[k] = nil
			} else {
				out[k] = val
			}
		default:
			out[k] = v
		}
	}
	return out
}
