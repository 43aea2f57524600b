package movie

import (
	"context"
	"strings"
	"time"
)

type Service interface {
	List(ctx context.Context, f Filter) ([]Movie, error)
	Get(ctx context.Context, id string) (Movie, error)
	ListByOwner(ctx context.Context, email string) ([]Movie, error)
	Create(ctx context.Context, fields map[string]any) (string, error)
	Update(ctx context.Context, id, callerEmail string, fields map[string]any) error
	Delete(ctx context.Context, id, callerEmail string) error
	TopRated(ctx context.Context) ([]Movie, error)
	Recent(ctx context.Context) ([]Movie, error)
	Count(ctx context.Context) (int64, error)
}

// Repository is the storage port. Update and Delete only touch a record
// whose id and owner both match, and return ErrNotFound otherwise.
type Repository interface {
	Find(ctx context.Context, q Query) ([]Movie, error)
	FindByID(ctx context.Context, id string) (Movie, error)
	Insert(ctx context.Context, m Movie) (string, error)
	Update(ctx context.Context, id, owner string, p Patch) error
	Delete(ctx context.Context, id, owner string) error
	Count(ctx context.Context) (int64, error)
}

type Option func(uc *Usecase)

// WithClock overrides the time source used for createdAt.
func WithClock(now func() time.Time) Option {
	return func(uc *Usecase) {
		uc.now = now
	}
}

type Usecase struct {
	r   Repository
	now func() time.Time
}

func NewUsecase(r Repository, opts ...Option) *Usecase {
	uc := &Usecase{
		r:   r,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *Usecase) List(ctx context.Context, f Filter) ([]Movie, error) {
	return uc.r.Find(ctx, Query{Filter: f, Sort: SortNewest})
}

func (uc *Usecase) Get(ctx context.Context, id string) (Movie, error) {
	if !ValidID(id) {
		return Movie{}, ErrInvalidID
	}
	return uc.r.FindByID(ctx, id)
}

func (uc *Usecase) ListByOwner(ctx context.Context, email string) ([]Movie, error) {
	// No record has a blank owner, and an empty AddedBy means "any owner".
	if strings.TrimSpace(email) == "" {
		return []Movie{}, nil
	}
	return uc.r.Find(ctx, Query{AddedBy: email, Sort: SortNewest})
}

func (uc *Usecase) Create(ctx context.Context, fields map[string]any) (string, error) {
	// Stores keep millisecond precision.
	now := uc.now().UTC().Truncate(time.Millisecond)
	m, err := New(fields, now)
	if err != nil {
		return "", err
	}
	return uc.r.Insert(ctx, m)
}

func (uc *Usecase) Update(ctx context.Context, id, callerEmail string, fields map[string]any) error {
	existing, err := uc.authorize(ctx, id, callerEmail)
	if err != nil {
		return err
	}

	p, err := NewPatch(fields)
	if err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}

	return uc.r.Update(ctx, existing.ID, existing.AddedBy, p)
}

func (uc *Usecase) Delete(ctx context.Context, id, callerEmail string) error {
	existing, err := uc.authorize(ctx, id, callerEmail)
	if err != nil {
		return err
	}
	return uc.r.Delete(ctx, existing.ID, existing.AddedBy)
}

func (uc *Usecase) TopRated(ctx context.Context) ([]Movie, error) {
	return uc.r.Find(ctx, Query{Sort: SortTopRated, Limit: TopRatedLimit})
}

func (uc *Usecase) Recent(ctx context.Context) ([]Movie, error) {
	return uc.r.Find(ctx, Query{Sort: SortNewest, Limit: RecentLimit})
}

func (uc *Usecase) Count(ctx context.Context) (int64, error) {
	return uc.r.Count(ctx)
}

// authorize runs the checks shared by every mutating operation, in order:
// id format, caller present, record exists, caller is the owner.
// The caller email is taken at face value.
func (uc *Usecase) authorize(ctx context.Context, id, callerEmail string) (Movie, error) {
	if !ValidID(id) {
		return Movie{}, ErrInvalidID
	}
	if strings.TrimSpace(callerEmail) == "" {
		return Movie{}, ErrCallerRequired
	}

	existing, err := uc.r.FindByID(ctx, id)
	if err != nil {
		return Movie{}, err
	}
	if !existing.OwnedBy(callerEmail) {
		return Movie{}, ErrForbidden
	}
	return existing, nil
}
