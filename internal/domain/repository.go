package domain

import "context"

// Repository is the CRUD contract every entity repository exposes.
//
// Create returns a new record carrying the stored identifier; the argument is
// never modified. Read returns ErrNotFound when no row matches. Update and
// Delete succeed without effect when the identifier does not exist.
type Repository[T any] interface {
	Create(ctx context.Context, record T) (T, error)
	Read(ctx context.Context, id int64) (T, error)
	Update(ctx context.Context, record T) (T, error)
	Delete(ctx context.Context, id int64) error
}
