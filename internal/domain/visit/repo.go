package visit

import (
	"context"
	"errors"
)

var (
	ErrNotFound       = errors.New("visit not found")
	ErrPersonNotFound = errors.New("person not found")
	ErrNoMedication   = errors.New("no medication found")
	ErrOutOfRange     = errors.New("numeric value out of range")
)

type Repository interface {
	Create(ctx context.Context, v *Visit) error
	Update(ctx context.Context, v *Visit) error
	Delete(ctx context.Context, id int64) error
	ListByPerson(ctx context.Context, cid string) ([]*Row, error)
	// LatestWithMedication returns the highest-id visit of cid whose
	// medication list is non-empty, or ErrNoMedication.
	LatestWithMedication(ctx context.Context, cid string) (*Visit, error)
}

// PersonStore is the slice of the person repository visits depend on.
type PersonStore interface {
	CIDOwner(ctx context.Context, cid string) (int64, error)
	UpdateStatus(ctx context.Context, cid, status string) error
}
