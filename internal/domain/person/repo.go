package person

import (
	"context"
	"errors"
)

var (
	ErrNotFound   = errors.New("person not found")
	ErrConflict   = errors.New("cid already registered")
	ErrValidation = errors.New("invalid person")
)

// Scope restricts a list to one hospital. An empty Hospital means all rows.
type Scope struct {
	Hospital string
}

// All reports whether the scope is unrestricted.
func (s Scope) All() bool { return s.Hospital == "" }

type Repository interface {
	Create(ctx context.Context, p *Person) error
	GetByID(ctx context.Context, id int64) (*Person, error)
	GetByCID(ctx context.Context, cid string) (*Person, error)
	// CIDOwner returns the id of the row holding cid, or ErrNotFound.
	CIDOwner(ctx context.Context, cid string) (int64, error)
	Update(ctx context.Context, p *Person) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, scope Scope) ([]*Person, error)
	// UpdateStatus sets the status of the person with cid.
	UpdateStatus(ctx context.Context, cid, status string) error
}
