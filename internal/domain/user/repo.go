package user

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("user not found")
	ErrConflict = errors.New("username already exists")
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
}
