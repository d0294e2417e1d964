package user

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/James-CPE/API-NCD/internal/platform/db"
)

type userRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &userRepoPG{pool: pool} }

func (r *userRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const userCols = `id, username, password, fullname, hospital, role, created_at, updated_at`

func (r *userRepoPG) scanRow(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Password, &u.Fullname, &u.Hospital,
		&u.Role, &u.CreatedAt, &u.UpdatedAt)
	return &u, err
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO t_users (username, password, fullname, hospital, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		u.Username, u.Password, u.Fullname, u.Hospital, u.Role, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if db.IsUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (r *userRepoPG) GetByUsername(ctx context.Context, username string) (*User, error) {
	u, err := r.scanRow(r.conn(ctx).QueryRow(ctx,
		`SELECT `+userCols+` FROM t_users WHERE username = $1`, username))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *userRepoPG) List(ctx context.Context) ([]*User, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+userCols+` FROM t_users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	items := []*User{}
	for rows.Next() {
		u, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

func (r *userRepoPG) UpdatePassword(ctx context.Context, id int64, hash string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE t_users SET password = $1, updated_at = NOW() WHERE id = $2`, hash, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
