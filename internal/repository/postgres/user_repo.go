package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/reelhouse/reelhouse/internal/domain/user"
)

var _ user.Repo = (*UserRepo)(nil)

type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

// password_hash is NULL for OAuth-only accounts; the domain type uses the
// empty string for that, hence NULLIF on write and COALESCE on read.
const (
	qUserInsert = `
INSERT INTO users (email, password_hash)
VALUES ($1, NULLIF($2, ''))
RETURNING id, email, COALESCE(password_hash, ''), created_at, updated_at;`

	qUserByID = `
SELECT id, email, COALESCE(password_hash, ''), created_at, updated_at
FROM users
WHERE id = $1;`

	qUserByEmail = `
SELECT id, email, COALESCE(password_hash, ''), created_at, updated_at
FROM users
WHERE LOWER(email) = LOWER($1);`

	qUserUpdate = `
UPDATE users
SET email         = $2,
    password_hash = NULLIF($3, ''),
    updated_at    = NOW()
WHERE id = $1
RETURNING id, email, COALESCE(password_hash, ''), created_at, updated_at;`
)

func (r *UserRepo) Create(ctx context.Context, u *user.User) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if err := scanUser(r.db.Pool.QueryRow(ctx, qUserInsert, u.Email, u.PasswordHash), u); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return user.ErrConflict
		}
		return fmt.Errorf("user insert: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	if err := scanUser(r.db.Pool.QueryRow(ctx, qUserByID, id), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	if err := scanUser(r.db.Pool.QueryRow(ctx, qUserByEmail, email), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Update(ctx context.Context, u *user.User) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if err := scanUser(r.db.Pool.QueryRow(ctx, qUserUpdate, u.ID, u.Email, u.PasswordHash), u); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.ErrNotFound
		}
		return fmt.Errorf("user update: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row, out *user.User) error {
	if err := row.Scan(&out.ID, &out.Email, &out.PasswordHash, &out.CreatedAt, &out.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.ErrNotFound
		}
		return err
	}
	return nil
}
