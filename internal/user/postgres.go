package user

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/victornm/techbridge/internal/domain"
	"github.com/victornm/techbridge/internal/errors"
)

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, u domain.User) (bool, error) {
	const stmt = `
INSERT INTO users (user_id, name, email, picture, create_time)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id) DO NOTHING;`

	tag, err := s.db.Exec(ctx, stmt, u.UserID, u.Name, u.Email, u.Picture, u.CreateTime)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	const stmt = `
SELECT user_id, name, email, picture, create_time
FROM users
WHERE user_id = $1;`

	var u domain.User
	err := s.db.QueryRow(ctx, stmt, userID).Scan(&u.UserID, &u.Name, &u.Email, &u.Picture, &u.CreateTime)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.New(errors.CodeNotFound, errors.WithMessagef("user not found: %s", userID))
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &u, nil
}
