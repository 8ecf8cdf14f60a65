package dbq

import (
	"context"
	"database/sql"
	"time"
)

const createUser = `-- name: CreateUser :execlastid
INSERT INTO users (email, display_name, created_at) VALUES (?, ?, ?)`

type CreateUserParams struct {
	Email       sql.NullString `json:"email"`
	DisplayName string         `json:"display_name"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, createUser, arg.Email, arg.DisplayName, arg.CreatedAt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const getUserByID = `-- name: GetUserByID :one
SELECT id, email, display_name, created_at FROM users WHERE id = ?`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByID, id)
	var i User
	err := row.Scan(&i.ID, &i.Email, &i.DisplayName, &i.CreatedAt)
	return i, err
}
