package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createWaiter = `-- name: CreateWaiter :one
INSERT INTO waiters (first_name, last_name, email, hashed_password, role)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, first_name, last_name, email, hashed_password, role, push_token, created_at
`

type CreateWaiterParams struct {
	FirstName      string
	LastName       string
	Email          string
	HashedPassword string
	Role           string
}

func (q *Queries) CreateWaiter(ctx context.Context, arg CreateWaiterParams) (Waiter, error) {
	row := q.db.QueryRow(ctx, createWaiter,
		arg.FirstName,
		arg.LastName,
		arg.Email,
		arg.HashedPassword,
		arg.Role,
	)
	var i Waiter
	err := row.Scan(
		&i.ID,
		&i.FirstName,
		&i.LastName,
		&i.Email,
		&i.HashedPassword,
		&i.Role,
		&i.PushToken,
		&i.CreatedAt,
	)
	return i, err
}

const getWaiter = `-- name: GetWaiter :one
SELECT id, first_name, last_name, email, hashed_password, role, push_token, created_at
FROM waiters
WHERE id = $1
`

func (q *Queries) GetWaiter(ctx context.Context, id uuid.UUID) (Waiter, error) {
	row := q.db.QueryRow(ctx, getWaiter, id)
	var i Waiter
	err := row.Scan(
		&i.ID,
		&i.FirstName,
		&i.LastName,
		&i.Email,
		&i.HashedPassword,
		&i.Role,
		&i.PushToken,
		&i.CreatedAt,
	)
	return i, err
}

const getWaiterByEmail = `-- name: GetWaiterByEmail :one
SELECT id, first_name, last_name, email, hashed_password, role, push_token, created_at
FROM waiters
WHERE email = $1
`

func (q *Queries) GetWaiterByEmail(ctx context.Context, email string) (Waiter, error) {
	row := q.db.QueryRow(ctx, getWaiterByEmail, email)
	var i Waiter
	err := row.Scan(
		&i.ID,
		&i.FirstName,
		&i.LastName,
		&i.Email,
		&i.HashedPassword,
		&i.Role,
		&i.PushToken,
		&i.CreatedAt,
	)
	return i, err
}

const listWaiters = `-- name: ListWaiters :many
SELECT id, first_name, last_name, email, hashed_password, role, push_token, created_at
FROM waiters
ORDER BY created_at
`

func (q *Queries) ListWaiters(ctx context.Context) ([]Waiter, error) {
	rows, err := q.db.Query(ctx, listWaiters)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Waiter
	for rows.Next() {
		var i Waiter
		if err := rows.Scan(
			&i.ID,
			&i.FirstName,
			&i.LastName,
			&i.Email,
			&i.HashedPassword,
			&i.Role,
			&i.PushToken,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const setWaiterPushToken = `-- name: SetWaiterPushToken :one
UPDATE waiters
SET push_token = $2
WHERE id = $1
RETURNING id, first_name, last_name, email, hashed_password, role, push_token, created_at
`

type SetWaiterPushTokenParams struct {
	ID        uuid.UUID
	PushToken pgtype.Text
}

func (q *Queries) SetWaiterPushToken(ctx context.Context, arg SetWaiterPushTokenParams) (Waiter, error) {
	row := q.db.QueryRow(ctx, setWaiterPushToken, arg.ID, arg.PushToken)
	var i Waiter
	err := row.Scan(
		&i.ID,
		&i.FirstName,
		&i.LastName,
		&i.Email,
		&i.HashedPassword,
		&i.Role,
		&i.PushToken,
		&i.CreatedAt,
	)
	return i, err
}
