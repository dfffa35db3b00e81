package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (table_id, waiter_id, status, note, total_amount)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, table_id, waiter_id, status, note, is_bill_requested, total_amount, created_at, updated_at
`

type CreateOrderParams struct {
	TableID     uuid.UUID
	WaiterID    pgtype.UUID
	Status      string
	Note        pgtype.Text
	TotalAmount pgtype.Numeric
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.TableID,
		arg.WaiterID,
		arg.Status,
		arg.Note,
		arg.TotalAmount,
	)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.TableID,
		&i.WaiterID,
		&i.Status,
		&i.Note,
		&i.IsBillRequested,
		&i.TotalAmount,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getOrder = `-- name: GetOrder :one
SELECT id, table_id, waiter_id, status, note, is_bill_requested, total_amount, created_at, updated_at
FROM orders
WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrder, id)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.TableID,
		&i.WaiterID,
		&i.Status,
		&i.Note,
		&i.IsBillRequested,
		&i.TotalAmount,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listOrders = `-- name: ListOrders :many
SELECT id, table_id, waiter_id, status, note, is_bill_requested, total_amount, created_at, updated_at
FROM orders
ORDER BY created_at DESC
`

func (q *Queries) ListOrders(ctx context.Context) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

const listOpenOrdersByTables = `-- name: ListOpenOrdersByTables :many
SELECT id, table_id, waiter_id, status, note, is_bill_requested, total_amount, created_at, updated_at
FROM orders
WHERE table_id = ANY($1::uuid[]) AND status IN ('pending', 'preparing', 'ready')
ORDER BY created_at
`

func (q *Queries) ListOpenOrdersByTables(ctx context.Context, tableIDs []uuid.UUID) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOpenOrdersByTables, tableIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

const listCompletedOrdersInRange = `-- name: ListCompletedOrdersInRange :many
SELECT id, table_id, waiter_id, status, note, is_bill_requested, total_amount, created_at, updated_at
FROM orders
WHERE status = 'completed' AND created_at >= $1 AND created_at < $2
ORDER BY created_at
`

type ListCompletedOrdersInRangeParams struct {
	From time.Time
	To   time.Time
}

// ListCompletedOrdersInRange selects completed orders created in the
// half-open window [From, To).
func (q *Queries) ListCompletedOrdersInRange(ctx context.Context, arg ListCompletedOrdersInRangeParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listCompletedOrdersInRange, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

const updateOrderStatus = `-- name: UpdateOrderStatus :one
UPDATE orders
SET status = $2, updated_at = now()
WHERE id = $1
RETURNING id, table_id, waiter_id, status, note, is_bill_requested, total_amount, created_at, updated_at
`

type UpdateOrderStatusParams struct {
	ID     uuid.UUID
	Status string
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.TableID,
		&i.WaiterID,
		&i.Status,
		&i.Note,
		&i.IsBillRequested,
		&i.TotalAmount,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateOrderNote = `-- name: UpdateOrderNote :one
UPDATE orders
SET note = $2, updated_at = now()
WHERE id = $1
RETURNING id, table_id, waiter_id, status, note, is_bill_requested, total_amount, created_at, updated_at
`

type UpdateOrderNoteParams struct {
	ID   uuid.UUID
	Note pgtype.Text
}

func (q *Queries) UpdateOrderNote(ctx context.Context, arg UpdateOrderNoteParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderNote, arg.ID, arg.Note)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.TableID,
		&i.WaiterID,
		&i.Status,
		&i.Note,
		&i.IsBillRequested,
		&i.TotalAmount,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const requestBill = `-- name: RequestBill :one
UPDATE orders
SET is_bill_requested = true, updated_at = now()
WHERE id = $1 AND status != 'completed'
RETURNING id, table_id, waiter_id, status, note, is_bill_requested, total_amount, created_at, updated_at
`

func (q *Queries) RequestBill(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, requestBill, id)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.TableID,
		&i.WaiterID,
		&i.Status,
		&i.Note,
		&i.IsBillRequested,
		&i.TotalAmount,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const completeOrders = `-- name: CompleteOrders :exec
UPDATE orders
SET status = 'completed', updated_at = now()
WHERE id = ANY($1::uuid[])
`

func (q *Queries) CompleteOrders(ctx context.Context, ids []uuid.UUID) error {
	_, err := q.db.Exec(ctx, completeOrders, ids)
	return err
}

func scanOrders(rows pgx.Rows) ([]Order, error) {
	var items []Order
	for rows.Next() {
		var i Order
		if err := rows.Scan(
			&i.ID,
			&i.TableID,
			&i.WaiterID,
			&i.Status,
			&i.Note,
			&i.IsBillRequested,
			&i.TotalAmount,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
