package database

import (
	"context"

	"github.com/google/uuid"
)

const listStockItems = `-- name: ListStockItems :many
SELECT id, product_id, current_stock, min_stock, max_stock, unit, last_updated
FROM stock_items
ORDER BY last_updated DESC
`

func (q *Queries) ListStockItems(ctx context.Context) ([]StockItem, error) {
	rows, err := q.db.Query(ctx, listStockItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []StockItem
	for rows.Next() {
		var i StockItem
		if err := rows.Scan(
			&i.ID,
			&i.ProductID,
			&i.CurrentStock,
			&i.MinStock,
			&i.MaxStock,
			&i.Unit,
			&i.LastUpdated,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getStockItem = `-- name: GetStockItem :one
SELECT id, product_id, current_stock, min_stock, max_stock, unit, last_updated
FROM stock_items
WHERE id = $1
`

func (q *Queries) GetStockItem(ctx context.Context, id uuid.UUID) (StockItem, error) {
	row := q.db.QueryRow(ctx, getStockItem, id)
	var i StockItem
	err := row.Scan(
		&i.ID,
		&i.ProductID,
		&i.CurrentStock,
		&i.MinStock,
		&i.MaxStock,
		&i.Unit,
		&i.LastUpdated,
	)
	return i, err
}

const getStockItemByProduct = `-- name: GetStockItemByProduct :one
SELECT id, product_id, current_stock, min_stock, max_stock, unit, last_updated
FROM stock_items
WHERE product_id = $1
`

func (q *Queries) GetStockItemByProduct(ctx context.Context, productID uuid.UUID) (StockItem, error) {
	row := q.db.QueryRow(ctx, getStockItemByProduct, productID)
	var i StockItem
	err := row.Scan(
		&i.ID,
		&i.ProductID,
		&i.CurrentStock,
		&i.MinStock,
		&i.MaxStock,
		&i.Unit,
		&i.LastUpdated,
	)
	return i, err
}

const createStockItem = `-- name: CreateStockItem :one
INSERT INTO stock_items (product_id, current_stock, min_stock, max_stock, unit)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, product_id, current_stock, min_stock, max_stock, unit, last_updated
`

type CreateStockItemParams struct {
	ProductID    uuid.UUID
	CurrentStock int32
	MinStock     int32
	MaxStock     int32
	Unit         string
}

func (q *Queries) CreateStockItem(ctx context.Context, arg CreateStockItemParams) (StockItem, error) {
	row := q.db.QueryRow(ctx, createStockItem,
		arg.ProductID,
		arg.CurrentStock,
		arg.MinStock,
		arg.MaxStock,
		arg.Unit,
	)
	var i StockItem
	err := row.Scan(
		&i.ID,
		&i.ProductID,
		&i.CurrentStock,
		&i.MinStock,
		&i.MaxStock,
		&i.Unit,
		&i.LastUpdated,
	)
	return i, err
}

const setStockLevel = `-- name: SetStockLevel :one
UPDATE stock_items
SET current_stock = $2, last_updated = now()
WHERE id = $1
RETURNING id, product_id, current_stock, min_stock, max_stock, unit, last_updated
`

type SetStockLevelParams struct {
	ID           uuid.UUID
	CurrentStock int32
}

func (q *Queries) SetStockLevel(ctx context.Context, arg SetStockLevelParams) (StockItem, error) {
	row := q.db.QueryRow(ctx, setStockLevel, arg.ID, arg.CurrentStock)
	var i StockItem
	err := row.Scan(
		&i.ID,
		&i.ProductID,
		&i.CurrentStock,
		&i.MinStock,
		&i.MaxStock,
		&i.Unit,
		&i.LastUpdated,
	)
	return i, err
}

const decrementStockIfAvailable = `-- name: DecrementStockIfAvailable :one
UPDATE stock_items
SET current_stock = current_stock - $2, last_updated = now()
WHERE product_id = $1 AND current_stock >= $2
RETURNING id, product_id, current_stock, min_stock, max_stock, unit, last_updated
`

type DecrementStockIfAvailableParams struct {
	ProductID uuid.UUID
	Quantity  int32
}

// DecrementStockIfAvailable atomically takes quantity out of a product's
// stock. Returns pgx.ErrNoRows when the stock row is missing or holds less
// than the requested quantity; the caller treats that as insufficient stock.
func (q *Queries) DecrementStockIfAvailable(ctx context.Context, arg DecrementStockIfAvailableParams) (StockItem, error) {
	row := q.db.QueryRow(ctx, decrementStockIfAvailable, arg.ProductID, arg.Quantity)
	var i StockItem
	err := row.Scan(
		&i.ID,
		&i.ProductID,
		&i.CurrentStock,
		&i.MinStock,
		&i.MaxStock,
		&i.Unit,
		&i.LastUpdated,
	)
	return i, err
}

const addStockByProduct = `-- name: AddStockByProduct :one
UPDATE stock_items
SET current_stock = current_stock + $2, last_updated = now()
WHERE product_id = $1
RETURNING id, product_id, current_stock, min_stock, max_stock, unit, last_updated
`

type AddStockByProductParams struct {
	ProductID uuid.UUID
	Quantity  int32
}

func (q *Queries) AddStockByProduct(ctx context.Context, arg AddStockByProductParams) (StockItem, error) {
	row := q.db.QueryRow(ctx, addStockByProduct, arg.ProductID, arg.Quantity)
	var i StockItem
	err := row.Scan(
		&i.ID,
		&i.ProductID,
		&i.CurrentStock,
		&i.MinStock,
		&i.MaxStock,
		&i.Unit,
		&i.LastUpdated,
	)
	return i, err
}

const deactivateStockByProduct = `-- name: DeactivateStockByProduct :exec
UPDATE stock_items
SET current_stock = 0, min_stock = 0, max_stock = 0, unit = $2, last_updated = now()
WHERE product_id = $1
`

type DeactivateStockByProductParams struct {
	ProductID uuid.UUID
	Unit      string
}

func (q *Queries) DeactivateStockByProduct(ctx context.Context, arg DeactivateStockByProductParams) error {
	_, err := q.db.Exec(ctx, deactivateStockByProduct, arg.ProductID, arg.Unit)
	return err
}
