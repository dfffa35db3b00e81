package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const listActiveProducts = `-- name: ListActiveProducts :many
SELECT id, name, description, price, image_url, category, is_active, created_at, updated_at
FROM products
WHERE is_active = true
ORDER BY created_at DESC
`

func (q *Queries) ListActiveProducts(ctx context.Context) ([]Product, error) {
	rows, err := q.db.Query(ctx, listActiveProducts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Product
	for rows.Next() {
		var i Product
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Description,
			&i.Price,
			&i.ImageUrl,
			&i.Category,
			&i.IsActive,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listProductRefs = `-- name: ListProductRefs :many
SELECT id, name, price
FROM products
`

type ListProductRefsRow struct {
	ID    uuid.UUID
	Name  string
	Price pgtype.Numeric
}

// ListProductRefs returns id/name/price for every product, active or not.
// Used by the merge and billing projections, which must still resolve
// items of soft-deleted products.
func (q *Queries) ListProductRefs(ctx context.Context) ([]ListProductRefsRow, error) {
	rows, err := q.db.Query(ctx, listProductRefs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListProductRefsRow
	for rows.Next() {
		var i ListProductRefsRow
		if err := rows.Scan(&i.ID, &i.Name, &i.Price); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getProduct = `-- name: GetProduct :one
SELECT id, name, description, price, image_url, category, is_active, created_at, updated_at
FROM products
WHERE id = $1
`

func (q *Queries) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	row := q.db.QueryRow(ctx, getProduct, id)
	var i Product
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Description,
		&i.Price,
		&i.ImageUrl,
		&i.Category,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getActiveProductRef = `-- name: GetActiveProductRef :one
SELECT id, name, price
FROM products
WHERE id = $1 AND is_active = true
`

type GetActiveProductRefRow struct {
	ID    uuid.UUID
	Name  string
	Price pgtype.Numeric
}

func (q *Queries) GetActiveProductRef(ctx context.Context, id uuid.UUID) (GetActiveProductRefRow, error) {
	row := q.db.QueryRow(ctx, getActiveProductRef, id)
	var i GetActiveProductRefRow
	err := row.Scan(&i.ID, &i.Name, &i.Price)
	return i, err
}

const createProduct = `-- name: CreateProduct :one
INSERT INTO products (name, description, price, image_url, category)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, name, description, price, image_url, category, is_active, created_at, updated_at
`

type CreateProductParams struct {
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	ImageUrl    string
	Category    pgtype.Text
}

func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, createProduct,
		arg.Name,
		arg.Description,
		arg.Price,
		arg.ImageUrl,
		arg.Category,
	)
	var i Product
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Description,
		&i.Price,
		&i.ImageUrl,
		&i.Category,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateProduct = `-- name: UpdateProduct :one
UPDATE products
SET name = $2, description = $3, price = $4, image_url = $5, category = $6, updated_at = now()
WHERE id = $1 AND is_active = true
RETURNING id, name, description, price, image_url, category, is_active, created_at, updated_at
`

type UpdateProductParams struct {
	ID          uuid.UUID
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	ImageUrl    string
	Category    pgtype.Text
}

func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, updateProduct,
		arg.ID,
		arg.Name,
		arg.Description,
		arg.Price,
		arg.ImageUrl,
		arg.Category,
	)
	var i Product
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Description,
		&i.Price,
		&i.ImageUrl,
		&i.Category,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const softDeleteProduct = `-- name: SoftDeleteProduct :one
UPDATE products
SET is_active = false, updated_at = now()
WHERE id = $1 AND is_active = true
RETURNING id
`

func (q *Queries) SoftDeleteProduct(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, softDeleteProduct, id)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}
