package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const listTables = `-- name: ListTables :many
SELECT id, table_number, name, group_id, created_at
FROM tables
ORDER BY table_number
`

func (q *Queries) ListTables(ctx context.Context) ([]Table, error) {
	rows, err := q.db.Query(ctx, listTables)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Table
	for rows.Next() {
		var i Table
		if err := rows.Scan(&i.ID, &i.TableNumber, &i.Name, &i.GroupID, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listOccupiedTables = `-- name: ListOccupiedTables :many
SELECT id, table_number, name, group_id, created_at
FROM tables
WHERE name IS NOT NULL
ORDER BY table_number
`

// ListOccupiedTables returns tables whose display name is set. A non-null
// name is the occupancy signal: clearing it frees the table.
func (q *Queries) ListOccupiedTables(ctx context.Context) ([]Table, error) {
	rows, err := q.db.Query(ctx, listOccupiedTables)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Table
	for rows.Next() {
		var i Table
		if err := rows.Scan(&i.ID, &i.TableNumber, &i.Name, &i.GroupID, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listTablesByGroup = `-- name: ListTablesByGroup :many
SELECT id, table_number, name, group_id, created_at
FROM tables
WHERE group_id = $1
ORDER BY table_number
`

func (q *Queries) ListTablesByGroup(ctx context.Context, groupID uuid.UUID) ([]Table, error) {
	rows, err := q.db.Query(ctx, listTablesByGroup, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Table
	for rows.Next() {
		var i Table
		if err := rows.Scan(&i.ID, &i.TableNumber, &i.Name, &i.GroupID, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getTable = `-- name: GetTable :one
SELECT id, table_number, name, group_id, created_at
FROM tables
WHERE id = $1
`

func (q *Queries) GetTable(ctx context.Context, id uuid.UUID) (Table, error) {
	row := q.db.QueryRow(ctx, getTable, id)
	var i Table
	err := row.Scan(&i.ID, &i.TableNumber, &i.Name, &i.GroupID, &i.CreatedAt)
	return i, err
}

const createTable = `-- name: CreateTable :one
INSERT INTO tables (table_number, name)
VALUES ($1, $2)
RETURNING id, table_number, name, group_id, created_at
`

type CreateTableParams struct {
	TableNumber int32
	Name        pgtype.Text
}

func (q *Queries) CreateTable(ctx context.Context, arg CreateTableParams) (Table, error) {
	row := q.db.QueryRow(ctx, createTable, arg.TableNumber, arg.Name)
	var i Table
	err := row.Scan(&i.ID, &i.TableNumber, &i.Name, &i.GroupID, &i.CreatedAt)
	return i, err
}

const setTableName = `-- name: SetTableName :one
UPDATE tables
SET name = $2
WHERE id = $1
RETURNING id, table_number, name, group_id, created_at
`

type SetTableNameParams struct {
	ID   uuid.UUID
	Name pgtype.Text
}

func (q *Queries) SetTableName(ctx context.Context, arg SetTableNameParams) (Table, error) {
	row := q.db.QueryRow(ctx, setTableName, arg.ID, arg.Name)
	var i Table
	err := row.Scan(&i.ID, &i.TableNumber, &i.Name, &i.GroupID, &i.CreatedAt)
	return i, err
}

const assignTableGroup = `-- name: AssignTableGroup :exec
UPDATE tables
SET group_id = $1
WHERE id = ANY($2::uuid[])
`

type AssignTableGroupParams struct {
	GroupID  uuid.UUID
	TableIDs []uuid.UUID
}

// AssignTableGroup stamps one group ID onto every listed table in a single
// statement, keeping group membership symmetric.
func (q *Queries) AssignTableGroup(ctx context.Context, arg AssignTableGroupParams) error {
	_, err := q.db.Exec(ctx, assignTableGroup, arg.GroupID, arg.TableIDs)
	return err
}

const clearTableGroup = `-- name: ClearTableGroup :exec
UPDATE tables
SET group_id = NULL
WHERE group_id = $1
`

func (q *Queries) ClearTableGroup(ctx context.Context, groupID uuid.UUID) error {
	_, err := q.db.Exec(ctx, clearTableGroup, groupID)
	return err
}

const clearTableNamesByGroup = `-- name: ClearTableNamesByGroup :exec
UPDATE tables
SET name = NULL
WHERE group_id = $1
`

func (q *Queries) ClearTableNamesByGroup(ctx context.Context, groupID uuid.UUID) error {
	_, err := q.db.Exec(ctx, clearTableNamesByGroup, groupID)
	return err
}
