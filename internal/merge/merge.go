// Package merge stitches independently fetched entity sets into
// denormalized views. The source queries are flat per-entity selects with
// no transactional guarantee between them, so a referenced table or product
// may have disappeared between fetches: the merge leaves the field nil and
// never fails on an unmatched key.
package merge

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lokanta-pos/api/internal/database"
)

// TableInfo is the display slice of a table carried onto an order.
type TableInfo struct {
	TableNumber int32
	Name        *string
	GroupID     *uuid.UUID
}

// ProductRef is the name/price slice of a product carried onto a line item.
// Price here is the product's current price; the line keeps its own
// snapshot separately.
type ProductRef struct {
	Name  string
	Price pgtype.Numeric
}

// OrderLine is an order item with its product resolved (when still present).
type OrderLine struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Quantity  int32
	Price     pgtype.Numeric
	Product   *ProductRef
}

// EnrichedOrder is an order with table and line items attached.
type EnrichedOrder struct {
	Order database.Order
	Table *TableInfo
	Items []OrderLine
}

// Orders denormalizes orders with their tables, items, and item products.
// Output order follows the orders slice (callers fetch created_at
// descending).
func Orders(orders []database.Order, tables []database.Table, items []database.OrderItem, products []database.ListProductRefsRow) []EnrichedOrder {
	tablesByID := make(map[uuid.UUID]database.Table, len(tables))
	for _, t := range tables {
		tablesByID[t.ID] = t
	}
	productsByID := indexProducts(products)
	itemsByOrder := make(map[uuid.UUID][]database.OrderItem, len(orders))
	for _, it := range items {
		itemsByOrder[it.OrderID] = append(itemsByOrder[it.OrderID], it)
	}

	out := make([]EnrichedOrder, len(orders))
	for i, o := range orders {
		e := EnrichedOrder{Order: o}
		if t, ok := tablesByID[o.TableID]; ok {
			e.Table = toTableInfo(t)
		}
		for _, it := range itemsByOrder[o.ID] {
			line := OrderLine{
				ID:        it.ID,
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				Price:     it.Price,
			}
			if p, ok := productsByID[it.ProductID]; ok {
				line.Product = &ProductRef{Name: p.Name, Price: p.Price}
			}
			e.Items = append(e.Items, line)
		}
		out[i] = e
	}
	return out
}

// StockView is a stock item with its product resolved (when still present).
type StockView struct {
	Stock   database.StockItem
	Product *ProductRef
}

// Stock denormalizes stock items with product name/price. Output order
// follows the stock slice (callers fetch last_updated descending).
func Stock(stock []database.StockItem, products []database.ListProductRefsRow) []StockView {
	productsByID := indexProducts(products)
	out := make([]StockView, len(stock))
	for i, s := range stock {
		v := StockView{Stock: s}
		if p, ok := productsByID[s.ProductID]; ok {
			v.Product = &ProductRef{Name: p.Name, Price: p.Price}
		}
		out[i] = v
	}
	return out
}

func indexProducts(products []database.ListProductRefsRow) map[uuid.UUID]database.ListProductRefsRow {
	m := make(map[uuid.UUID]database.ListProductRefsRow, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return m
}

func toTableInfo(t database.Table) *TableInfo {
	info := &TableInfo{TableNumber: t.TableNumber}
	if t.Name.Valid {
		name := t.Name.String
		info.Name = &name
	}
	if t.GroupID.Valid {
		gid := uuid.UUID(t.GroupID.Bytes)
		info.GroupID = &gid
	}
	return info
}
