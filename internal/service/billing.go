package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lokanta-pos/api/internal/database"
	"github.com/shopspring/decimal"
)

// Errors returned by the billing service.
var (
	ErrTooFewTables  = errors.New("at least two tables are required to merge")
	ErrGroupNotFound = errors.New("table group not found")
)

// BillingStore defines the DB methods needed for bill projection and
// settlement. Satisfied by *database.Queries.
type BillingStore interface {
	ListOccupiedTables(ctx context.Context) ([]database.Table, error)
	ListTablesByGroup(ctx context.Context, groupID uuid.UUID) ([]database.Table, error)
	GetTable(ctx context.Context, id uuid.UUID) (database.Table, error)
	AssignTableGroup(ctx context.Context, arg database.AssignTableGroupParams) error
	ClearTableGroup(ctx context.Context, groupID uuid.UUID) error
	ClearTableNamesByGroup(ctx context.Context, groupID uuid.UUID) error
	ListOpenOrdersByTables(ctx context.Context, tableIDs []uuid.UUID) ([]database.Order, error)
	ListOrderItemsByOrders(ctx context.Context, orderIDs []uuid.UUID) ([]database.OrderItem, error)
	ListProductRefs(ctx context.Context) ([]database.ListProductRefsRow, error)
	CompleteOrders(ctx context.Context, ids []uuid.UUID) error
	AddStockByProduct(ctx context.Context, arg database.AddStockByProductParams) (database.StockItem, error)
}

// NewBillingStore creates a BillingStore from a DBTX (pool or tx).
type NewBillingStore func(db database.DBTX) BillingStore

// BillLine is one aggregated product line on a bill. Quantity sums every
// order item for the product across the group; UnitPrice is the snapshot
// taken when the item was ordered.
type BillLine struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int32
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// Bill is the settlement view of one table group: every open order with a
// requested bill, aggregated into product lines with a running total.
type Bill struct {
	GroupID      uuid.UUID
	TableLabel   string
	TableNumbers []int32
	GuestName    string
	OrderIDs     []uuid.UUID
	Lines        []BillLine
	Total        decimal.Decimal
}

// CloseBillResult carries the side effects of settling a bill, for event
// broadcasting.
type CloseBillResult struct {
	GroupID           uuid.UUID
	CompletedOrderIDs []uuid.UUID
	Stock             []database.StockItem
	Total             decimal.Decimal
}

// BillingService projects and settles table-group bills.
type BillingService struct {
	pool     TxBeginner
	store    BillingStore
	newStore NewBillingStore
}

// NewBillingService creates a new BillingService. store handles the
// read-only projection; newStore builds tx-scoped stores for settlement.
func NewBillingService(pool TxBeginner, store BillingStore, newStore NewBillingStore) *BillingService {
	return &BillingService{pool: pool, store: store, newStore: newStore}
}

// Bills recomputes the pending-bill list from current state. A group shows
// up when it has at least one open order with a requested bill; groups
// whose billed orders were all completed drop out on the next call. Bills
// are sorted by their lowest table number.
func (s *BillingService) Bills(ctx context.Context) ([]Bill, error) {
	occupied, err := s.store.ListOccupiedTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("list occupied tables: %w", err)
	}

	// Group occupied tables by group_id. Ungrouped tables carry no bill.
	groupOrder := []uuid.UUID{}
	tablesByGroup := map[uuid.UUID][]database.Table{}
	for _, t := range occupied {
		if !t.GroupID.Valid {
			continue
		}
		gid := uuid.UUID(t.GroupID.Bytes)
		if _, seen := tablesByGroup[gid]; !seen {
			groupOrder = append(groupOrder, gid)
		}
		tablesByGroup[gid] = append(tablesByGroup[gid], t)
	}
	if len(groupOrder) == 0 {
		return []Bill{}, nil
	}

	products, err := s.store.ListProductRefs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	productsByID := make(map[uuid.UUID]database.ListProductRefsRow, len(products))
	for _, p := range products {
		productsByID[p.ID] = p
	}

	var bills []Bill
	for _, gid := range groupOrder {
		tables := tablesByGroup[gid]
		bill, err := s.buildBill(ctx, s.store, gid, tables, productsByID)
		if err != nil {
			return nil, err
		}
		if bill == nil {
			continue
		}
		bills = append(bills, *bill)
	}

	sort.Slice(bills, func(i, j int) bool {
		return bills[i].TableNumbers[0] < bills[j].TableNumbers[0]
	})
	if bills == nil {
		bills = []Bill{}
	}
	return bills, nil
}

// buildBill assembles one group's bill, or returns nil when no open order
// in the group has a requested bill.
func (s *BillingService) buildBill(ctx context.Context, store BillingStore, gid uuid.UUID, tables []database.Table, productsByID map[uuid.UUID]database.ListProductRefsRow) (*Bill, error) {
	tableIDs := make([]uuid.UUID, len(tables))
	for i, t := range tables {
		tableIDs[i] = t.ID
	}

	open, err := store.ListOpenOrdersByTables(ctx, tableIDs)
	if err != nil {
		return nil, fmt.Errorf("list open orders: %w", err)
	}

	var billed []database.Order
	for _, o := range open {
		if o.IsBillRequested {
			billed = append(billed, o)
		}
	}
	if len(billed) == 0 {
		return nil, nil
	}

	orderIDs := make([]uuid.UUID, len(billed))
	for i, o := range billed {
		orderIDs[i] = o.ID
	}
	items, err := store.ListOrderItemsByOrders(ctx, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	// Aggregate lines per product in first-seen order.
	lineOrder := []uuid.UUID{}
	lineByProduct := map[uuid.UUID]*BillLine{}
	total := decimal.Zero
	for _, it := range items {
		price := numericToDecimal(it.Price)
		lineTotal := price.Mul(decimal.NewFromInt32(it.Quantity))
		total = total.Add(lineTotal)

		line, ok := lineByProduct[it.ProductID]
		if !ok {
			name := "Unknown Product"
			if p, found := productsByID[it.ProductID]; found {
				name = p.Name
			}
			line = &BillLine{
				ProductID:   it.ProductID,
				ProductName: name,
				UnitPrice:   price,
			}
			lineByProduct[it.ProductID] = line
			lineOrder = append(lineOrder, it.ProductID)
		}
		line.Quantity += it.Quantity
		line.LineTotal = line.LineTotal.Add(lineTotal)
	}

	lines := make([]BillLine, len(lineOrder))
	for i, pid := range lineOrder {
		lines[i] = *lineByProduct[pid]
	}

	numbers := tableNumbers(tables)
	bill := &Bill{
		GroupID:      gid,
		TableLabel:   tableLabel(numbers),
		TableNumbers: numbers,
		GuestName:    guestName(tables),
		OrderIDs:     orderIDs,
		Lines:        lines,
		Total:        total,
	}
	return bill, nil
}

// MergeTables puts the listed tables into one fresh billing group. Tables
// already grouped elsewhere are moved into the new group.
func (s *BillingService) MergeTables(ctx context.Context, tableIDs []string) (uuid.UUID, []database.Table, error) {
	if len(tableIDs) < 2 {
		return uuid.Nil, nil, ErrTooFewTables
	}

	ids := make([]uuid.UUID, len(tableIDs))
	for i, raw := range tableIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, nil, ErrInvalidTableID
		}
		ids[i] = id
	}

	for _, id := range ids {
		if _, err := s.store.GetTable(ctx, id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return uuid.Nil, nil, ErrTableNotFound
			}
			return uuid.Nil, nil, fmt.Errorf("get table: %w", err)
		}
	}

	groupID := uuid.New()
	if err := s.store.AssignTableGroup(ctx, database.AssignTableGroupParams{
		GroupID:  groupID,
		TableIDs: ids,
	}); err != nil {
		return uuid.Nil, nil, fmt.Errorf("assign group: %w", err)
	}

	tables, err := s.store.ListTablesByGroup(ctx, groupID)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("list group tables: %w", err)
	}
	return groupID, tables, nil
}

// Ungroup dissolves a billing group without touching occupancy or orders.
func (s *BillingService) Ungroup(ctx context.Context, groupID uuid.UUID) error {
	tables, err := s.store.ListTablesByGroup(ctx, groupID)
	if err != nil {
		return fmt.Errorf("list group tables: %w", err)
	}
	if len(tables) == 0 {
		return ErrGroupNotFound
	}
	if err := s.store.ClearTableGroup(ctx, groupID); err != nil {
		return fmt.Errorf("clear group: %w", err)
	}
	return nil
}

// CloseBill settles a group: every open order across the group's tables is
// completed, each consumed item is returned to stock, and the tables are
// freed by clearing their names. The whole settlement runs in one
// transaction so a failed restock never leaves half-completed orders.
func (s *BillingService) CloseBill(ctx context.Context, groupID uuid.UUID) (*CloseBillResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	tables, err := store.ListTablesByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list group tables: %w", err)
	}
	if len(tables) == 0 {
		return nil, ErrGroupNotFound
	}

	tableIDs := make([]uuid.UUID, len(tables))
	for i, t := range tables {
		tableIDs[i] = t.ID
	}

	open, err := store.ListOpenOrdersByTables(ctx, tableIDs)
	if err != nil {
		return nil, fmt.Errorf("list open orders: %w", err)
	}

	result := &CloseBillResult{GroupID: groupID, Total: decimal.Zero}

	if len(open) > 0 {
		orderIDs := make([]uuid.UUID, len(open))
		for i, o := range open {
			orderIDs[i] = o.ID
			result.Total = result.Total.Add(numericToDecimal(o.TotalAmount))
		}

		items, err := store.ListOrderItemsByOrders(ctx, orderIDs)
		if err != nil {
			return nil, fmt.Errorf("list order items: %w", err)
		}
		for _, it := range items {
			stock, err := store.AddStockByProduct(ctx, database.AddStockByProductParams{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
			})
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					// Stock row gone (product deactivated mid-service):
					// nothing to return, keep settling.
					continue
				}
				return nil, fmt.Errorf("restock product: %w", err)
			}
			result.Stock = append(result.Stock, stock)
		}

		if err := store.CompleteOrders(ctx, orderIDs); err != nil {
			return nil, fmt.Errorf("complete orders: %w", err)
		}
		result.CompletedOrderIDs = orderIDs
	}

	if err := store.ClearTableNamesByGroup(ctx, groupID); err != nil {
		return nil, fmt.Errorf("free tables: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return result, nil
}

// DeleteBill abandons a group's bill: the tables are freed but the orders
// keep their status and stock stays consumed.
func (s *BillingService) DeleteBill(ctx context.Context, groupID uuid.UUID) error {
	tables, err := s.store.ListTablesByGroup(ctx, groupID)
	if err != nil {
		return fmt.Errorf("list group tables: %w", err)
	}
	if len(tables) == 0 {
		return ErrGroupNotFound
	}
	if err := s.store.ClearTableNamesByGroup(ctx, groupID); err != nil {
		return fmt.Errorf("free tables: %w", err)
	}
	return nil
}

// tableNumbers returns the group's table numbers in ascending order.
func tableNumbers(tables []database.Table) []int32 {
	numbers := make([]int32, len(tables))
	for i, t := range tables {
		numbers[i] = t.TableNumber
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
	return numbers
}

// tableLabel renders a group label like "3" or "3+5".
func tableLabel(numbers []int32) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = strconv.Itoa(int(n))
	}
	return strings.Join(parts, "+")
}

// guestName picks the first non-empty display name in the group.
func guestName(tables []database.Table) string {
	for _, t := range tables {
		if t.Name.Valid && t.Name.String != "" {
			return t.Name.String
		}
	}
	return ""
}
