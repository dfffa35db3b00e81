package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lokanta-pos/api/internal/database"
	"github.com/lokanta-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// Errors returned by the order service.
var (
	ErrEmptyItems       = errors.New("items are required")
	ErrInvalidQuantity  = errors.New("quantity must be > 0")
	ErrInvalidTableID   = errors.New("invalid table_id")
	ErrInvalidWaiterID  = errors.New("invalid waiter_id")
	ErrInvalidProductID = errors.New("invalid product_id")
	ErrTableNotFound    = errors.New("table not found")
	ErrProductNotFound  = errors.New("product not found")
)

// InsufficientStockError reports the product that blocked an order and how
// much stock was actually available. The whole order is rejected; nothing
// is persisted.
type InsufficientStockError struct {
	ProductName string
	Available   int32
	Requested   int32
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: have %d, need %d", e.ProductName, e.Available, e.Requested)
}

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed to place orders.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetTable(ctx context.Context, id uuid.UUID) (database.Table, error)
	GetActiveProductRef(ctx context.Context, id uuid.UUID) (database.GetActiveProductRefRow, error)
	DecrementStockIfAvailable(ctx context.Context, arg database.DecrementStockIfAvailableParams) (database.StockItem, error)
	GetStockItemByProduct(ctx context.Context, productID uuid.UUID) (database.StockItem, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// PlaceOrderRequest is the validated input for placing an order.
type PlaceOrderRequest struct {
	TableID  string
	WaiterID string
	Note     string
	Items    []PlaceOrderItemRequest
}

// PlaceOrderItemRequest is a single line in the order.
type PlaceOrderItemRequest struct {
	ProductID string
	Quantity  int32
}

// PlaceOrderResult is the created order with its items and the stock rows
// touched by the decrement, for event broadcasting.
type PlaceOrderResult struct {
	Order database.Order
	Items []database.OrderItem
	Stock []database.StockItem
}

// OrderService handles order placement and its stock bookkeeping.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore}
}

// processedLine holds a validated line with its price snapshot taken.
type processedLine struct {
	productID uuid.UUID
	quantity  int32
	price     decimal.Decimal
}

// PlaceOrder validates the request and creates the order, its items, and
// the stock decrements in one transaction. Each line's stock is taken with
// a conditional decrement (current_stock >= quantity); the first line that
// cannot be satisfied rolls back the whole order and the error names the
// short product and its remaining stock. The unit price written to each
// item is a snapshot of the product's price at this moment; later price
// changes never alter the order's total.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	tableID, err := uuid.Parse(req.TableID)
	if err != nil {
		return nil, ErrInvalidTableID
	}

	waiterID := pgtype.UUID{}
	if req.WaiterID != "" {
		wid, err := uuid.Parse(req.WaiterID)
		if err != nil {
			return nil, ErrInvalidWaiterID
		}
		waiterID = pgtype.UUID{Bytes: wid, Valid: true}
	}

	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		if _, err := uuid.Parse(item.ProductID); err != nil {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidProductID)
		}
	}

	// --- Begin transaction ---
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := store.GetTable(ctx, tableID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("get table: %w", err)
	}

	// --- Snapshot prices and take stock ---
	orderTotal := decimal.Zero
	var lines []processedLine
	var stockTouched []database.StockItem

	for i, item := range req.Items {
		productID, _ := uuid.Parse(item.ProductID)

		product, err := store.GetActiveProductRef(ctx, productID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("item[%d]: %w", i, ErrProductNotFound)
			}
			return nil, fmt.Errorf("item[%d]: get product: %w", i, err)
		}

		stock, err := store.DecrementStockIfAvailable(ctx, database.DecrementStockIfAvailableParams{
			ProductID: productID,
			Quantity:  item.Quantity,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, s.insufficientStock(ctx, store, product.Name, productID, item.Quantity)
			}
			return nil, fmt.Errorf("item[%d]: decrement stock: %w", i, err)
		}
		stockTouched = append(stockTouched, stock)

		price := numericToDecimal(product.Price)
		orderTotal = orderTotal.Add(price.Mul(decimal.NewFromInt32(item.Quantity)))
		lines = append(lines, processedLine{
			productID: productID,
			quantity:  item.Quantity,
			price:     price,
		})
	}

	// --- Insert order ---
	note := pgtype.Text{}
	if req.Note != "" {
		note = pgtype.Text{String: req.Note, Valid: true}
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		TableID:     tableID,
		WaiterID:    waiterID,
		Status:      enum.OrderStatusPending,
		Note:        note,
		TotalAmount: decimalToNumeric(orderTotal),
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	// --- Insert items ---
	var items []database.OrderItem
	for _, line := range lines {
		item, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:   order.ID,
			ProductID: line.productID,
			Quantity:  line.quantity,
			Price:     decimalToNumeric(line.price),
		})
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, item)
	}

	// --- Commit ---
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &PlaceOrderResult{
		Order: order,
		Items: items,
		Stock: stockTouched,
	}, nil
}

// insufficientStock builds the rejection error, reading the current level
// so the caller can tell the user what is actually left.
func (s *OrderService) insufficientStock(ctx context.Context, store OrderStore, name string, productID uuid.UUID, requested int32) error {
	available := int32(0)
	if stock, err := store.GetStockItemByProduct(ctx, productID); err == nil {
		available = stock.CurrentStock
	}
	return &InsufficientStockError{
		ProductName: name,
		Available:   available,
		Requested:   requested,
	}
}

// --- Helpers ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
