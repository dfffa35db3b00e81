package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lokanta-pos/api/internal/database"
	"github.com/shopspring/decimal"
)

// topProductLimit caps the best-seller list on the revenue report.
const topProductLimit = 5

// RevenueStore defines the DB methods needed for revenue reporting.
// Satisfied by *database.Queries.
type RevenueStore interface {
	ListCompletedOrdersInRange(ctx context.Context, arg database.ListCompletedOrdersInRangeParams) ([]database.Order, error)
	ListOrderItemsByOrders(ctx context.Context, orderIDs []uuid.UUID) ([]database.OrderItem, error)
	ListProductRefs(ctx context.Context) ([]database.ListProductRefsRow, error)
}

// TopProduct is one entry on the best-seller list, ranked by units sold.
// Entries group by product name; ProductID is the first catalog entry
// seen under that name (uuid.Nil for the orphaned-items bucket).
type TopProduct struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int32
	Revenue     decimal.Decimal
}

// Report aggregates completed orders into the dashboard's revenue view.
type Report struct {
	Date          time.Time
	DailyTotal    decimal.Decimal
	DailyOrders   int
	MonthlyTotal  decimal.Decimal
	MonthlyOrders int
	TopProducts   []TopProduct
}

// RevenueService computes revenue aggregates from completed orders.
type RevenueService struct {
	store RevenueStore
}

// NewRevenueService creates a new RevenueService.
func NewRevenueService(store RevenueStore) *RevenueService {
	return &RevenueService{store: store}
}

// ReportAt builds the revenue report for the day and month containing the
// given instant, in that instant's location. Both windows are half-open:
// the day covers [00:00, next 00:00) and the month [1st 00:00, next 1st
// 00:00), so a midnight order counts once. Only completed orders count;
// open and abandoned orders never appear in revenue.
func (s *RevenueService) ReportAt(ctx context.Context, at time.Time) (*Report, error) {
	loc := at.Location()
	dayStart := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)
	monthStart := time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, loc)
	monthEnd := monthStart.AddDate(0, 1, 0)

	monthly, err := s.store.ListCompletedOrdersInRange(ctx, database.ListCompletedOrdersInRangeParams{
		From: monthStart,
		To:   monthEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("list monthly orders: %w", err)
	}

	report := &Report{
		Date:         dayStart,
		DailyTotal:   decimal.Zero,
		MonthlyTotal: decimal.Zero,
		TopProducts:  []TopProduct{},
	}

	for _, o := range monthly {
		total := numericToDecimal(o.TotalAmount)
		report.MonthlyTotal = report.MonthlyTotal.Add(total)
		report.MonthlyOrders++
		if !o.CreatedAt.Before(dayStart) && o.CreatedAt.Before(dayEnd) {
			report.DailyTotal = report.DailyTotal.Add(total)
			report.DailyOrders++
		}
	}

	if len(monthly) == 0 {
		return report, nil
	}

	orderIDs := make([]uuid.UUID, len(monthly))
	for i, o := range monthly {
		orderIDs[i] = o.ID
	}
	items, err := s.store.ListOrderItemsByOrders(ctx, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	products, err := s.store.ListProductRefs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	productsByID := make(map[uuid.UUID]database.ListProductRefsRow, len(products))
	for _, p := range products {
		productsByID[p.ID] = p
	}

	report.TopProducts = topProducts(items, productsByID)
	return report, nil
}

// topProducts ranks products by units sold across the given items,
// grouped by product name: two catalog entries sharing a name merge into
// one line. Items whose product no longer exists pool into one
// "Unknown Product" entry. Ties keep first-seen order so repeated calls
// over the same rows rank identically.
func topProducts(items []database.OrderItem, productsByID map[uuid.UUID]database.ListProductRefsRow) []TopProduct {
	nameOrder := []string{}
	byName := map[string]*TopProduct{}

	for _, it := range items {
		name := "Unknown Product"
		id := uuid.Nil
		if p, ok := productsByID[it.ProductID]; ok {
			name = p.Name
			id = it.ProductID
		}

		entry, ok := byName[name]
		if !ok {
			entry = &TopProduct{ProductID: id, ProductName: name, Revenue: decimal.Zero}
			byName[name] = entry
			nameOrder = append(nameOrder, name)
		}
		entry.Quantity += it.Quantity
		entry.Revenue = entry.Revenue.Add(numericToDecimal(it.Price).Mul(decimal.NewFromInt32(it.Quantity)))
	}

	ranked := make([]TopProduct, len(nameOrder))
	for i, name := range nameOrder {
		ranked[i] = *byName[name]
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Quantity > ranked[j].Quantity
	})

	if len(ranked) > topProductLimit {
		ranked = ranked[:topProductLimit]
	}
	return ranked
}
