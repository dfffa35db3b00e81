package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lokanta-pos/api/internal/database"
	"github.com/lokanta-pos/api/internal/handler"
	"github.com/lokanta-pos/api/internal/service"
)

// --- Mock store ---

type mockBillingStore struct {
	tables   map[uuid.UUID]database.Table
	orders   map[uuid.UUID]database.Order
	items    []database.OrderItem
	products []database.ListProductRefsRow
	stock    map[uuid.UUID]database.StockItem // keyed by product ID
}

func newMockBillingStore() *mockBillingStore {
	return &mockBillingStore{
		tables: make(map[uuid.UUID]database.Table),
		orders: make(map[uuid.UUID]database.Order),
		stock:  make(map[uuid.UUID]database.StockItem),
	}
}

func (m *mockBillingStore) addGroupedTable(number int32, name string, groupID uuid.UUID) database.Table {
	t := database.Table{
		ID:          uuid.New(),
		TableNumber: number,
		Name:        pgtype.Text{String: name, Valid: name != ""},
		GroupID:     pgtype.UUID{Bytes: groupID, Valid: true},
		CreatedAt:   time.Now(),
	}
	m.tables[t.ID] = t
	return t
}

func (m *mockBillingStore) addBillProduct(name, price string, stock int32) uuid.UUID {
	id := uuid.New()
	m.products = append(m.products, database.ListProductRefsRow{ID: id, Name: name, Price: testNumeric(price)})
	m.stock[id] = database.StockItem{
		ID: uuid.New(), ProductID: id, CurrentStock: stock, MinStock: 1, MaxStock: 100, Unit: "adet",
	}
	return id
}

func (m *mockBillingStore) addOpenOrder(tableID uuid.UUID, total string, billRequested bool) database.Order {
	now := time.Now()
	o := database.Order{
		ID:              uuid.New(),
		TableID:         tableID,
		Status:          "ready",
		IsBillRequested: billRequested,
		TotalAmount:     testNumeric(total),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	m.orders[o.ID] = o
	return o
}

func (m *mockBillingStore) addLine(orderID, productID uuid.UUID, quantity int32, price string) {
	m.items = append(m.items, database.OrderItem{
		ID: uuid.New(), OrderID: orderID, ProductID: productID, Quantity: quantity, Price: testNumeric(price),
	})
}

func (m *mockBillingStore) ListOccupiedTables(_ context.Context) ([]database.Table, error) {
	var result []database.Table
	for _, t := range m.tables {
		if t.Name.Valid {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *mockBillingStore) ListTablesByGroup(_ context.Context, groupID uuid.UUID) ([]database.Table, error) {
	var result []database.Table
	for _, t := range m.tables {
		if t.GroupID.Valid && uuid.UUID(t.GroupID.Bytes) == groupID {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *mockBillingStore) GetTable(_ context.Context, id uuid.UUID) (database.Table, error) {
	t, ok := m.tables[id]
	if !ok {
		return database.Table{}, pgx.ErrNoRows
	}
	return t, nil
}

func (m *mockBillingStore) AssignTableGroup(_ context.Context, arg database.AssignTableGroupParams) error {
	for _, id := range arg.TableIDs {
		t := m.tables[id]
		t.GroupID = pgtype.UUID{Bytes: arg.GroupID, Valid: true}
		m.tables[id] = t
	}
	return nil
}

func (m *mockBillingStore) ClearTableGroup(_ context.Context, groupID uuid.UUID) error {
	for id, t := range m.tables {
		if t.GroupID.Valid && uuid.UUID(t.GroupID.Bytes) == groupID {
			t.GroupID = pgtype.UUID{}
			m.tables[id] = t
		}
	}
	return nil
}

func (m *mockBillingStore) ClearTableNamesByGroup(_ context.Context, groupID uuid.UUID) error {
	for id, t := range m.tables {
		if t.GroupID.Valid && uuid.UUID(t.GroupID.Bytes) == groupID {
			t.Name = pgtype.Text{}
			t.GroupID = pgtype.UUID{}
			m.tables[id] = t
		}
	}
	return nil
}

func (m *mockBillingStore) ListOpenOrdersByTables(_ context.Context, tableIDs []uuid.UUID) ([]database.Order, error) {
	wanted := make(map[uuid.UUID]bool, len(tableIDs))
	for _, id := range tableIDs {
		wanted[id] = true
	}
	var result []database.Order
	for _, o := range m.orders {
		if wanted[o.TableID] && o.Status != "completed" {
			result = append(result, o)
		}
	}
	return result, nil
}

func (m *mockBillingStore) ListOrderItemsByOrders(_ context.Context, orderIDs []uuid.UUID) ([]database.OrderItem, error) {
	wanted := make(map[uuid.UUID]bool, len(orderIDs))
	for _, id := range orderIDs {
		wanted[id] = true
	}
	var result []database.OrderItem
	for _, it := range m.items {
		if wanted[it.OrderID] {
			result = append(result, it)
		}
	}
	return result, nil
}

func (m *mockBillingStore) ListProductRefs(_ context.Context) ([]database.ListProductRefsRow, error) {
	return m.products, nil
}

func (m *mockBillingStore) CompleteOrders(_ context.Context, ids []uuid.UUID) error {
	for _, id := range ids {
		o := m.orders[id]
		o.Status = "completed"
		o.UpdatedAt = time.Now()
		m.orders[id] = o
	}
	return nil
}

func (m *mockBillingStore) AddStockByProduct(_ context.Context, arg database.AddStockByProductParams) (database.StockItem, error) {
	s, ok := m.stock[arg.ProductID]
	if !ok {
		return database.StockItem{}, pgx.ErrNoRows
	}
	s.CurrentStock += arg.Quantity
	s.LastUpdated = time.Now()
	m.stock[arg.ProductID] = s
	return s, nil
}

// --- Helpers ---

func setupBillRouter(store *mockBillingStore) *chi.Mux {
	billing := service.NewBillingService(&mockTxBeginner{}, store, func(db database.DBTX) service.BillingStore {
		return store
	})
	h := handler.NewBillHandler(billing, newTestHub())
	r := chi.NewRouter()
	r.Route("/bills", h.RegisterRoutes)
	return r
}

// seedBilledGroup sets up two occupied tables in one group with two billed
// orders: 2x Adana on the first, 1x Adana and 2x Ayran on the second.
func seedBilledGroup(store *mockBillingStore) (groupID, adanaID, ayranID uuid.UUID) {
	groupID = uuid.New()
	t1 := store.addGroupedTable(3, "Ali", groupID)
	t2 := store.addGroupedTable(5, "Ali", groupID)

	adanaID = store.addBillProduct("Adana Kebap", "120.00", 20)
	ayranID = store.addBillProduct("Ayran", "15.00", 50)

	o1 := store.addOpenOrder(t1.ID, "240.00", true)
	store.addLine(o1.ID, adanaID, 2, "120.00")

	o2 := store.addOpenOrder(t2.ID, "150.00", true)
	store.addLine(o2.ID, adanaID, 1, "120.00")
	store.addLine(o2.ID, ayranID, 2, "15.00")

	return groupID, adanaID, ayranID
}

func findBillLine(t *testing.T, lines []interface{}, productName string) map[string]interface{} {
	t.Helper()
	for _, raw := range lines {
		line := raw.(map[string]interface{})
		if line["product_name"] == productName {
			return line
		}
	}
	t.Fatalf("no bill line for %s", productName)
	return nil
}

// --- List tests ---

func TestBillList_AggregatesGroup(t *testing.T) {
	store := newMockBillingStore()
	groupID, _, _ := seedBilledGroup(store)

	router := setupBillRouter(store)
	rr := doRequest(t, router, "GET", "/bills", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeListResponse(t, rr)
	if len(resp) != 1 {
		t.Fatalf("expected 1 bill, got %d", len(resp))
	}
	bill := resp[0]
	if bill["group_id"] != groupID.String() {
		t.Errorf("group_id: got %v, want %s", bill["group_id"], groupID)
	}
	if bill["table_label"] != "3+5" {
		t.Errorf("table_label: got %v, want '3+5'", bill["table_label"])
	}
	if bill["guest_name"] != "Ali" {
		t.Errorf("guest_name: got %v, want 'Ali'", bill["guest_name"])
	}
	if bill["total"] != "390.00" {
		t.Errorf("total: got %v, want '390.00'", bill["total"])
	}

	lines, ok := bill["lines"].([]interface{})
	if !ok || len(lines) != 2 {
		t.Fatalf("expected 2 aggregated lines, got %v", bill["lines"])
	}
	adana := findBillLine(t, lines, "Adana Kebap")
	if adana["quantity"] != float64(3) {
		t.Errorf("adana quantity: got %v, want 3", adana["quantity"])
	}
	if adana["line_total"] != "360.00" {
		t.Errorf("adana line_total: got %v, want '360.00'", adana["line_total"])
	}
	ayran := findBillLine(t, lines, "Ayran")
	if ayran["unit_price"] != "15.00" {
		t.Errorf("ayran unit_price: got %v, want '15.00'", ayran["unit_price"])
	}
}

func TestBillList_UnoccupiedMemberTableExcluded(t *testing.T) {
	store := newMockBillingStore()
	groupID := uuid.New()
	seated := store.addGroupedTable(3, "Ali", groupID)
	vacated := store.addGroupedTable(5, "", groupID)

	adanaID := store.addBillProduct("Adana Kebap", "120.00", 20)
	o1 := store.addOpenOrder(seated.ID, "240.00", true)
	store.addLine(o1.ID, adanaID, 2, "120.00")
	o2 := store.addOpenOrder(vacated.ID, "120.00", true)
	store.addLine(o2.ID, adanaID, 1, "120.00")

	router := setupBillRouter(store)
	rr := doRequest(t, router, "GET", "/bills", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	// Only the occupied table contributes to the bill.
	resp := decodeListResponse(t, rr)
	if len(resp) != 1 {
		t.Fatalf("expected 1 bill, got %d", len(resp))
	}
	if resp[0]["table_label"] != "3" {
		t.Errorf("table_label: got %v, want '3'", resp[0]["table_label"])
	}
	if resp[0]["total"] != "240.00" {
		t.Errorf("total: got %v, want '240.00'", resp[0]["total"])
	}
}

func TestBillList_SkipsGroupWithoutBillRequest(t *testing.T) {
	store := newMockBillingStore()
	groupID := uuid.New()
	tbl := store.addGroupedTable(2, "Veli", groupID)
	productID := store.addBillProduct("Kola", "20.00", 10)
	o := store.addOpenOrder(tbl.ID, "20.00", false)
	store.addLine(o.ID, productID, 1, "20.00")

	router := setupBillRouter(store)
	rr := doRequest(t, router, "GET", "/bills", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	resp := decodeListResponse(t, rr)
	if len(resp) != 0 {
		t.Errorf("expected no bills, got %d", len(resp))
	}
}

// --- Receipt tests ---

func TestBillReceipt_Found(t *testing.T) {
	store := newMockBillingStore()
	groupID, _, _ := seedBilledGroup(store)

	router := setupBillRouter(store)
	rr := doRequest(t, router, "GET", "/bills/"+groupID.String(), nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["group_id"] != groupID.String() {
		t.Errorf("group_id: got %v, want %s", resp["group_id"], groupID)
	}
	if resp["total"] != "390.00" {
		t.Errorf("total: got %v, want '390.00'", resp["total"])
	}
}

func TestBillReceipt_NotFound(t *testing.T) {
	store := newMockBillingStore()
	router := setupBillRouter(store)

	rr := doRequest(t, router, "GET", "/bills/"+uuid.New().String(), nil)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
	resp := decodeResponse(t, rr)
	if resp["error"] != "bill not found" {
		t.Errorf("error: got %v, want 'bill not found'", resp["error"])
	}
}

// --- Close tests ---

func TestBillClose_SettlesGroup(t *testing.T) {
	store := newMockBillingStore()
	groupID, adanaID, ayranID := seedBilledGroup(store)

	router := setupBillRouter(store)
	rr := doRequest(t, router, "POST", "/bills/"+groupID.String()+"/close", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["group_id"] != groupID.String() {
		t.Errorf("group_id: got %v, want %s", resp["group_id"], groupID)
	}
	if resp["total"] != "390.00" {
		t.Errorf("total: got %v, want '390.00'", resp["total"])
	}
	completed, ok := resp["completed_order_ids"].([]interface{})
	if !ok || len(completed) != 2 {
		t.Fatalf("expected 2 completed orders, got %v", resp["completed_order_ids"])
	}

	// Every order in the group is done.
	for _, o := range store.orders {
		if o.Status != "completed" {
			t.Errorf("order %s: status %s, want completed", o.ID, o.Status)
		}
	}
	// Consumed stock came back.
	if store.stock[adanaID].CurrentStock != 23 {
		t.Errorf("adana stock: got %d, want 23", store.stock[adanaID].CurrentStock)
	}
	if store.stock[ayranID].CurrentStock != 52 {
		t.Errorf("ayran stock: got %d, want 52", store.stock[ayranID].CurrentStock)
	}
	// Tables are free again.
	for _, tbl := range store.tables {
		if tbl.Name.Valid {
			t.Errorf("table %d should be freed", tbl.TableNumber)
		}
	}
}

func TestBillClose_UnknownGroup(t *testing.T) {
	store := newMockBillingStore()
	router := setupBillRouter(store)

	rr := doRequest(t, router, "POST", "/bills/"+uuid.New().String()+"/close", nil)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
	resp := decodeResponse(t, rr)
	if resp["error"] != "group not found" {
		t.Errorf("error: got %v, want 'group not found'", resp["error"])
	}
}

func TestBillClose_InvalidGroupID(t *testing.T) {
	store := newMockBillingStore()
	router := setupBillRouter(store)

	rr := doRequest(t, router, "POST", "/bills/not-a-uuid/close", nil)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// --- Delete tests ---

func TestBillDelete_FreesTablesOnly(t *testing.T) {
	store := newMockBillingStore()
	groupID, adanaID, _ := seedBilledGroup(store)

	router := setupBillRouter(store)
	rr := doRequest(t, router, "DELETE", "/bills/"+groupID.String(), nil)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusNoContent, rr.Body.String())
	}

	// Tables freed, but orders and stock untouched.
	for _, tbl := range store.tables {
		if tbl.Name.Valid {
			t.Errorf("table %d should be freed", tbl.TableNumber)
		}
	}
	for _, o := range store.orders {
		if o.Status == "completed" {
			t.Errorf("order %s should keep its status", o.ID)
		}
	}
	if store.stock[adanaID].CurrentStock != 20 {
		t.Errorf("stock should be untouched, got %d", store.stock[adanaID].CurrentStock)
	}
}

func TestBillDelete_UnknownGroup(t *testing.T) {
	store := newMockBillingStore()
	router := setupBillRouter(store)

	rr := doRequest(t, router, "DELETE", "/bills/"+uuid.New().String(), nil)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}
