package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lokanta-pos/api/internal/database"
	"github.com/lokanta-pos/api/internal/handler"
	"github.com/lokanta-pos/api/internal/middleware"
	"github.com/lokanta-pos/api/internal/service"
)

// --- Mock transaction ---

// mockTx satisfies pgx.Tx for the service path. Only Commit and Rollback
// are exercised; everything else panics.
type mockTx struct {
	committed  bool
	rolledBack bool
}

func (m *mockTx) Begin(_ context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(_ context.Context) error {
	m.committed = true
	return nil
}
func (m *mockTx) Rollback(_ context.Context) error {
	if !m.committed {
		m.rolledBack = true
	}
	return nil
}
func (m *mockTx) CopyFrom(_ context.Context, _ pgx.Identifier, _ []string, _ pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(_ context.Context, _ *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(_ context.Context, _, _ string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

type mockTxBeginner struct {
	tx *mockTx
}

func (m *mockTxBeginner) Begin(_ context.Context) (pgx.Tx, error) {
	m.tx = &mockTx{}
	return m.tx, nil
}

// --- Mock pusher ---

type pushedMessage struct {
	token string
	title string
	body  string
	data  map[string]string
}

type mockPusher struct {
	pushes chan pushedMessage
}

func newMockPusher() *mockPusher {
	return &mockPusher{pushes: make(chan pushedMessage, 4)}
}

func (m *mockPusher) Push(_ context.Context, token, title, body string, data map[string]string) {
	m.pushes <- pushedMessage{token: token, title: title, body: body, data: data}
}

// --- Mock store ---

// mockOrderStore backs both the handler reads and the order service's
// transactional writes.
type mockOrderStore struct {
	orders   map[uuid.UUID]database.Order
	items    []database.OrderItem
	tables   map[uuid.UUID]database.Table
	waiters  map[uuid.UUID]database.Waiter
	stock    map[uuid.UUID]database.StockItem // keyed by product ID
	products []database.ListProductRefsRow
	active   map[uuid.UUID]database.GetActiveProductRefRow
}

func newMockOrderStore() *mockOrderStore {
	return &mockOrderStore{
		orders:  make(map[uuid.UUID]database.Order),
		tables:  make(map[uuid.UUID]database.Table),
		waiters: make(map[uuid.UUID]database.Waiter),
		stock:   make(map[uuid.UUID]database.StockItem),
		active:  make(map[uuid.UUID]database.GetActiveProductRefRow),
	}
}

func (m *mockOrderStore) addTable(number int32) database.Table {
	t := database.Table{ID: uuid.New(), TableNumber: number, CreatedAt: time.Now()}
	m.tables[t.ID] = t
	return t
}

func (m *mockOrderStore) addProduct(name, price string, stock int32) uuid.UUID {
	id := uuid.New()
	m.active[id] = database.GetActiveProductRefRow{ID: id, Name: name, Price: testNumeric(price)}
	m.products = append(m.products, database.ListProductRefsRow{ID: id, Name: name, Price: testNumeric(price)})
	m.stock[id] = database.StockItem{
		ID: uuid.New(), ProductID: id, CurrentStock: stock, MinStock: 1, MaxStock: 100, Unit: "adet",
	}
	return id
}

func (m *mockOrderStore) ListOrders(_ context.Context) ([]database.Order, error) {
	var result []database.Order
	for _, o := range m.orders {
		result = append(result, o)
	}
	return result, nil
}

func (m *mockOrderStore) GetOrder(_ context.Context, id uuid.UUID) (database.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (m *mockOrderStore) UpdateOrderStatus(_ context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
	o, ok := m.orders[arg.ID]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	o.Status = arg.Status
	o.UpdatedAt = time.Now()
	m.orders[arg.ID] = o
	return o, nil
}

func (m *mockOrderStore) UpdateOrderNote(_ context.Context, arg database.UpdateOrderNoteParams) (database.Order, error) {
	o, ok := m.orders[arg.ID]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	o.Note = arg.Note
	o.UpdatedAt = time.Now()
	m.orders[arg.ID] = o
	return o, nil
}

func (m *mockOrderStore) RequestBill(_ context.Context, id uuid.UUID) (database.Order, error) {
	o, ok := m.orders[id]
	if !ok || o.Status == "completed" {
		return database.Order{}, pgx.ErrNoRows
	}
	o.IsBillRequested = true
	o.UpdatedAt = time.Now()
	m.orders[id] = o
	return o, nil
}

func (m *mockOrderStore) ListTables(_ context.Context) ([]database.Table, error) {
	var result []database.Table
	for _, t := range m.tables {
		result = append(result, t)
	}
	return result, nil
}

func (m *mockOrderStore) GetTable(_ context.Context, id uuid.UUID) (database.Table, error) {
	t, ok := m.tables[id]
	if !ok {
		return database.Table{}, pgx.ErrNoRows
	}
	return t, nil
}

func (m *mockOrderStore) ListAllOrderItems(_ context.Context) ([]database.OrderItem, error) {
	return m.items, nil
}

func (m *mockOrderStore) ListOrderItemsByOrder(_ context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
	var result []database.OrderItem
	for _, it := range m.items {
		if it.OrderID == orderID {
			result = append(result, it)
		}
	}
	return result, nil
}

func (m *mockOrderStore) ListProductRefs(_ context.Context) ([]database.ListProductRefsRow, error) {
	return m.products, nil
}

func (m *mockOrderStore) GetWaiter(_ context.Context, id uuid.UUID) (database.Waiter, error) {
	w, ok := m.waiters[id]
	if !ok {
		return database.Waiter{}, pgx.ErrNoRows
	}
	return w, nil
}

func (m *mockOrderStore) GetActiveProductRef(_ context.Context, id uuid.UUID) (database.GetActiveProductRefRow, error) {
	p, ok := m.active[id]
	if !ok {
		return database.GetActiveProductRefRow{}, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockOrderStore) DecrementStockIfAvailable(_ context.Context, arg database.DecrementStockIfAvailableParams) (database.StockItem, error) {
	s, ok := m.stock[arg.ProductID]
	if !ok || s.CurrentStock < arg.Quantity {
		return database.StockItem{}, pgx.ErrNoRows
	}
	s.CurrentStock -= arg.Quantity
	s.LastUpdated = time.Now()
	m.stock[arg.ProductID] = s
	return s, nil
}

func (m *mockOrderStore) GetStockItemByProduct(_ context.Context, productID uuid.UUID) (database.StockItem, error) {
	s, ok := m.stock[productID]
	if !ok {
		return database.StockItem{}, pgx.ErrNoRows
	}
	return s, nil
}

func (m *mockOrderStore) CreateOrder(_ context.Context, arg database.CreateOrderParams) (database.Order, error) {
	now := time.Now()
	o := database.Order{
		ID:          uuid.New(),
		TableID:     arg.TableID,
		WaiterID:    arg.WaiterID,
		Status:      arg.Status,
		Note:        arg.Note,
		TotalAmount: arg.TotalAmount,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.orders[o.ID] = o
	return o, nil
}

func (m *mockOrderStore) CreateOrderItem(_ context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	it := database.OrderItem{
		ID:        uuid.New(),
		OrderID:   arg.OrderID,
		ProductID: arg.ProductID,
		Quantity:  arg.Quantity,
		Price:     arg.Price,
	}
	m.items = append(m.items, it)
	return it, nil
}

// --- Helpers ---

func setupOrderRouter(store *mockOrderStore, pusher *mockPusher) *chi.Mux {
	orderService := service.NewOrderService(&mockTxBeginner{}, func(db database.DBTX) service.OrderStore {
		return store
	})
	h := handler.NewOrderHandler(store, orderService, newTestHub(), pusher)
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(testSecret))
		r.Route("/orders", h.RegisterRoutes)
	})
	return r
}

func seedOpenOrder(store *mockOrderStore, tableID uuid.UUID, status string) database.Order {
	now := time.Now()
	o := database.Order{
		ID:          uuid.New(),
		TableID:     tableID,
		Status:      status,
		TotalAmount: testNumeric("120.00"),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	store.orders[o.ID] = o
	return o
}

// --- Create tests ---

func TestOrderCreate_Valid(t *testing.T) {
	store := newMockOrderStore()
	table := store.addTable(4)
	productID := store.addProduct("Adana Kebap", "120.00", 10)
	waiter := makeTestWaiter(t)
	store.waiters[waiter.ID] = waiter

	pusher := newMockPusher()
	router := setupOrderRouter(store, pusher)

	rr := doAuthRequest(t, router, "POST", "/orders", map[string]interface{}{
		"table_id": table.ID.String(),
		"note":     "az acili",
		"items": []map[string]interface{}{
			{"product_id": productID.String(), "quantity": 2},
		},
	}, accessToken(t, waiter))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["status"] != "pending" {
		t.Errorf("status: got %v, want 'pending'", resp["status"])
	}
	if resp["total_amount"] != "240.00" {
		t.Errorf("total_amount: got %v, want '240.00'", resp["total_amount"])
	}
	if resp["note"] != "az acili" {
		t.Errorf("note: got %v, want 'az acili'", resp["note"])
	}
	if resp["waiter_id"] != waiter.ID.String() {
		t.Errorf("waiter_id: got %v, want token waiter %s", resp["waiter_id"], waiter.ID)
	}

	items, ok := resp["items"].([]interface{})
	if !ok || len(items) != 1 {
		t.Fatalf("expected 1 item, got %v", resp["items"])
	}
	item := items[0].(map[string]interface{})
	if item["product_name"] != "Adana Kebap" {
		t.Errorf("product_name: got %v, want 'Adana Kebap'", item["product_name"])
	}
	if item["price"] != "120.00" {
		t.Errorf("price snapshot: got %v, want '120.00'", item["price"])
	}

	// Stock was taken.
	if store.stock[productID].CurrentStock != 8 {
		t.Errorf("stock after order: got %d, want 8", store.stock[productID].CurrentStock)
	}
}

func TestOrderCreate_InsufficientStock(t *testing.T) {
	store := newMockOrderStore()
	table := store.addTable(4)
	productID := store.addProduct("Kunefe", "65.00", 1)
	waiter := makeTestWaiter(t)
	store.waiters[waiter.ID] = waiter

	router := setupOrderRouter(store, newMockPusher())

	rr := doAuthRequest(t, router, "POST", "/orders", map[string]interface{}{
		"table_id": table.ID.String(),
		"items": []map[string]interface{}{
			{"product_id": productID.String(), "quantity": 5},
		},
	}, accessToken(t, waiter))

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusConflict, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["product"] != "Kunefe" {
		t.Errorf("product: got %v, want 'Kunefe'", resp["product"])
	}
	if resp["available"] != float64(1) {
		t.Errorf("available: got %v, want 1", resp["available"])
	}
	if resp["requested"] != float64(5) {
		t.Errorf("requested: got %v, want 5", resp["requested"])
	}

	// Nothing was persisted.
	if len(store.orders) != 0 {
		t.Errorf("expected no orders, got %d", len(store.orders))
	}
	if store.stock[productID].CurrentStock != 1 {
		t.Errorf("stock should be untouched, got %d", store.stock[productID].CurrentStock)
	}
}

func TestOrderCreate_EmptyItems(t *testing.T) {
	store := newMockOrderStore()
	table := store.addTable(4)
	waiter := makeTestWaiter(t)
	store.waiters[waiter.ID] = waiter

	router := setupOrderRouter(store, newMockPusher())

	rr := doAuthRequest(t, router, "POST", "/orders", map[string]interface{}{
		"table_id": table.ID.String(),
		"items":    []map[string]interface{}{},
	}, accessToken(t, waiter))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestOrderCreate_UnknownTable(t *testing.T) {
	store := newMockOrderStore()
	productID := store.addProduct("Ayran", "15.00", 10)
	waiter := makeTestWaiter(t)
	store.waiters[waiter.ID] = waiter

	router := setupOrderRouter(store, newMockPusher())

	rr := doAuthRequest(t, router, "POST", "/orders", map[string]interface{}{
		"table_id": uuid.New().String(),
		"items": []map[string]interface{}{
			{"product_id": productID.String(), "quantity": 1},
		},
	}, accessToken(t, waiter))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestOrderCreate_UnknownProduct(t *testing.T) {
	store := newMockOrderStore()
	table := store.addTable(4)
	waiter := makeTestWaiter(t)
	store.waiters[waiter.ID] = waiter

	router := setupOrderRouter(store, newMockPusher())

	rr := doAuthRequest(t, router, "POST", "/orders", map[string]interface{}{
		"table_id": table.ID.String(),
		"items": []map[string]interface{}{
			{"product_id": uuid.New().String(), "quantity": 1},
		},
	}, accessToken(t, waiter))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestOrderCreate_NoToken(t *testing.T) {
	store := newMockOrderStore()
	router := setupOrderRouter(store, newMockPusher())

	rr := doAuthRequest(t, router, "POST", "/orders", map[string]interface{}{}, "")

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

// --- Status tests ---

func TestOrderUpdateStatus_Forward(t *testing.T) {
	store := newMockOrderStore()
	table := store.addTable(4)
	order := seedOpenOrder(store, table.ID, "pending")
	waiter := makeTestWaiter(t)
	store.waiters[waiter.ID] = waiter

	router := setupOrderRouter(store, newMockPusher())

	rr := doAuthRequest(t, router, "PUT", "/orders/"+order.ID.String()+"/status", map[string]interface{}{
		"status": "preparing",
	}, accessToken(t, waiter))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["status"] != "preparing" {
		t.Errorf("status: got %v, want 'preparing'", resp["status"])
	}
}

func TestOrderUpdateStatus_SkippingStepRejected(t *testing.T) {
	store := newMockOrderStore()
	table := store.addTable(4)
	order := seedOpenOrder(store, table.ID, "pending")
	waiter := makeTestWaiter(t)
	store.waiters[waiter.ID] = waiter

	router := setupOrderRouter(store, newMockPusher())

	rr := doAuthRequest(t, router, "PUT", "/orders/"+order.ID.String()+"/status", map[string]interface{}{
		"status": "ready",
	}, accessToken(t, waiter))

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
	if store.orders[order.ID].Status != "pending" {
		t.Errorf("order status should be untouched, got %s", store.orders[order.ID].Status)
	}
}

func TestOrderUpdateStatus_CompletedIsTerminal(t *testing.T) {
	store := newMockOrderStore()
	table := store.addTable(4)
	order := seedOpenOrder(store, table.ID, "completed")
	waiter := makeTestWaiter(t)
	store.waiters[waiter.ID] = waiter

	router := setupOrderRouter(store, newMockPusher())

	rr := doAuthRequest(t, router, "PUT", "/orders/"+order.ID.String()+"/status", map[string]interface{}{
		"status": "pending",
	}, accessToken(t, waiter))

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestOrderUpdateStatus_ReadyPushesToWaiter(t *testing.T) {
	store := newMockOrderStore()
	table := store.addTable(4)
	waiter := makeTestWaiter(t)
	waiter.PushToken = pgtype.Text{String: "ExponentPushToken[abc]", Valid: true}
	store.waiters[waiter.ID] = waiter

	order := seedOpenOrder(store, table.ID, "preparing")
	order.WaiterID = pgtype.UUID{Bytes: waiter.ID, Valid: true}
	store.orders[order.ID] = order

	pusher := newMockPusher()
	router := setupOrderRouter(store, pusher)

	rr := doAuthRequest(t, router, "PUT", "/orders/"+order.ID.String()+"/status", map[string]interface{}{
		"status": "ready",
	}, accessToken(t, waiter))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	// The push runs detached from the request.
	select {
	case msg := <-pusher.pushes:
		if msg.token != "ExponentPushToken[abc]" {
			t.Errorf("push token: got %s", msg.token)
		}
		if msg.title != "Siparis hazir" {
			t.Errorf("push title: got %s", msg.title)
		}
		if msg.body != "Masa 4 siparisi hazir" {
			t.Errorf("push body: got %s", msg.body)
		}
		if msg.data["order_id"] != order.ID.String() {
			t.Errorf("push data order_id: got %s", msg.data["order_id"])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected a push notification")
	}
}

func TestOrderUpdateStatus_NoPushWithoutToken(t *testing.T) {
	store := newMockOrderStore()
	table := store.addTable(4)
	waiter := makeTestWaiter(t)
	store.waiters[waiter.ID] = waiter

	order := seedOpenOrder(store, table.ID, "preparing")
	order.WaiterID = pgtype.UUID{Bytes: waiter.ID, Valid: true}
	store.orders[order.ID] = order

	pusher := newMockPusher()
	router := setupOrderRouter(store, pusher)

	rr := doAuthRequest(t, router, "PUT", "/orders/"+order.ID.String()+"/status", map[string]interface{}{
		"status": "ready",
	}, accessToken(t, waiter))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	select {
	case msg := <-pusher.pushes:
		t.Fatalf("unexpected push: %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

// --- Note tests ---

func TestOrderUpdateNote(t *testing.T) {
	store := newMockOrderStore()
	table := store.addTable(4)
	order := seedOpenOrder(store, table.ID, "pending")
	waiter := makeTestWaiter(t)
	store.waiters[waiter.ID] = waiter

	router := setupOrderRouter(store, newMockPusher())

	rr := doAuthRequest(t, router, "PUT", "/orders/"+order.ID.String()+"/note", map[string]interface{}{
		"note": "soganli olmasin",
	}, accessToken(t, waiter))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["note"] != "soganli olmasin" {
		t.Errorf("note: got %v, want 'soganli olmasin'", resp["note"])
	}
}

// --- Request bill tests ---

func TestOrderRequestBill_FlagsOrder(t *testing.T) {
	store := newMockOrderStore()
	table := store.addTable(4)
	order := seedOpenOrder(store, table.ID, "ready")
	waiter := makeTestWaiter(t)
	store.waiters[waiter.ID] = waiter

	router := setupOrderRouter(store, newMockPusher())

	rr := doAuthRequest(t, router, "POST", "/orders/"+order.ID.String()+"/request-bill", nil, accessToken(t, waiter))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["is_bill_requested"] != true {
		t.Errorf("is_bill_requested: got %v, want true", resp["is_bill_requested"])
	}
}

func TestOrderRequestBill_CompletedRejected(t *testing.T) {
	store := newMockOrderStore()
	table := store.addTable(4)
	order := seedOpenOrder(store, table.ID, "completed")
	waiter := makeTestWaiter(t)
	store.waiters[waiter.ID] = waiter

	router := setupOrderRouter(store, newMockPusher())

	rr := doAuthRequest(t, router, "POST", "/orders/"+order.ID.String()+"/request-bill", nil, accessToken(t, waiter))

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

// --- Get tests ---

func TestOrderGet_ResolvesTableAndItems(t *testing.T) {
	store := newMockOrderStore()
	table := store.addTable(9)
	productID := store.addProduct("Lahmacun", "45.00", 10)
	order := seedOpenOrder(store, table.ID, "pending")
	store.items = append(store.items, database.OrderItem{
		ID: uuid.New(), OrderID: order.ID, ProductID: productID, Quantity: 3, Price: testNumeric("45.00"),
	})
	waiter := makeTestWaiter(t)
	store.waiters[waiter.ID] = waiter

	router := setupOrderRouter(store, newMockPusher())

	rr := doAuthRequest(t, router, "GET", "/orders/"+order.ID.String(), nil, accessToken(t, waiter))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	tableResp, ok := resp["table"].(map[string]interface{})
	if !ok {
		t.Fatal("expected table object in response")
	}
	if tableResp["table_number"] != float64(9) {
		t.Errorf("table_number: got %v, want 9", tableResp["table_number"])
	}

	items, ok := resp["items"].([]interface{})
	if !ok || len(items) != 1 {
		t.Fatalf("expected 1 item, got %v", resp["items"])
	}
	item := items[0].(map[string]interface{})
	if item["product_name"] != "Lahmacun" {
		t.Errorf("product_name: got %v, want 'Lahmacun'", item["product_name"])
	}
	if item["quantity"] != float64(3) {
		t.Errorf("quantity: got %v, want 3", item["quantity"])
	}
}

func TestOrderGet_NotFound(t *testing.T) {
	store := newMockOrderStore()
	waiter := makeTestWaiter(t)
	store.waiters[waiter.ID] = waiter

	router := setupOrderRouter(store, newMockPusher())

	rr := doAuthRequest(t, router, "GET", "/orders/"+uuid.New().String(), nil, accessToken(t, waiter))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestOrderGet_DeletedProductFallsBackToUnknown(t *testing.T) {
	store := newMockOrderStore()
	table := store.addTable(2)
	order := seedOpenOrder(store, table.ID, "pending")
	// Item references a product that no longer exists anywhere.
	store.items = append(store.items, database.OrderItem{
		ID: uuid.New(), OrderID: order.ID, ProductID: uuid.New(), Quantity: 1, Price: testNumeric("30.00"),
	})
	waiter := makeTestWaiter(t)
	store.waiters[waiter.ID] = waiter

	router := setupOrderRouter(store, newMockPusher())

	rr := doAuthRequest(t, router, "GET", "/orders/"+order.ID.String(), nil, accessToken(t, waiter))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	resp := decodeResponse(t, rr)
	items := resp["items"].([]interface{})
	item := items[0].(map[string]interface{})
	if item["product_name"] != "Unknown Product" {
		t.Errorf("product_name: got %v, want 'Unknown Product'", item["product_name"])
	}
}
