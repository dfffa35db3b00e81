package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lokanta-pos/api/internal/database"
	"github.com/lokanta-pos/api/internal/enum"
	"github.com/lokanta-pos/api/internal/merge"
	"github.com/lokanta-pos/api/internal/middleware"
	"github.com/lokanta-pos/api/internal/notify"
	"github.com/lokanta-pos/api/internal/service"
	"github.com/lokanta-pos/api/internal/ws"
)

// OrderStore defines the database methods needed by order handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	ListOrders(ctx context.Context) ([]database.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	UpdateOrderNote(ctx context.Context, arg database.UpdateOrderNoteParams) (database.Order, error)
	RequestBill(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListTables(ctx context.Context) ([]database.Table, error)
	GetTable(ctx context.Context, id uuid.UUID) (database.Table, error)
	ListAllOrderItems(ctx context.Context) ([]database.OrderItem, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	ListProductRefs(ctx context.Context) ([]database.ListProductRefsRow, error)
	GetWaiter(ctx context.Context, id uuid.UUID) (database.Waiter, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	store  OrderStore
	orders *service.OrderService
	hub    *ws.Hub
	pusher notify.Pusher
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(store OrderStore, orders *service.OrderService, hub *ws.Hub, pusher notify.Pusher) *OrderHandler {
	return &OrderHandler{store: store, orders: orders, hub: hub, pusher: pusher}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/", h.Create)
	r.Put("/{id}/status", h.UpdateStatus)
	r.Put("/{id}/note", h.UpdateNote)
	r.Post("/{id}/request-bill", h.RequestBill)
}

// --- Request / Response types ---

type createOrderRequest struct {
	TableID string                   `json:"table_id"`
	Note    string                   `json:"note"`
	Items   []createOrderItemRequest `json:"items"`
}

type createOrderItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

type updateOrderNoteRequest struct {
	Note string `json:"note"`
}

type orderTableResponse struct {
	TableNumber int32      `json:"table_number"`
	Name        *string    `json:"name"`
	GroupID     *uuid.UUID `json:"group_id"`
}

type orderItemResponse struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int32     `json:"quantity"`
	Price       string    `json:"price"`
}

type orderResponse struct {
	ID              uuid.UUID           `json:"id"`
	TableID         uuid.UUID           `json:"table_id"`
	WaiterID        *uuid.UUID          `json:"waiter_id"`
	Status          string              `json:"status"`
	Note            *string             `json:"note"`
	IsBillRequested bool                `json:"is_bill_requested"`
	TotalAmount     string              `json:"total_amount"`
	Table           *orderTableResponse `json:"table"`
	Items           []orderItemResponse `json:"items"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func toOrderResponse(e merge.EnrichedOrder) orderResponse {
	o := e.Order
	resp := orderResponse{
		ID:              o.ID,
		TableID:         o.TableID,
		Status:          o.Status,
		Note:            textOrNil(o.Note),
		IsBillRequested: o.IsBillRequested,
		TotalAmount:     numericToString(o.TotalAmount),
		Items:           []orderItemResponse{},
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	if o.WaiterID.Valid {
		wid := uuid.UUID(o.WaiterID.Bytes)
		resp.WaiterID = &wid
	}
	if e.Table != nil {
		resp.Table = &orderTableResponse{
			TableNumber: e.Table.TableNumber,
			Name:        e.Table.Name,
			GroupID:     e.Table.GroupID,
		}
	}
	for _, line := range e.Items {
		item := orderItemResponse{
			ID:        line.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     numericToString(line.Price),
		}
		if line.Product != nil {
			item.ProductName = line.Product.Name
		} else {
			item.ProductName = "Unknown Product"
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}

// --- Handlers ---

// List returns every order with table and items resolved, newest first.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.store.ListOrders(r.Context())
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	tables, err := h.store.ListTables(r.Context())
	if err != nil {
		log.Printf("ERROR: list tables: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListAllOrderItems(r.Context())
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	products, err := h.store.ListProductRefs(r.Context())
	if err != nil {
		log.Printf("ERROR: list products: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	enriched := merge.Orders(orders, tables, items, products)
	resp := make([]orderResponse, len(enriched))
	for i, e := range enriched {
		resp[i] = toOrderResponse(e)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns one order with table and items resolved.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp, err := h.enrichOne(r.Context(), order)
	if err != nil {
		log.Printf("ERROR: enrich order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create places a new order for a table. Stock is taken atomically; the
// whole order is rejected when any line cannot be covered.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	placeReq := service.PlaceOrderRequest{
		TableID: req.TableID,
		Note:    req.Note,
	}
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		placeReq.WaiterID = claims.WaiterID.String()
	}
	for _, item := range req.Items {
		placeReq.Items = append(placeReq.Items, service.PlaceOrderItemRequest{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	result, err := h.orders.PlaceOrder(r.Context(), placeReq)
	if err != nil {
		var stockErr *service.InsufficientStockError
		switch {
		case errors.As(err, &stockErr):
			writeJSON(w, http.StatusConflict, map[string]any{
				"error":     stockErr.Error(),
				"product":   stockErr.ProductName,
				"available": stockErr.Available,
				"requested": stockErr.Requested,
			})
		case errors.Is(err, service.ErrEmptyItems),
			errors.Is(err, service.ErrInvalidQuantity),
			errors.Is(err, service.ErrInvalidTableID),
			errors.Is(err, service.ErrInvalidProductID),
			errors.Is(err, service.ErrInvalidWaiterID):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrTableNotFound), errors.Is(err, service.ErrProductNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: place order: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	resp, err := h.enrichOne(r.Context(), result.Order)
	if err != nil {
		log.Printf("ERROR: enrich order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.hub.Notify(ws.TopicOrders, "order.created", resp)
	for _, stock := range result.Stock {
		h.hub.Notify(ws.TopicStock, "stock.updated", map[string]any{
			"id":            stock.ID,
			"product_id":    stock.ProductID,
			"current_stock": stock.CurrentStock,
		})
	}

	writeJSON(w, http.StatusCreated, resp)
}

// UpdateStatus advances an order one step along its lifecycle. Requests
// that skip a step or move backwards are rejected.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	next := enum.NextOrderStatus(order.Status)
	if next == "" {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "order is already completed"})
		return
	}
	if req.Status != next {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": fmt.Sprintf("cannot move order from %s to %s", order.Status, req.Status),
		})
		return
	}

	updated, err := h.store.UpdateOrderStatus(r.Context(), database.UpdateOrderStatusParams{
		ID:     orderID,
		Status: next,
	})
	if err != nil {
		log.Printf("ERROR: update order status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp, err := h.enrichOne(r.Context(), updated)
	if err != nil {
		log.Printf("ERROR: enrich order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.hub.Notify(ws.TopicOrders, "order.updated", resp)

	if updated.Status == enum.OrderStatusReady {
		h.notifyWaiterOrderReady(updated)
	}

	writeJSON(w, http.StatusOK, resp)
}

// UpdateNote replaces an order's kitchen note.
func (h *OrderHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateOrderNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	note := pgtype.Text{}
	if req.Note != "" {
		note = pgtype.Text{String: req.Note, Valid: true}
	}

	updated, err := h.store.UpdateOrderNote(r.Context(), database.UpdateOrderNoteParams{
		ID:   orderID,
		Note: note,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: update order note: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp, err := h.enrichOne(r.Context(), updated)
	if err != nil {
		log.Printf("ERROR: enrich order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.hub.Notify(ws.TopicOrders, "order.updated", resp)

	writeJSON(w, http.StatusOK, resp)
}

// RequestBill flags an open order for settlement. Completed orders cannot
// request a bill.
func (h *OrderHandler) RequestBill(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	updated, err := h.store.RequestBill(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the order doesn't exist or it is already completed.
			writeJSON(w, http.StatusConflict, map[string]string{"error": "order not open for billing"})
			return
		}
		log.Printf("ERROR: request bill: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp, err := h.enrichOne(r.Context(), updated)
	if err != nil {
		log.Printf("ERROR: enrich order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.hub.Notify(ws.TopicOrders, "order.updated", resp)
	h.hub.Notify(ws.TopicBills, "bill.requested", map[string]any{"order_id": orderID})

	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

// enrichOne resolves one order's table and items for the response.
func (h *OrderHandler) enrichOne(ctx context.Context, order database.Order) (orderResponse, error) {
	var tables []database.Table
	table, err := h.store.GetTable(ctx, order.TableID)
	switch {
	case err == nil:
		tables = append(tables, table)
	case errors.Is(err, pgx.ErrNoRows):
		// Table deleted out from under the order; leave it nil.
	default:
		return orderResponse{}, err
	}

	items, err := h.store.ListOrderItemsByOrder(ctx, order.ID)
	if err != nil {
		return orderResponse{}, err
	}
	products, err := h.store.ListProductRefs(ctx)
	if err != nil {
		return orderResponse{}, err
	}

	enriched := merge.Orders([]database.Order{order}, tables, items, products)
	return toOrderResponse(enriched[0]), nil
}

// notifyWaiterOrderReady pushes a ready alert to the waiter who took the
// order. Best effort; runs detached from the request.
func (h *OrderHandler) notifyWaiterOrderReady(order database.Order) {
	if !order.WaiterID.Valid {
		return
	}
	waiterID := uuid.UUID(order.WaiterID.Bytes)
	tableID := order.TableID
	orderID := order.ID

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		waiter, err := h.store.GetWaiter(ctx, waiterID)
		if err != nil {
			log.Printf("ERROR: get waiter for push: %v", err)
			return
		}
		if !waiter.PushToken.Valid {
			return
		}

		tableLabel := "?"
		if table, err := h.store.GetTable(ctx, tableID); err == nil {
			tableLabel = fmt.Sprintf("%d", table.TableNumber)
		}

		h.pusher.Push(ctx, waiter.PushToken.String,
			"Siparis hazir",
			fmt.Sprintf("Masa %s siparisi hazir", tableLabel),
			map[string]string{"order_id": orderID.String()},
		)
	}()
}
