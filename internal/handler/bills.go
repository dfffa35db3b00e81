package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lokanta-pos/api/internal/service"
	"github.com/lokanta-pos/api/internal/ws"
)

// BillHandler handles table-group billing endpoints.
type BillHandler struct {
	billing *service.BillingService
	hub     *ws.Hub
}

// NewBillHandler creates a new BillHandler.
func NewBillHandler(billing *service.BillingService, hub *ws.Hub) *BillHandler {
	return &BillHandler{billing: billing, hub: hub}
}

// RegisterRoutes registers billing endpoints on the given Chi router.
func (h *BillHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{gid}", h.Receipt)
	r.Post("/{gid}/close", h.Close)
	r.Delete("/{gid}", h.Delete)
}

// --- Response types ---

type billLineResponse struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int32     `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
	LineTotal   string    `json:"line_total"`
}

type billResponse struct {
	GroupID      uuid.UUID          `json:"group_id"`
	TableLabel   string             `json:"table_label"`
	TableNumbers []int32            `json:"table_numbers"`
	GuestName    string             `json:"guest_name"`
	OrderIDs     []uuid.UUID        `json:"order_ids"`
	Lines        []billLineResponse `json:"lines"`
	Total        string             `json:"total"`
}

func toBillResponse(b service.Bill) billResponse {
	resp := billResponse{
		GroupID:      b.GroupID,
		TableLabel:   b.TableLabel,
		TableNumbers: b.TableNumbers,
		GuestName:    b.GuestName,
		OrderIDs:     b.OrderIDs,
		Lines:        make([]billLineResponse, len(b.Lines)),
		Total:        b.Total.StringFixed(2),
	}
	for i, line := range b.Lines {
		resp.Lines[i] = billLineResponse{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice.StringFixed(2),
			LineTotal:   line.LineTotal.StringFixed(2),
		}
	}
	return resp
}

// --- Handlers ---

// List returns the current pending bills, recomputed from open orders.
func (h *BillHandler) List(w http.ResponseWriter, r *http.Request) {
	bills, err := h.billing.Bills(r.Context())
	if err != nil {
		log.Printf("ERROR: list bills: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]billResponse, len(bills))
	for i, b := range bills {
		resp[i] = toBillResponse(b)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Receipt returns one group's bill for printing.
func (h *BillHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	groupID, err := uuid.Parse(chi.URLParam(r, "gid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid group ID"})
		return
	}

	bills, err := h.billing.Bills(r.Context())
	if err != nil {
		log.Printf("ERROR: list bills: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	for _, b := range bills {
		if b.GroupID == groupID {
			writeJSON(w, http.StatusOK, toBillResponse(b))
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "bill not found"})
}

// Close settles a group's bill: orders complete, consumed stock returns,
// tables free up.
func (h *BillHandler) Close(w http.ResponseWriter, r *http.Request) {
	groupID, err := uuid.Parse(chi.URLParam(r, "gid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid group ID"})
		return
	}

	result, err := h.billing.CloseBill(r.Context(), groupID)
	if err != nil {
		if errors.Is(err, service.ErrGroupNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "group not found"})
			return
		}
		log.Printf("ERROR: close bill: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.hub.Notify(ws.TopicBills, "bill.closed", map[string]any{
		"group_id": result.GroupID,
		"total":    result.Total.StringFixed(2),
	})
	h.hub.Notify(ws.TopicOrders, "orders.completed", map[string]any{"order_ids": result.CompletedOrderIDs})
	h.hub.Notify(ws.TopicTables, "tables.freed", map[string]any{"group_id": result.GroupID})
	for _, stock := range result.Stock {
		h.hub.Notify(ws.TopicStock, "stock.updated", map[string]any{
			"id":            stock.ID,
			"product_id":    stock.ProductID,
			"current_stock": stock.CurrentStock,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"group_id":            result.GroupID,
		"completed_order_ids": result.CompletedOrderIDs,
		"total":               result.Total.StringFixed(2),
	})
}

// Delete abandons a group's bill: tables free up but orders and stock stay
// as they are.
func (h *BillHandler) Delete(w http.ResponseWriter, r *http.Request) {
	groupID, err := uuid.Parse(chi.URLParam(r, "gid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid group ID"})
		return
	}

	if err := h.billing.DeleteBill(r.Context(), groupID); err != nil {
		if errors.Is(err, service.ErrGroupNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "group not found"})
			return
		}
		log.Printf("ERROR: delete bill: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.hub.Notify(ws.TopicBills, "bill.deleted", map[string]any{"group_id": groupID})
	h.hub.Notify(ws.TopicTables, "tables.freed", map[string]any{"group_id": groupID})

	w.WriteHeader(http.StatusNoContent)
}
