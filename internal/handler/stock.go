package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lokanta-pos/api/internal/database"
	"github.com/lokanta-pos/api/internal/merge"
	"github.com/lokanta-pos/api/internal/ws"
)

// StockStore defines the database methods needed by stock handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type StockStore interface {
	ListStockItems(ctx context.Context) ([]database.StockItem, error)
	GetStockItem(ctx context.Context, id uuid.UUID) (database.StockItem, error)
	SetStockLevel(ctx context.Context, arg database.SetStockLevelParams) (database.StockItem, error)
	ListProductRefs(ctx context.Context) ([]database.ListProductRefsRow, error)
}

// StockHandler handles stock tracking endpoints.
type StockHandler struct {
	store StockStore
	hub   *ws.Hub
}

// NewStockHandler creates a new StockHandler.
func NewStockHandler(store StockStore, hub *ws.Hub) *StockHandler {
	return &StockHandler{store: store, hub: hub}
}

// RegisterRoutes registers stock endpoints on the given Chi router.
func (h *StockHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.SetLevel)
}

// --- Request / Response types ---

type setStockLevelRequest struct {
	CurrentStock int32 `json:"current_stock"`
}

type stockProductResponse struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

type stockItemResponse struct {
	ID           uuid.UUID             `json:"id"`
	ProductID    uuid.UUID             `json:"product_id"`
	CurrentStock int32                 `json:"current_stock"`
	MinStock     int32                 `json:"min_stock"`
	MaxStock     int32                 `json:"max_stock"`
	Unit         string                `json:"unit"`
	LastUpdated  time.Time             `json:"last_updated"`
	Product      *stockProductResponse `json:"product"`
}

func toStockItemResponse(s database.StockItem, product *merge.ProductRef) stockItemResponse {
	resp := stockItemResponse{
		ID:           s.ID,
		ProductID:    s.ProductID,
		CurrentStock: s.CurrentStock,
		MinStock:     s.MinStock,
		MaxStock:     s.MaxStock,
		Unit:         s.Unit,
		LastUpdated:  s.LastUpdated,
	}
	if product != nil {
		resp.Product = &stockProductResponse{
			Name:  product.Name,
			Price: numericToString(product.Price),
		}
	}
	return resp
}

// --- Handlers ---

// List returns every stock row with its product resolved, most recently
// updated first.
func (h *StockHandler) List(w http.ResponseWriter, r *http.Request) {
	stock, err := h.store.ListStockItems(r.Context())
	if err != nil {
		log.Printf("ERROR: list stock: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	products, err := h.store.ListProductRefs(r.Context())
	if err != nil {
		log.Printf("ERROR: list products: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	views := merge.Stock(stock, products)
	resp := make([]stockItemResponse, len(views))
	for i, v := range views {
		resp[i] = toStockItemResponse(v.Stock, v.Product)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single stock row by ID.
func (h *StockHandler) Get(w http.ResponseWriter, r *http.Request) {
	stockID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid stock item ID"})
		return
	}

	item, err := h.store.GetStockItem(r.Context(), stockID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "stock item not found"})
			return
		}
		log.Printf("ERROR: get stock item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toStockItemResponse(item, nil))
}

// SetLevel overwrites a stock row's current level. Used for manual restock
// and corrections; order placement adjusts stock on its own.
func (h *StockHandler) SetLevel(w http.ResponseWriter, r *http.Request) {
	stockID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid stock item ID"})
		return
	}

	var req setStockLevelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.CurrentStock < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "current_stock must be >= 0"})
		return
	}

	item, err := h.store.SetStockLevel(r.Context(), database.SetStockLevelParams{
		ID:           stockID,
		CurrentStock: req.CurrentStock,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "stock item not found"})
			return
		}
		log.Printf("ERROR: set stock level: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := toStockItemResponse(item, nil)
	h.hub.Notify(ws.TopicStock, "stock.updated", resp)

	writeJSON(w, http.StatusOK, resp)
}
