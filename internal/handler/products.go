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
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lokanta-pos/api/internal/database"
	"github.com/lokanta-pos/api/internal/enum"
	"github.com/lokanta-pos/api/internal/ws"
)

// ProductStore defines the database methods needed by product handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ProductStore interface {
	ListActiveProducts(ctx context.Context) ([]database.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (database.Product, error)
	CreateProduct(ctx context.Context, arg database.CreateProductParams) (database.Product, error)
	UpdateProduct(ctx context.Context, arg database.UpdateProductParams) (database.Product, error)
	SoftDeleteProduct(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	CreateStockItem(ctx context.Context, arg database.CreateStockItemParams) (database.StockItem, error)
	DeactivateStockByProduct(ctx context.Context, arg database.DeactivateStockByProductParams) error
}

// ProductHandler handles product catalog endpoints.
type ProductHandler struct {
	store           ProductStore
	hub             *ws.Hub
	defaultImageURL string
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(store ProductStore, hub *ws.Hub, defaultImageURL string) *ProductHandler {
	return &ProductHandler{store: store, hub: hub, defaultImageURL: defaultImageURL}
}

// RegisterRoutes registers product endpoints on the given Chi router.
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createProductRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Price        string `json:"price"`
	ImageURL     string `json:"image_url"`
	Category     string `json:"category"`
	InitialStock int32  `json:"initial_stock"`
	MinStock     int32  `json:"min_stock"`
	MaxStock     int32  `json:"max_stock"`
	Unit         string `json:"unit"`
}

type updateProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	ImageURL    string `json:"image_url"`
	Category    string `json:"category"`
}

type productResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       string    `json:"price"`
	ImageURL    string    `json:"image_url"`
	Category    *string   `json:"category"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toProductResponse(p database.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: textOrNil(p.Description),
		Price:       numericToString(p.Price),
		ImageURL:    p.ImageUrl,
		Category:    textOrNil(p.Category),
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func isValidUnit(unit string) bool {
	switch unit {
	case enum.UnitPiece, enum.UnitKilogram, enum.UnitLiter, enum.UnitPortion:
		return true
	}
	return false
}

// --- Handlers ---

// List returns all active products, newest first.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.ListActiveProducts(r.Context())
	if err != nil {
		log.Printf("ERROR: list products: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = toProductResponse(p)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single product by ID, active or not.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	prodID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	product, err := h.store.GetProduct(r.Context(), prodID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		log.Printf("ERROR: get product: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(product))
}

// Create adds a product together with its stock tracking row.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	if req.Price == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price is required"})
		return
	}

	price, err := parsePrice(req.Price)
	if err != nil {
		if errors.Is(err, errNegativePrice) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price must be >= 0"})
		} else {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		}
		return
	}

	if req.InitialStock < 0 || req.MinStock < 0 || req.MaxStock < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "stock levels must be >= 0"})
		return
	}

	unit := req.Unit
	if unit == "" {
		unit = enum.UnitPiece
	}
	if !isValidUnit(unit) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid unit"})
		return
	}

	// Products without a photo get the house placeholder image.
	imageURL := req.ImageURL
	if imageURL == "" {
		imageURL = h.defaultImageURL
	}

	desc := pgtype.Text{}
	if req.Description != "" {
		desc = pgtype.Text{String: req.Description, Valid: true}
	}

	category := pgtype.Text{}
	if req.Category != "" {
		category = pgtype.Text{String: req.Category, Valid: true}
	}

	product, err := h.store.CreateProduct(r.Context(), database.CreateProductParams{
		Name:        req.Name,
		Description: desc,
		Price:       price,
		ImageUrl:    imageURL,
		Category:    category,
	})
	if err != nil {
		log.Printf("ERROR: create product: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if _, err := h.store.CreateStockItem(r.Context(), database.CreateStockItemParams{
		ProductID:    product.ID,
		CurrentStock: req.InitialStock,
		MinStock:     req.MinStock,
		MaxStock:     req.MaxStock,
		Unit:         unit,
	}); err != nil {
		log.Printf("ERROR: create stock item for product %s: %v", product.ID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := toProductResponse(product)
	h.hub.Notify(ws.TopicProducts, "product.created", resp)
	h.hub.Notify(ws.TopicStock, "stock.created", map[string]any{"product_id": product.ID})

	writeJSON(w, http.StatusCreated, resp)
}

// Update modifies an existing active product.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	prodID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	var req updateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	if req.Price == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price is required"})
		return
	}

	price, err := parsePrice(req.Price)
	if err != nil {
		if errors.Is(err, errNegativePrice) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price must be >= 0"})
		} else {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		}
		return
	}

	imageURL := req.ImageURL
	if imageURL == "" {
		imageURL = h.defaultImageURL
	}

	desc := pgtype.Text{}
	if req.Description != "" {
		desc = pgtype.Text{String: req.Description, Valid: true}
	}

	category := pgtype.Text{}
	if req.Category != "" {
		category = pgtype.Text{String: req.Category, Valid: true}
	}

	product, err := h.store.UpdateProduct(r.Context(), database.UpdateProductParams{
		ID:          prodID,
		Name:        req.Name,
		Description: desc,
		Price:       price,
		ImageUrl:    imageURL,
		Category:    category,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		log.Printf("ERROR: update product: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := toProductResponse(product)
	h.hub.Notify(ws.TopicProducts, "product.updated", resp)

	writeJSON(w, http.StatusOK, resp)
}

// Delete soft-deletes a product and zeroes out its stock row. Existing
// order items keep their snapshots; only the catalog entry disappears.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	prodID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	if _, err := h.store.SoftDeleteProduct(r.Context(), prodID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		log.Printf("ERROR: delete product: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := h.store.DeactivateStockByProduct(r.Context(), database.DeactivateStockByProductParams{
		ProductID: prodID,
		Unit:      enum.UnitInactive,
	}); err != nil {
		log.Printf("ERROR: deactivate stock for product %s: %v", prodID, err)
	}

	h.hub.Notify(ws.TopicProducts, "product.deleted", map[string]any{"id": prodID})
	h.hub.Notify(ws.TopicStock, "stock.deactivated", map[string]any{"product_id": prodID})

	w.WriteHeader(http.StatusNoContent)
}
