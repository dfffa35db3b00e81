package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lokanta-pos/api/internal/database"
	"github.com/lokanta-pos/api/internal/enum"
	"github.com/lokanta-pos/api/internal/middleware"
	"golang.org/x/crypto/bcrypt"
)

// WaiterStore defines the database methods needed by waiter handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type WaiterStore interface {
	ListWaiters(ctx context.Context) ([]database.Waiter, error)
	GetWaiter(ctx context.Context, id uuid.UUID) (database.Waiter, error)
	CreateWaiter(ctx context.Context, arg database.CreateWaiterParams) (database.Waiter, error)
	SetWaiterPushToken(ctx context.Context, arg database.SetWaiterPushTokenParams) (database.Waiter, error)
}

// WaiterHandler handles waiter account endpoints.
type WaiterHandler struct {
	store WaiterStore
}

// NewWaiterHandler creates a new WaiterHandler.
func NewWaiterHandler(store WaiterStore) *WaiterHandler {
	return &WaiterHandler{store: store}
}

// RegisterAdminRoutes registers the account provisioning endpoints.
// Mounted behind RequireRole(ADMIN).
func (h *WaiterHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/", h.Create)
}

// RegisterSelfRoutes registers endpoints every authenticated waiter can use
// on their own account.
func (h *WaiterHandler) RegisterSelfRoutes(r chi.Router) {
	r.Get("/me", h.Me)
	r.Put("/me/push-token", h.SetPushToken)
}

// --- Request / Response types ---

type createWaiterRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

type setPushTokenRequest struct {
	// Null or empty token unregisters the device.
	PushToken *string `json:"push_token"`
}

// --- Handlers ---

// List returns every waiter account, oldest first.
func (h *WaiterHandler) List(w http.ResponseWriter, r *http.Request) {
	waiters, err := h.store.ListWaiters(r.Context())
	if err != nil {
		log.Printf("ERROR: list waiters: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]waiterResponse, len(waiters))
	for i, waiter := range waiters {
		resp[i] = toWaiterResponse(waiter)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single waiter account by ID.
func (h *WaiterHandler) Get(w http.ResponseWriter, r *http.Request) {
	waiterID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid waiter ID"})
		return
	}

	waiter, err := h.store.GetWaiter(r.Context(), waiterID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "waiter not found"})
			return
		}
		log.Printf("ERROR: get waiter: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toWaiterResponse(waiter))
}

// Create provisions a new waiter or admin account.
func (h *WaiterHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createWaiterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.FirstName == "" || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "first_name, email, and password are required"})
		return
	}

	role := req.Role
	if role == "" {
		role = enum.RoleWaiter
	}
	if role != enum.RoleWaiter && role != enum.RoleAdmin {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid role"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("ERROR: hash password: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	waiter, err := h.store.CreateWaiter(r.Context(), database.CreateWaiterParams{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		HashedPassword: string(hashed),
		Role:           role,
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "email already registered"})
			return
		}
		log.Printf("ERROR: create waiter: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toWaiterResponse(waiter))
}

// Me returns the calling waiter's own account.
func (h *WaiterHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	waiter, err := h.store.GetWaiter(r.Context(), claims.WaiterID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "waiter not found"})
			return
		}
		log.Printf("ERROR: get waiter: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toWaiterResponse(waiter))
}

// SetPushToken stores or clears the calling waiter's device push token.
func (h *WaiterHandler) SetPushToken(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req setPushTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	token := pgtype.Text{}
	if req.PushToken != nil && *req.PushToken != "" {
		token = pgtype.Text{String: *req.PushToken, Valid: true}
	}

	waiter, err := h.store.SetWaiterPushToken(r.Context(), database.SetWaiterPushTokenParams{
		ID:        claims.WaiterID,
		PushToken: token,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "waiter not found"})
			return
		}
		log.Printf("ERROR: set push token: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toWaiterResponse(waiter))
}
