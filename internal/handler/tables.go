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
	"github.com/lokanta-pos/api/internal/service"
	"github.com/lokanta-pos/api/internal/ws"
)

// TableStore defines the database methods needed by table handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type TableStore interface {
	ListTables(ctx context.Context) ([]database.Table, error)
	GetTable(ctx context.Context, id uuid.UUID) (database.Table, error)
	CreateTable(ctx context.Context, arg database.CreateTableParams) (database.Table, error)
	SetTableName(ctx context.Context, arg database.SetTableNameParams) (database.Table, error)
}

// TableHandler handles dining table endpoints.
type TableHandler struct {
	store   TableStore
	billing *service.BillingService
	hub     *ws.Hub
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(store TableStore, billing *service.BillingService, hub *ws.Hub) *TableHandler {
	return &TableHandler{store: store, billing: billing, hub: hub}
}

// RegisterRoutes registers table endpoints on the given Chi router.
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}/name", h.SetName)
	r.Post("/merge", h.Merge)
	r.Delete("/groups/{gid}", h.Ungroup)
}

// --- Request / Response types ---

type createTableRequest struct {
	TableNumber int32 `json:"table_number"`
	// Optional: a non-empty name seats a party right away.
	Name *string `json:"name"`
}

type setTableNameRequest struct {
	// Null or empty name frees the table.
	Name *string `json:"name"`
}

type mergeTablesRequest struct {
	TableIDs []string `json:"table_ids"`
}

type tableResponse struct {
	ID          uuid.UUID  `json:"id"`
	TableNumber int32      `json:"table_number"`
	Name        *string    `json:"name"`
	GroupID     *uuid.UUID `json:"group_id"`
	IsOccupied  bool       `json:"is_occupied"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toTableResponse(t database.Table) tableResponse {
	resp := tableResponse{
		ID:          t.ID,
		TableNumber: t.TableNumber,
		Name:        textOrNil(t.Name),
		IsOccupied:  t.Name.Valid,
		CreatedAt:   t.CreatedAt,
	}
	if t.GroupID.Valid {
		gid := uuid.UUID(t.GroupID.Bytes)
		resp.GroupID = &gid
	}
	return resp
}

type mergeTablesResponse struct {
	GroupID uuid.UUID       `json:"group_id"`
	Tables  []tableResponse `json:"tables"`
}

// --- Handlers ---

// List returns every table ordered by table number.
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	tables, err := h.store.ListTables(r.Context())
	if err != nil {
		log.Printf("ERROR: list tables: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]tableResponse, len(tables))
	for i, t := range tables {
		resp[i] = toTableResponse(t)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create adds a new table.
func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.TableNumber <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "table_number must be > 0"})
		return
	}

	name := pgtype.Text{}
	if req.Name != nil && *req.Name != "" {
		name = pgtype.Text{String: *req.Name, Valid: true}
	}

	table, err := h.store.CreateTable(r.Context(), database.CreateTableParams{
		TableNumber: req.TableNumber,
		Name:        name,
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "table number already exists"})
			return
		}
		log.Printf("ERROR: create table: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := toTableResponse(table)
	h.hub.Notify(ws.TopicTables, "table.created", resp)

	writeJSON(w, http.StatusCreated, resp)
}

// SetName seats a party (non-empty name) or frees the table (null name).
func (h *TableHandler) SetName(w http.ResponseWriter, r *http.Request) {
	tableID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	var req setTableNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	name := pgtype.Text{}
	if req.Name != nil && *req.Name != "" {
		name = pgtype.Text{String: *req.Name, Valid: true}
	}

	table, err := h.store.SetTableName(r.Context(), database.SetTableNameParams{
		ID:   tableID,
		Name: name,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
			return
		}
		log.Printf("ERROR: set table name: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := toTableResponse(table)
	h.hub.Notify(ws.TopicTables, "table.updated", resp)

	writeJSON(w, http.StatusOK, resp)
}

// Merge puts two or more tables into one billing group.
func (h *TableHandler) Merge(w http.ResponseWriter, r *http.Request) {
	var req mergeTablesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	groupID, tables, err := h.billing.MergeTables(r.Context(), req.TableIDs)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTooFewTables):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "at least two tables are required"})
		case errors.Is(err, service.ErrInvalidTableID):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		case errors.Is(err, service.ErrTableNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
		default:
			log.Printf("ERROR: merge tables: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	resp := mergeTablesResponse{GroupID: groupID}
	resp.Tables = make([]tableResponse, len(tables))
	for i, t := range tables {
		resp.Tables[i] = toTableResponse(t)
	}

	h.hub.Notify(ws.TopicTables, "tables.merged", resp)

	writeJSON(w, http.StatusOK, resp)
}

// Ungroup dissolves a billing group without touching seating or orders.
func (h *TableHandler) Ungroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := uuid.Parse(chi.URLParam(r, "gid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid group ID"})
		return
	}

	if err := h.billing.Ungroup(r.Context(), groupID); err != nil {
		if errors.Is(err, service.ErrGroupNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "group not found"})
			return
		}
		log.Printf("ERROR: ungroup tables: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.hub.Notify(ws.TopicTables, "tables.ungrouped", map[string]any{"group_id": groupID})

	w.WriteHeader(http.StatusNoContent)
}
