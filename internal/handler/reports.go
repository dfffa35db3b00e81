package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lokanta-pos/api/internal/service"
)

// ReportHandler handles revenue reporting endpoints.
type ReportHandler struct {
	revenue *service.RevenueService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(revenue *service.RevenueService) *ReportHandler {
	return &ReportHandler{revenue: revenue}
}

// RegisterRoutes registers report endpoints on the given Chi router.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/revenue", h.Revenue)
}

// --- Response types ---

type topProductResponse struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int32     `json:"quantity"`
	Revenue     string    `json:"revenue"`
}

type revenueReportResponse struct {
	Date          string               `json:"date"`
	DailyTotal    string               `json:"daily_total"`
	DailyOrders   int                  `json:"daily_orders"`
	MonthlyTotal  string               `json:"monthly_total"`
	MonthlyOrders int                  `json:"monthly_orders"`
	TopProducts   []topProductResponse `json:"top_products"`
}

// --- Handlers ---

// Revenue returns the daily and monthly revenue aggregates for the given
// date (query param "date", YYYY-MM-DD; defaults to today).
func (h *ReportHandler) Revenue(w http.ResponseWriter, r *http.Request) {
	at := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, at.Location())
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date, expected YYYY-MM-DD"})
			return
		}
		at = parsed
	}

	report, err := h.revenue.ReportAt(r.Context(), at)
	if err != nil {
		log.Printf("ERROR: revenue report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := revenueReportResponse{
		Date:          report.Date.Format("2006-01-02"),
		DailyTotal:    report.DailyTotal.StringFixed(2),
		DailyOrders:   report.DailyOrders,
		MonthlyTotal:  report.MonthlyTotal.StringFixed(2),
		MonthlyOrders: report.MonthlyOrders,
		TopProducts:   make([]topProductResponse, len(report.TopProducts)),
	}
	for i, p := range report.TopProducts {
		resp.TopProducts[i] = topProductResponse{
			ProductID:   p.ProductID,
			ProductName: p.ProductName,
			Quantity:    p.Quantity,
			Revenue:     p.Revenue.StringFixed(2),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
