package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lokanta-pos/api/internal/config"
	"github.com/lokanta-pos/api/internal/database"
	"github.com/lokanta-pos/api/internal/enum"
	"github.com/lokanta-pos/api/internal/handler"
	mw "github.com/lokanta-pos/api/internal/middleware"
	"github.com/lokanta-pos/api/internal/notify"
	"github.com/lokanta-pos/api/internal/service"
	"github.com/lokanta-pos/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication and role-based middleware as needed.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173", // dashboard dev server
			"https://panel.lokanta-pos.com",
			"https://stg-panel.lokanta-pos.com",
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket event stream (handles auth internally via query param)
	r.Get("/ws/events", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Shared services
	pusher := notify.NewExpoPusher(cfg.PushEndpoint)

	orderService := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	})
	billingService := service.NewBillingService(pool, queries, func(db database.DBTX) service.BillingStore {
		return database.New(db)
	})
	revenueService := service.NewRevenueService(queries)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleAdmin))

			waiterHandler := handler.NewWaiterHandler(queries)
			r.Route("/waiters", waiterHandler.RegisterAdminRoutes)

			productHandler := handler.NewProductHandler(queries, hub, cfg.DefaultImageURL)
			r.Route("/products", productHandler.RegisterRoutes)

			reportHandler := handler.NewReportHandler(revenueService)
			r.Route("/reports", reportHandler.RegisterRoutes)
		})

		// Routes for every authenticated account
		waiterHandler := handler.NewWaiterHandler(queries)
		r.Route("/account", waiterHandler.RegisterSelfRoutes)

		stockHandler := handler.NewStockHandler(queries, hub)
		r.Route("/stock", stockHandler.RegisterRoutes)

		tableHandler := handler.NewTableHandler(queries, billingService, hub)
		r.Route("/tables", tableHandler.RegisterRoutes)

		orderHandler := handler.NewOrderHandler(queries, orderService, hub, pusher)
		r.Route("/orders", orderHandler.RegisterRoutes)

		billHandler := handler.NewBillHandler(billingService, hub)
		r.Route("/bills", billHandler.RegisterRoutes)
	})

	log.Println("Router initialized with all handlers")
	return r
}
