package router

import (
	"net/http"
	"time"

	"tiendita/internal/handler"
	"tiendita/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// New creates the HTTP router with all routes and middleware configured.
func New(
	cartHandler *handler.CartHandler,
	orderHandler *handler.OrderHandler,
	zoneHandler *handler.ZoneHandler,
	apiKey string,
	requestTimeout time.Duration,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)
	r.Use(middleware.Timeout(requestTimeout))

	// Health check endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/carts", cartHandler.Create)
		r.Route("/carts/{token}", func(r chi.Router) {
			r.Get("/", cartHandler.Get)
			r.Get("/quote", cartHandler.Quote)
			r.Post("/items", cartHandler.AddItem)
			r.Delete("/items", cartHandler.Clear)
			r.Put("/items/{itemID}", cartHandler.UpdateItem)
			r.Delete("/items/{itemID}", cartHandler.RemoveItem)
		})

		r.Get("/delivery-zones", zoneHandler.List)

		r.Post("/orders", orderHandler.Place)
		r.Get("/orders/{id}", orderHandler.GetByID)

		// Admin surface: order fulfilment transitions
		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(apiKey, logger))
			r.Patch("/admin/orders/{id}/status", orderHandler.UpdateStatus)
		})
	})

	return r
}
