package handler

import (
	"net/http"

	"tiendita/internal/model"
	"tiendita/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Place handles POST /api/orders. The Idempotency-Key header, when present,
// wins over the body field so retry middleware can set it uniformly.
func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	var req model.PlaceOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	if key := r.Header.Get("Idempotency-Key"); key != "" {
		req.IdempotencyKey = key
	}

	result, err := h.service.Place(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	if result.Duplicate {
		writeData(w, http.StatusOK, "Order already placed", result)
		return
	}

	writeData(w, http.StatusCreated, "Order placed", result)
}

// GetByID handles GET /api/orders/{id}.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeOrderNotFound, "Invalid order ID format", h.logger)
		return
	}

	order, err := h.service.GetByID(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, "Order retrieved", order)
}

// UpdateStatus handles PATCH /api/admin/orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeOrderNotFound, "Invalid order ID format", h.logger)
		return
	}

	var req model.UpdateOrderStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	next, err := model.ParseOrderStatus(req.Status)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), orderID, next)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, "Order status updated", order)
}
