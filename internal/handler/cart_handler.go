package handler

import (
	"net/http"

	"tiendita/internal/model"
	"tiendita/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CartHandler handles cart-related HTTP requests.
type CartHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

// Create handles POST /api/carts: mints a fresh token and adds the first
// item in one server-side operation.
func (h *CartHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.AddItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	token := uuid.NewString()
	cart, err := h.service.AddItem(r.Context(), token, req.ProductID, req.Quantity)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusCreated, "Cart created", cart)
}

// Get handles GET /api/carts/{token}.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.Get(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, "Cart retrieved", cart)
}

// AddItem handles POST /api/carts/{token}/items. An unknown token lazily
// creates the cart, so a client that lost its cart keeps working.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req model.AddItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	cart, err := h.service.AddItem(r.Context(), chi.URLParam(r, "token"), req.ProductID, req.Quantity)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, "Item added", cart)
}

// UpdateItem handles PUT /api/carts/{token}/items/{itemID}.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeItemNotFound, "Invalid item ID", h.logger)
		return
	}

	var req model.UpdateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	cart, err := h.service.UpdateItem(r.Context(), chi.URLParam(r, "token"), itemID, req.Quantity)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, "Item updated", cart)
}

// RemoveItem handles DELETE /api/carts/{token}/items/{itemID}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeItemNotFound, "Invalid item ID", h.logger)
		return
	}

	cart, err := h.service.RemoveItem(r.Context(), chi.URLParam(r, "token"), itemID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, "Item removed", cart)
}

// Clear handles DELETE /api/carts/{token}/items.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.Clear(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, "Cart cleared", cart)
}

// Quote handles GET /api/carts/{token}/quote?zoneId=Z. Without a zoneId the
// quote reports ZoneSelected false; the client must not render that total as
// final.
func (h *CartHandler) Quote(w http.ResponseWriter, r *http.Request) {
	quote, err := h.service.Quote(r.Context(), chi.URLParam(r, "token"), r.URL.Query().Get("zoneId"))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeData(w, http.StatusOK, "Quote computed", quote)
}
