package handler

import (
	"net/http"

	"tiendita/internal/zone"

	"github.com/rs/zerolog"
)

// ZoneHandler serves the delivery zone reference data.
type ZoneHandler struct {
	catalog zone.Catalog
	logger  zerolog.Logger
}

// NewZoneHandler creates a new zone handler.
func NewZoneHandler(catalog zone.Catalog, logger zerolog.Logger) *ZoneHandler {
	return &ZoneHandler{
		catalog: catalog,
		logger:  logger.With().Str("handler", "zone").Logger(),
	}
}

// List handles GET /api/delivery-zones.
func (h *ZoneHandler) List(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, "Delivery zones retrieved", h.catalog.List())
}
