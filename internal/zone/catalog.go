package zone

import (
	"context"
	"fmt"

	"tiendita/internal/model"

	"github.com/rs/zerolog"
)

// catalog is an in-memory Catalog. Zones are read-only after initialisation,
// so no mutex is needed.
type catalog struct {
	zones  []model.DeliveryZone
	byID   map[string]int
	logger zerolog.Logger
}

// NewCatalog loads the zone reference document once and serves it from
// memory for the life of the process.
func NewCatalog(ctx context.Context, loader Loader, path string, logger zerolog.Logger) (Catalog, error) {
	logger = logger.With().Str("component", "zone-catalog").Logger()

	zones, err := loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load delivery zones: %w", err)
	}

	if len(zones) == 0 {
		return nil, fmt.Errorf("zone document contains no zones")
	}

	byID := make(map[string]int, len(zones))
	for i, z := range zones {
		byID[z.ID] = i
	}

	logger.Info().
		Int("zone_count", len(zones)).
		Msg("delivery zone catalog initialised")

	return &catalog{
		zones:  zones,
		byID:   byID,
		logger: logger,
	}, nil
}

// List returns all delivery zones in document order.
func (c *catalog) List() []model.DeliveryZone {
	out := make([]model.DeliveryZone, len(c.zones))
	copy(out, c.zones)
	return out
}

// Get returns the zone with the given id.
func (c *catalog) Get(id string) (*model.DeliveryZone, bool) {
	i, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	z := c.zones[i]
	return &z, true
}
