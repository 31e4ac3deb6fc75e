package zone

import (
	"context"

	"tiendita/internal/model"
)

// Catalog exposes the delivery zone reference data. Zones are read-only from
// the cart's perspective; the list order matches the source document.
type Catalog interface {
	// List returns all delivery zones in document order.
	List() []model.DeliveryZone

	// Get returns the zone with the given id.
	Get(id string) (*model.DeliveryZone, bool)
}

// Loader defines the interface for loading the zone reference document.
type Loader interface {
	// Load reads a JSON zone document and returns the zones it contains.
	Load(ctx context.Context, path string) ([]model.DeliveryZone, error)
}
