package model

// DeliveryZone is read-mostly reference data: a named area with a flat
// delivery fee. Selected, not owned, by a cart.
type DeliveryZone struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Areas      []string `json:"areas"`
	PriceCents int64    `json:"priceCents"`
}
