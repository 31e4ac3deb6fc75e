// Package pricing computes cart totals. All functions are pure and all money
// values are integer counts of the smallest currency unit; floating point is
// never used, so repeated recomputation cannot drift.
package pricing

import "tiendita/internal/model"

// Quote is a priced view of a set of line items against a delivery zone.
// ZoneSelected distinguishes "no zone chosen yet" from "zone with fee 0";
// callers must not render TotalCents as final while it is false.
type Quote struct {
	SubtotalCents    int64 `json:"subtotalCents"`
	DeliveryFeeCents int64 `json:"deliveryFeeCents"`
	TotalCents       int64 `json:"totalCents"`
	ZoneSelected     bool  `json:"zoneSelected"`
}

// Subtotal sums the line totals of the given items.
func Subtotal(items []model.CartItem) int64 {
	var total int64
	for _, item := range items {
		total += item.LineTotalCents()
	}
	return total
}

// NewQuote prices the items against the selected zone. A nil zone yields a
// quote with ZoneSelected false and a zero delivery fee.
func NewQuote(items []model.CartItem, zone *model.DeliveryZone) Quote {
	subtotal := Subtotal(items)

	if zone == nil {
		return Quote{
			SubtotalCents: subtotal,
			TotalCents:    subtotal,
		}
	}

	return Quote{
		SubtotalCents:    subtotal,
		DeliveryFeeCents: zone.PriceCents,
		TotalCents:       subtotal + zone.PriceCents,
		ZoneSelected:     true,
	}
}
