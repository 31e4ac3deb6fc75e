package model

// Request payloads form a closed set: one struct per operation, decoded with
// unknown fields rejected, validated before any storage access.

// AddItemRequest adds a product to a cart (creating the cart on first add).
type AddItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// UpdateItemRequest replaces a line's quantity. Zero removes the line.
type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

// PlaceOrderRequest converts a cart into an order.
type PlaceOrderRequest struct {
	CartToken             string      `json:"cartToken"`
	Client                OrderClient `json:"client"`
	DeliveryZoneID        string      `json:"deliveryZoneId"`
	DeliveryAddressDetail string      `json:"deliveryAddressDetail"`
	Channel               string      `json:"channel"`
	IdempotencyKey        string      `json:"idempotencyKey,omitempty"`
}

// UpdateOrderStatusRequest moves an order along its status machine.
type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

// PlacementResult is the outcome of a successful checkout. WhatsAppLink is
// only set for the handoff channel; it is a presentation hint, the order
// itself is committed identically for both channels.
type PlacementResult struct {
	Order        *Order `json:"order"`
	WhatsAppLink string `json:"whatsAppLink,omitempty"`
	Duplicate    bool   `json:"duplicate,omitempty"`
}
