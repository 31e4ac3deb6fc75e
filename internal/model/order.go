package model

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus tracks an order from placement to fulfilment.
type OrderStatus string

const (
	OrderStatusPlaced    OrderStatus = "PLACED"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// IsTerminal reports whether no further transitions are allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether the status machine allows moving to next.
// PLACED -> CONFIRMED -> SHIPPED -> DELIVERED, with CANCELLED reachable from
// any non-terminal state.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	switch s {
	case OrderStatusPlaced:
		return next == OrderStatusConfirmed
	case OrderStatusConfirmed:
		return next == OrderStatusShipped
	case OrderStatusShipped:
		return next == OrderStatusDelivered
	}
	return false
}

// ParseOrderStatus validates a status string from the boundary.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case OrderStatusPlaced, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return OrderStatus(s), nil
	}
	return "", NewDomainError(ErrCodeInvalidTransition, "Unknown order status: "+s)
}

// OrderChannel is the fulfilment path an order was confirmed through.
type OrderChannel string

const (
	// ChannelWeb is a direct storefront confirmation.
	ChannelWeb OrderChannel = "WEB"
	// ChannelWhatsAppHandoff commits the order identically to WEB but asks
	// the caller to render a pre-filled messaging handoff afterwards.
	ChannelWhatsAppHandoff OrderChannel = "WHATSAPP_HANDOFF"
)

// ParseOrderChannel validates a channel string from the boundary.
func ParseOrderChannel(s string) (OrderChannel, error) {
	switch OrderChannel(s) {
	case ChannelWeb, ChannelWhatsAppHandoff:
		return OrderChannel(s), nil
	}
	return "", ErrInvalidChannel
}

// OrderClient is the customer contact captured at checkout.
type OrderClient struct {
	Name    string `json:"name" db:"client_name"`
	Phone   string `json:"phone" db:"client_phone"`
	Address string `json:"address" db:"client_address"`
	Email   string `json:"email,omitempty" db:"client_email"`
}

// Order is the immutable result of checkout. All money fields and item
// details are snapshotted at creation; later catalog changes never affect a
// placed order.
type Order struct {
	ID                    uuid.UUID    `json:"id" db:"id"`
	OrderNumber           string       `json:"orderNumber" db:"order_number"`
	IdempotencyKey        string       `json:"-" db:"idempotency_key"`
	Client                OrderClient  `json:"client"`
	Items                 []OrderItem  `json:"items"`
	DeliveryZoneID        string       `json:"deliveryZoneId" db:"delivery_zone_id"`
	DeliveryAddressDetail string       `json:"deliveryAddressDetail" db:"delivery_address_detail"`
	Channel               OrderChannel `json:"channel" db:"channel"`
	SubtotalCents         int64        `json:"subtotalCents" db:"subtotal_cents"`
	DeliveryFeeCents      int64        `json:"deliveryFeeCents" db:"delivery_fee_cents"`
	TotalCents            int64        `json:"totalCents" db:"total_cents"`
	Status                OrderStatus  `json:"status" db:"status"`
	CreatedAt             time.Time    `json:"createdAt" db:"created_at"`
}

// OrderItem is a snapshot copy of a cart line at placement time.
type OrderItem struct {
	ID             uuid.UUID `json:"-" db:"id"`
	OrderID        uuid.UUID `json:"-" db:"order_id"`
	ProductID      string    `json:"productId" db:"product_id"`
	ProductName    string    `json:"productName" db:"product_name"`
	Quantity       int       `json:"quantity" db:"quantity"`
	UnitPriceCents int64     `json:"unitPriceCents" db:"unit_price_cents"`
}

// LineTotalCents is quantity times the snapshotted unit price.
func (i OrderItem) LineTotalCents() int64 {
	return int64(i.Quantity) * i.UnitPriceCents
}
