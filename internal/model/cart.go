package model

import (
	"time"

	"github.com/google/uuid"
)

// CartStatus tracks the lifecycle of a shopping session.
type CartStatus string

const (
	CartStatusOpen      CartStatus = "OPEN"
	CartStatusConverted CartStatus = "CONVERTED"
	CartStatusAbandoned CartStatus = "ABANDONED"
)

// IsOpen reports whether the cart still accepts mutations.
func (s CartStatus) IsOpen() bool {
	return s == CartStatusOpen
}

// Cart represents one in-progress shopping session, correlated by a
// client-held opaque token. A token maps to at most one OPEN cart.
type Cart struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Token     string     `json:"token" db:"token"`
	Status    CartStatus `json:"status" db:"status"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
}

// ItemByProduct returns the line for a product, or nil if absent.
func (c *Cart) ItemByProduct(productID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// ItemByID returns the line with the given id, or nil if absent.
func (c *Cart) ItemByID(itemID uuid.UUID) *CartItem {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}

// CartItem is one product line within a cart. The unit price is snapshotted
// at add-time and never re-fetched implicitly.
type CartItem struct {
	ID             uuid.UUID `json:"id" db:"id"`
	CartID         uuid.UUID `json:"-" db:"cart_id"`
	ProductID      string    `json:"productId" db:"product_id"`
	Quantity       int       `json:"quantity" db:"quantity"`
	UnitPriceCents int64     `json:"unitPriceCents" db:"unit_price_cents"`
}

// LineTotalCents is quantity times the snapshotted unit price.
func (i CartItem) LineTotalCents() int64 {
	return int64(i.Quantity) * i.UnitPriceCents
}
