package service

import (
	"context"
	"time"

	"tiendita/internal/model"
	"tiendita/internal/pricing"

	"github.com/google/uuid"
)

// CartService defines operations on anonymous, token-identified carts. The
// token is a bearer capability: whoever holds it can mutate the cart.
type CartService interface {
	// AddItem adds a product to the token's cart, lazily creating the cart
	// on first add. The unit price is snapshotted at this moment.
	AddItem(ctx context.Context, token, productID string, quantity int) (*model.Cart, error)

	// UpdateItem replaces a line's quantity. Zero removes the line.
	UpdateItem(ctx context.Context, token string, itemID uuid.UUID, quantity int) (*model.Cart, error)

	// RemoveItem deletes a line; removing an absent line succeeds.
	RemoveItem(ctx context.Context, token string, itemID uuid.UUID) (*model.Cart, error)

	// Clear removes all lines, leaving the cart open.
	Clear(ctx context.Context, token string) (*model.Cart, error)

	// Get retrieves the token's open cart.
	Get(ctx context.Context, token string) (*model.Cart, error)

	// Quote prices the cart against a delivery zone. An empty zoneID yields
	// a quote with ZoneSelected false rather than assuming free delivery.
	Quote(ctx context.Context, token, zoneID string) (*pricing.Quote, error)

	// AbandonStale marks carts untouched for the given window as ABANDONED.
	// Feeds reporting only; never runs on the request path.
	AbandonStale(ctx context.Context, window time.Duration) (int64, error)
}

// OrderService defines checkout and order management operations.
type OrderService interface {
	// Place atomically converts a cart into an order: authoritative stock
	// check, order + item snapshots, stock decrement and cart conversion all
	// commit together or not at all.
	Place(ctx context.Context, req *model.PlaceOrderRequest) (*model.PlacementResult, error)

	// GetByID retrieves an order with its item snapshots.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// UpdateStatus moves an order along its status machine.
	UpdateStatus(ctx context.Context, id uuid.UUID, next model.OrderStatus) (*model.Order, error)
}
