package repository

import (
	"context"
	"time"

	"tiendita/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository defines the interface for catalog and stock data access.
type ProductRepository interface {
	// GetByID retrieves a single product by its ID. Returns nil if absent.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// GetForUpdate retrieves a product inside a transaction with its row
	// locked, so stock checks and decrements cannot race.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*model.Product, error)

	// DecrementStock reduces a product's stock within the provided
	// transaction. The caller must have validated availability under lock.
	DecrementStock(ctx context.Context, tx pgx.Tx, id string, quantity int) error
}

// CartRepository defines the interface for cart data access. All mutating
// operations serialize per cart by locking the cart row for the duration of
// the operation, and fail with model.ErrCartClosed once the cart has left
// the OPEN state.
type CartRepository interface {
	// GetOrCreate returns the existing OPEN cart for the token or atomically
	// creates one. Concurrent first adds for the same token converge on a
	// single cart.
	GetOrCreate(ctx context.Context, token string) (*model.Cart, error)

	// Get retrieves a cart with its items. Returns nil if absent.
	Get(ctx context.Context, id uuid.UUID) (*model.Cart, error)

	// GetOpenByToken retrieves the OPEN cart for a token. Returns nil if absent.
	GetOpenByToken(ctx context.Context, token string) (*model.Cart, error)

	// AddItem appends a line with a price snapshot, or increments the
	// quantity of the existing line for the product.
	AddItem(ctx context.Context, cartID uuid.UUID, productID string, quantity int, unitPriceCents int64) (*model.Cart, error)

	// SetItemQuantity replaces a line's quantity. Quantity 0 removes the line.
	SetItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (*model.Cart, error)

	// RemoveItem deletes a line. Removing an absent line is not an error.
	RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (*model.Cart, error)

	// Clear removes all lines; the cart stays OPEN.
	Clear(ctx context.Context, cartID uuid.UUID) (*model.Cart, error)

	// GetForUpdate retrieves a cart with its items inside a transaction with
	// the cart row locked.
	GetForUpdate(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) (*model.Cart, error)

	// MarkConverted transitions an OPEN cart to CONVERTED within the
	// provided transaction.
	MarkConverted(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) error

	// MarkAbandonedBefore flips OPEN carts untouched since the cutoff to
	// ABANDONED and returns how many were affected. Reporting only; carts
	// are never deleted.
	MarkAbandonedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts the order's item snapshots within the
	// provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order with its items. Returns nil if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// GetByIdempotencyKey retrieves the order committed under a checkout
	// idempotency key. Returns nil if absent.
	GetByIdempotencyKey(ctx context.Context, key string) (*model.Order, error)

	// UpdateStatus moves an order from one status to another. Returns false
	// when the order was not in the expected current status.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) (bool, error)
}
