package repository

import (
	"context"
	"fmt"
	"time"

	"tiendita/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// rowQuerier is the subset of pgx query methods shared by pools and
// transactions, so cart loading works in both contexts.
type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// cartRepository implements the CartRepository interface using PostgreSQL.
type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

// GetOrCreate returns the existing OPEN cart for the token or atomically
// creates one. The partial unique index on (token) WHERE status = 'OPEN'
// makes the insert race-free: the loser of a concurrent first add observes
// the winner's cart instead of creating a second one.
func (r *cartRepository) GetOrCreate(ctx context.Context, token string) (*model.Cart, error) {
	insertQuery := `
		INSERT INTO carts (id, token, status, created_at, updated_at)
		VALUES ($1, $2, 'OPEN', $3, $3)
		ON CONFLICT (token) WHERE status = 'OPEN' DO NOTHING
	`

	// A freshly converted cart can vanish between the conflicting insert and
	// the read; retry the pair rather than surface a spurious failure.
	for attempt := 0; attempt < 3; attempt++ {
		now := time.Now()
		_, err := r.pool.Exec(ctx, insertQuery, uuid.New(), token, now)
		if err != nil {
			r.logger.Error().Err(err).Str("token", token).Msg("failed to create cart")
			return nil, fmt.Errorf("failed to create cart: %w", err)
		}

		cart, err := r.GetOpenByToken(ctx, token)
		if err != nil {
			return nil, err
		}
		if cart != nil {
			return cart, nil
		}
	}

	return nil, fmt.Errorf("failed to create cart for token after retries")
}

// Get retrieves a cart with its items.
func (r *cartRepository) Get(ctx context.Context, id uuid.UUID) (*model.Cart, error) {
	query := `
		SELECT id, token, status, created_at, updated_at
		FROM carts
		WHERE id = $1
	`
	return r.loadCart(ctx, r.pool, query, id)
}

// GetOpenByToken retrieves the OPEN cart for a token.
func (r *cartRepository) GetOpenByToken(ctx context.Context, token string) (*model.Cart, error) {
	query := `
		SELECT id, token, status, created_at, updated_at
		FROM carts
		WHERE token = $1 AND status = 'OPEN'
	`
	return r.loadCart(ctx, r.pool, query, token)
}

// GetForUpdate retrieves a cart with the cart row locked inside the transaction.
func (r *cartRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) (*model.Cart, error) {
	query := `
		SELECT id, token, status, created_at, updated_at
		FROM carts
		WHERE id = $1
		FOR UPDATE
	`
	return r.loadCart(ctx, tx, query, cartID)
}

// AddItem appends a line with a price snapshot, or increments the quantity
// of the existing line for the product.
func (r *cartRepository) AddItem(ctx context.Context, cartID uuid.UUID, productID string, quantity int, unitPriceCents int64) (*model.Cart, error) {
	if quantity < 1 {
		return nil, model.ErrInvalidQuantity
	}

	return r.mutate(ctx, cartID, func(tx pgx.Tx) error {
		// The unit price snapshot is only taken when the line is first
		// inserted; increments keep the price the customer already saw.
		query := `
			INSERT INTO cart_items (id, cart_id, product_id, quantity, unit_price_cents)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (cart_id, product_id)
			DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		`
		_, err := tx.Exec(ctx, query, uuid.New(), cartID, productID, quantity, unitPriceCents)
		if err != nil {
			return fmt.Errorf("failed to add cart item: %w", err)
		}
		return nil
	})
}

// SetItemQuantity replaces a line's quantity. Quantity 0 removes the line.
func (r *cartRepository) SetItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (*model.Cart, error) {
	if quantity < 0 {
		return nil, model.ErrInvalidQuantity
	}

	if quantity == 0 {
		return r.RemoveItem(ctx, cartID, itemID)
	}

	return r.mutate(ctx, cartID, func(tx pgx.Tx) error {
		query := `
			UPDATE cart_items
			SET quantity = $3
			WHERE cart_id = $1 AND id = $2
		`
		tag, err := tx.Exec(ctx, query, cartID, itemID, quantity)
		if err != nil {
			return fmt.Errorf("failed to update cart item: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return model.ErrItemNotFound
		}
		return nil
	})
}

// RemoveItem deletes a line. Removing an absent line is not an error, so
// optimistic removes from the client can be retried safely.
func (r *cartRepository) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (*model.Cart, error) {
	return r.mutate(ctx, cartID, func(tx pgx.Tx) error {
		query := `
			DELETE FROM cart_items
			WHERE cart_id = $1 AND id = $2
		`
		_, err := tx.Exec(ctx, query, cartID, itemID)
		if err != nil {
			return fmt.Errorf("failed to remove cart item: %w", err)
		}
		return nil
	})
}

// Clear removes all lines; the cart stays OPEN.
func (r *cartRepository) Clear(ctx context.Context, cartID uuid.UUID) (*model.Cart, error) {
	return r.mutate(ctx, cartID, func(tx pgx.Tx) error {
		query := `
			DELETE FROM cart_items
			WHERE cart_id = $1
		`
		_, err := tx.Exec(ctx, query, cartID)
		if err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		return nil
	})
}

// MarkConverted transitions an OPEN cart to CONVERTED within the provided
// transaction. The caller holds the cart row lock via GetForUpdate.
func (r *cartRepository) MarkConverted(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) error {
	query := `
		UPDATE carts
		SET status = 'CONVERTED', updated_at = $2
		WHERE id = $1 AND status = 'OPEN'
	`

	tag, err := tx.Exec(ctx, query, cartID, time.Now())
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to convert cart")
		return fmt.Errorf("failed to convert cart: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCartClosed
	}

	return nil
}

// MarkAbandonedBefore flips OPEN carts untouched since the cutoff to ABANDONED.
func (r *cartRepository) MarkAbandonedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE carts
		SET status = 'ABANDONED', updated_at = $2
		WHERE status = 'OPEN' AND updated_at < $1
	`

	tag, err := r.pool.Exec(ctx, query, cutoff, time.Now())
	if err != nil {
		r.logger.Error().Err(err).Time("cutoff", cutoff).Msg("failed to mark carts abandoned")
		return 0, fmt.Errorf("failed to mark carts abandoned: %w", err)
	}

	r.logger.Info().
		Int64("count", tag.RowsAffected()).
		Time("cutoff", cutoff).
		Msg("stale carts marked abandoned")

	return tag.RowsAffected(), nil
}

// mutate runs fn against an OPEN cart with its row locked, bumps updated_at
// and returns the reloaded cart. Per-cart serialization happens here: two
// concurrent writers on the same cart queue on the row lock, so the second
// always observes the first's effect.
func (r *cartRepository) mutate(ctx context.Context, cartID uuid.UUID, fn func(tx pgx.Tx) error) (*model.Cart, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	cart, err := r.GetForUpdate(ctx, tx, cartID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, model.ErrCartNotFound
	}
	if !cart.Status.IsOpen() {
		return nil, model.ErrCartClosed
	}

	if err := fn(tx); err != nil {
		return nil, err
	}

	touchQuery := `
		UPDATE carts
		SET updated_at = $2
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, touchQuery, cartID, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to touch cart: %w", err)
	}

	updated, err := r.GetForUpdate(ctx, tx, cartID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to commit cart mutation")
		return nil, fmt.Errorf("failed to commit cart mutation: %w", err)
	}

	return updated, nil
}

// loadCart fetches one cart row with the given query, then its items in
// insertion order.
func (r *cartRepository) loadCart(ctx context.Context, q rowQuerier, query string, arg any) (*model.Cart, error) {
	var cart model.Cart
	err := q.QueryRow(ctx, query, arg).Scan(
		&cart.ID,
		&cart.Token,
		&cart.Status,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query cart")
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}

	itemsQuery := `
		SELECT id, cart_id, product_id, quantity, unit_price_cents
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY position
	`

	rows, err := q.Query(ctx, itemsQuery, cart.ID)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", cart.ID.String()).Msg("failed to query cart items")
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	items := []model.CartItem{}
	for rows.Next() {
		var item model.CartItem
		err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.UnitPriceCents)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan cart item row")
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating cart item rows")
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	cart.Items = items
	return &cart, nil
}
