package repository

import (
	"context"
	"fmt"

	"tiendita/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (
			id, order_number, idempotency_key,
			client_name, client_phone, client_address, client_email,
			delivery_zone_id, delivery_address_detail, channel,
			subtotal_cents, delivery_fee_cents, total_cents,
			status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	var idempotencyKey *string
	if order.IdempotencyKey != "" {
		idempotencyKey = &order.IdempotencyKey
	}

	var email *string
	if order.Client.Email != "" {
		email = &order.Client.Email
	}

	_, err := tx.Exec(ctx, query,
		order.ID, order.OrderNumber, idempotencyKey,
		order.Client.Name, order.Client.Phone, order.Client.Address, email,
		order.DeliveryZoneID, order.DeliveryAddressDetail, order.Channel,
		order.SubtotalCents, order.DeliveryFeeCents, order.TotalCents,
		order.Status, order.CreatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts the order's item snapshots within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, product_id, product_name, quantity, unit_price_cents)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, item.ID, item.OrderID, item.ProductID, item.ProductName, item.Quantity, item.UnitPriceCents)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Str("product_id", items[i].ProductID).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

// GetByID retrieves an order with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `
		SELECT id, order_number,
		       client_name, client_phone, client_address, client_email,
		       delivery_zone_id, delivery_address_detail, channel,
		       subtotal_cents, delivery_fee_cents, total_cents,
		       status, created_at
		FROM orders
		WHERE id = $1
	`
	return r.loadOrder(ctx, query, id)
}

// GetByIdempotencyKey retrieves the order committed under a checkout
// idempotency key.
func (r *orderRepository) GetByIdempotencyKey(ctx context.Context, key string) (*model.Order, error) {
	query := `
		SELECT id, order_number,
		       client_name, client_phone, client_address, client_email,
		       delivery_zone_id, delivery_address_detail, channel,
		       subtotal_cents, delivery_fee_cents, total_cents,
		       status, created_at
		FROM orders
		WHERE idempotency_key = $1
	`
	return r.loadOrder(ctx, query, key)
}

// UpdateStatus moves an order from one status to another. The WHERE guard on
// the current status makes concurrent transitions lose cleanly instead of
// overwriting each other.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) (bool, error) {
	query := `
		UPDATE orders
		SET status = $3
		WHERE id = $1 AND status = $2
	`

	tag, err := r.pool.Exec(ctx, query, id, from, to)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Str("from", string(from)).
			Str("to", string(to)).
			Msg("failed to update order status")
		return false, fmt.Errorf("failed to update order status: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// loadOrder fetches one order row with the given query, then its items.
func (r *orderRepository) loadOrder(ctx context.Context, query string, arg any) (*model.Order, error) {
	var order model.Order
	var email *string
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&order.ID, &order.OrderNumber,
		&order.Client.Name, &order.Client.Phone, &order.Client.Address, &email,
		&order.DeliveryZoneID, &order.DeliveryAddressDetail, &order.Channel,
		&order.SubtotalCents, &order.DeliveryFeeCents, &order.TotalCents,
		&order.Status, &order.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}
	if email != nil {
		order.Client.Email = *email
	}

	itemsQuery := `
		SELECT id, order_id, product_id, product_name, quantity, unit_price_cents
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, itemsQuery, order.ID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPriceCents)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	order.Items = items
	return &order, nil
}
