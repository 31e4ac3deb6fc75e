package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"tiendita/internal/model"
	"tiendita/internal/pricing"
	"tiendita/internal/repository"
	"tiendita/internal/zone"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo      repository.OrderRepository
	cartRepo       repository.CartRepository
	productRepo    repository.ProductRepository
	zones          zone.Catalog
	whatsAppNumber string
	logger         zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	zones zone.Catalog,
	whatsAppNumber string,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:      orderRepo,
		cartRepo:       cartRepo,
		productRepo:    productRepo,
		zones:          zones,
		whatsAppNumber: whatsAppNumber,
		logger:         logger.With().Str("service", "order").Logger(),
	}
}

// Place atomically converts a cart into an order. Everything is validated
// before the first write, so a failure never leaves stock decremented
// without an order or an order without decremented stock.
func (s *orderService) Place(ctx context.Context, req *model.PlaceOrderRequest) (*model.PlacementResult, error) {
	channel, err := s.validatePlaceRequest(req)
	if err != nil {
		return nil, err
	}

	// A retried checkout with the same key returns the already committed
	// order instead of double-ordering.
	if req.IdempotencyKey != "" {
		existing, err := s.orderRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("failed to check idempotency key: %w", err)
		}
		if existing != nil {
			s.logger.Info().
				Str("order_id", existing.ID.String()).
				Str("idempotency_key", req.IdempotencyKey).
				Msg("placement replayed, returning existing order")
			return s.placementResult(existing, true), nil
		}
	}

	deliveryZone, ok := s.zones.Get(req.DeliveryZoneID)
	if !ok {
		return nil, model.ErrZoneNotFound
	}

	cart, err := s.cartRepo.GetOpenByToken(ctx, req.CartToken)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart == nil {
		return nil, model.ErrCartNotFound
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	// Re-read under the cart row lock; the pre-read above was only to
	// resolve the token cheaply.
	cart, err = s.cartRepo.GetForUpdate(ctx, tx, cart.ID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		err = model.ErrCartNotFound
		return nil, err
	}
	if !cart.Status.IsOpen() {
		err = model.ErrCartClosed
		return nil, err
	}
	if len(cart.Items) == 0 {
		err = model.ErrEmptyCart
		return nil, err
	}

	// Authoritative stock check under product row locks. This is the check
	// that matters: stock may have shrunk since the client's last view, and
	// quantities are never clamped to what remains.
	products, err := s.lockAndCheckStock(ctx, tx, cart)
	if err != nil {
		return nil, err
	}

	quote := pricing.NewQuote(cart.Items, deliveryZone)

	now := time.Now()
	order := &model.Order{
		ID:                    uuid.New(),
		OrderNumber:           newOrderNumber(now),
		IdempotencyKey:        req.IdempotencyKey,
		Client:                req.Client,
		DeliveryZoneID:        deliveryZone.ID,
		DeliveryAddressDetail: req.DeliveryAddressDetail,
		Channel:               channel,
		SubtotalCents:         quote.SubtotalCents,
		DeliveryFeeCents:      quote.DeliveryFeeCents,
		TotalCents:            quote.TotalCents,
		Status:                model.OrderStatusPlaced,
		CreatedAt:             now,
	}

	items := make([]model.OrderItem, len(cart.Items))
	for i, line := range cart.Items {
		items[i] = model.OrderItem{
			ID:             uuid.New(),
			OrderID:        order.ID,
			ProductID:      line.ProductID,
			ProductName:    products[line.ProductID].Name,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
		}
	}
	order.Items = items

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		// A concurrent retry with the same idempotency key may have won the
		// race after our pre-check; hand back its order.
		if req.IdempotencyKey != "" && isUniqueViolation(err) {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
			existing, lookupErr := s.orderRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
			if lookupErr == nil && existing != nil {
				err = nil
				return s.placementResult(existing, true), nil
			}
		}
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Int("item_count", len(items)).
			Msg("failed to create order items")
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	for _, line := range cart.Items {
		if err = s.productRepo.DecrementStock(ctx, tx, line.ProductID, line.Quantity); err != nil {
			return nil, fmt.Errorf("failed to place order: %w", err)
		}
	}

	if err = s.cartRepo.MarkConverted(ctx, tx, cart.ID); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Str("cart_id", cart.ID.String()).
		Str("channel", string(channel)).
		Int64("total_cents", order.TotalCents).
		Msg("order placed")

	return s.placementResult(order, false), nil
}

// GetByID retrieves an order with its item snapshots.
func (s *orderService) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

// UpdateStatus moves an order along its status machine.
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, next model.OrderStatus) (*model.Order, error) {
	order, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(next) {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("from", string(order.Status)).
			Str("to", string(next)).
			Msg("rejected order status transition")
		return nil, model.ErrInvalidTransition
	}

	moved, err := s.orderRepo.UpdateStatus(ctx, id, order.Status, next)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	if !moved {
		// A concurrent transition won; the stored status is no longer what
		// the caller saw.
		return nil, model.ErrInvalidTransition
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Str("from", string(order.Status)).
		Str("to", string(next)).
		Msg("order status updated")

	order.Status = next
	return order, nil
}

// lockAndCheckStock locks every product row referenced by the cart (in
// stable id order, so concurrent placements cannot deadlock) and verifies
// each line against the stock observed under the lock.
func (s *orderService) lockAndCheckStock(ctx context.Context, tx pgx.Tx, cart *model.Cart) (map[string]*model.Product, error) {
	quantities := make(map[string]int, len(cart.Items))
	ids := make([]string, 0, len(cart.Items))
	for _, line := range cart.Items {
		quantities[line.ProductID] = line.Quantity
		ids = append(ids, line.ProductID)
	}
	sort.Strings(ids)

	products := make(map[string]*model.Product, len(ids))
	for _, id := range ids {
		product, err := s.productRepo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to place order: %w", err)
		}
		if product == nil {
			return nil, model.ErrProductNotFound
		}
		if quantities[id] > product.Stock {
			s.logger.Warn().
				Str("product_id", id).
				Int("requested", quantities[id]).
				Int("available", product.Stock).
				Msg("placement rejected, insufficient stock")
			return nil, &model.InsufficientStockError{
				ProductID: id,
				Requested: quantities[id],
				Available: product.Stock,
			}
		}
		products[id] = product
	}

	return products, nil
}

// validatePlaceRequest rejects malformed requests before any storage access.
func (s *orderService) validatePlaceRequest(req *model.PlaceOrderRequest) (model.OrderChannel, error) {
	if req == nil {
		return "", model.NewDomainError(model.ErrCodeMissingField, "Request body is required")
	}
	if req.CartToken == "" {
		return "", model.NewDomainError(model.ErrCodeMissingField, "Cart token is required")
	}
	if req.Client.Name == "" {
		return "", model.NewDomainError(model.ErrCodeMissingField, "Client name is required")
	}
	if req.Client.Phone == "" {
		return "", model.NewDomainError(model.ErrCodeMissingField, "Client phone is required")
	}
	if req.Client.Address == "" {
		return "", model.NewDomainError(model.ErrCodeMissingField, "Client address is required")
	}
	if req.DeliveryZoneID == "" {
		return "", model.NewDomainError(model.ErrCodeMissingField, "Delivery zone is required")
	}

	return model.ParseOrderChannel(req.Channel)
}

// placementResult wraps an order, attaching the handoff link when the
// channel asks for one.
func (s *orderService) placementResult(order *model.Order, duplicate bool) *model.PlacementResult {
	result := &model.PlacementResult{
		Order:     order,
		Duplicate: duplicate,
	}
	if order.Channel == model.ChannelWhatsAppHandoff {
		result.WhatsAppLink = BuildWhatsAppLink(s.whatsAppNumber, order)
	}
	return result
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

const orderRefAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// newOrderNumber builds a human-facing reference like TD-20260901-K7M2Q.
// The random suffix keeps order volume unguessable from the number alone.
func newOrderNumber(now time.Time) string {
	ref := make([]byte, 5)
	max := big.NewInt(int64(len(orderRefAlphabet)))
	for i := range ref {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform source is broken;
			// fall back to a time-derived index rather than aborting checkout.
			ref[i] = orderRefAlphabet[now.UnixNano()%int64(len(orderRefAlphabet))]
			continue
		}
		ref[i] = orderRefAlphabet[n.Int64()]
	}
	return fmt.Sprintf("TD-%s-%s", now.Format("20060102"), ref)
}
