package service

import (
	"context"
	"fmt"
	"time"

	"tiendita/internal/model"
	"tiendita/internal/pricing"
	"tiendita/internal/repository"
	"tiendita/internal/stock"
	"tiendita/internal/zone"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// cartService implements CartService.
type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	guard       stock.Guard
	zones       zone.Catalog
	logger      zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	guard stock.Guard,
	zones zone.Catalog,
	logger zerolog.Logger,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		guard:       guard,
		zones:       zones,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

// AddItem adds a product to the token's cart, lazily creating the cart on
// first add. Create-and-add run server-side as one operation so the client
// never issues a create call that could race or partially fail.
func (s *cartService) AddItem(ctx context.Context, token, productID string, quantity int) (*model.Cart, error) {
	if quantity < 1 {
		return nil, model.ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to add item: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	cart, err := s.cartRepo.GetOrCreate(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to add item: %w", err)
	}

	// The stock check covers the prospective total for the line, not just
	// the increment, so repeated adds cannot creep past availability.
	prospective := quantity
	if existing := cart.ItemByProduct(productID); existing != nil {
		prospective += existing.Quantity
	}

	if err := s.guard.CheckAvailable(ctx, productID, prospective); err != nil {
		s.logger.Debug().
			Str("cart_id", cart.ID.String()).
			Str("product_id", productID).
			Int("prospective", prospective).
			Err(err).
			Msg("add item rejected by stock guard")
		return nil, err
	}

	updated, err := s.cartRepo.AddItem(ctx, cart.ID, productID, quantity, product.PriceCents)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("cart_id", updated.ID.String()).
		Str("product_id", productID).
		Int("quantity", quantity).
		Msg("item added to cart")

	return updated, nil
}

// UpdateItem replaces a line's quantity. Zero removes the line.
func (s *cartService) UpdateItem(ctx context.Context, token string, itemID uuid.UUID, quantity int) (*model.Cart, error) {
	if quantity < 0 {
		return nil, model.ErrInvalidQuantity
	}

	cart, err := s.openCart(ctx, token)
	if err != nil {
		return nil, err
	}

	if quantity == 0 {
		return s.cartRepo.RemoveItem(ctx, cart.ID, itemID)
	}

	item := cart.ItemByID(itemID)
	if item == nil {
		return nil, model.ErrItemNotFound
	}

	if err := s.guard.CheckAvailable(ctx, item.ProductID, quantity); err != nil {
		s.logger.Debug().
			Str("cart_id", cart.ID.String()).
			Str("product_id", item.ProductID).
			Int("quantity", quantity).
			Err(err).
			Msg("quantity update rejected by stock guard")
		return nil, err
	}

	return s.cartRepo.SetItemQuantity(ctx, cart.ID, itemID, quantity)
}

// RemoveItem deletes a line; removing an absent line succeeds, so the client
// can issue removes optimistically and retry without false failures.
func (s *cartService) RemoveItem(ctx context.Context, token string, itemID uuid.UUID) (*model.Cart, error) {
	cart, err := s.openCart(ctx, token)
	if err != nil {
		return nil, err
	}

	return s.cartRepo.RemoveItem(ctx, cart.ID, itemID)
}

// Clear removes all lines, leaving the cart open.
func (s *cartService) Clear(ctx context.Context, token string) (*model.Cart, error) {
	cart, err := s.openCart(ctx, token)
	if err != nil {
		return nil, err
	}

	return s.cartRepo.Clear(ctx, cart.ID)
}

// Get retrieves the token's open cart.
func (s *cartService) Get(ctx context.Context, token string) (*model.Cart, error) {
	return s.openCart(ctx, token)
}

// Quote prices the cart against a delivery zone.
func (s *cartService) Quote(ctx context.Context, token, zoneID string) (*pricing.Quote, error) {
	cart, err := s.openCart(ctx, token)
	if err != nil {
		return nil, err
	}

	var deliveryZone *model.DeliveryZone
	if zoneID != "" {
		z, ok := s.zones.Get(zoneID)
		if !ok {
			return nil, model.ErrZoneNotFound
		}
		deliveryZone = z
	}

	quote := pricing.NewQuote(cart.Items, deliveryZone)
	return &quote, nil
}

// AbandonStale marks carts untouched for the given window as ABANDONED.
func (s *cartService) AbandonStale(ctx context.Context, window time.Duration) (int64, error) {
	cutoff := time.Now().Add(-window)

	count, err := s.cartRepo.MarkAbandonedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to abandon stale carts: %w", err)
	}

	s.logger.Info().
		Int64("count", count).
		Dur("window", window).
		Msg("stale carts abandoned")

	return count, nil
}

// openCart resolves a token to its OPEN cart.
func (s *cartService) openCart(ctx context.Context, token string) (*model.Cart, error) {
	if token == "" {
		return nil, model.ErrCartNotFound
	}

	cart, err := s.cartRepo.GetOpenByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart == nil {
		return nil, model.ErrCartNotFound
	}

	return cart, nil
}
