// Package stock guards cart mutations and order placement against
// overselling. The check here is advisory fast feedback for the UI; the
// authoritative check runs under a row lock inside the placement transaction.
package stock

import (
	"context"
	"fmt"

	"tiendita/internal/model"
	"tiendita/internal/repository"

	"github.com/rs/zerolog"
)

// Guard validates that a requested quantity does not exceed available stock.
type Guard interface {
	// CheckAvailable returns nil when the product has at least the requested
	// quantity in stock, *model.InsufficientStockError otherwise.
	CheckAvailable(ctx context.Context, productID string, requested int) error
}

type guard struct {
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewGuard creates a stock guard backed by the product repository.
func NewGuard(productRepo repository.ProductRepository, logger zerolog.Logger) Guard {
	return &guard{
		productRepo: productRepo,
		logger:      logger.With().Str("component", "stock-guard").Logger(),
	}
}

func (g *guard) CheckAvailable(ctx context.Context, productID string, requested int) error {
	if requested < 1 {
		return model.ErrInvalidQuantity
	}

	product, err := g.productRepo.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to check stock for product %s: %w", productID, err)
	}
	if product == nil {
		return model.ErrProductNotFound
	}

	if requested > product.Stock {
		g.logger.Debug().
			Str("product_id", productID).
			Int("requested", requested).
			Int("available", product.Stock).
			Msg("stock check failed")
		return &model.InsufficientStockError{
			ProductID: productID,
			Requested: requested,
			Available: product.Stock,
		}
	}

	return nil
}
