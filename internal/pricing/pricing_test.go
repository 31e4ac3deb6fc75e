package pricing

import (
	"testing"

	"tiendita/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func testItems() []model.CartItem {
	return []model.CartItem{
		{ID: uuid.New(), ProductID: "P001", Quantity: 2, UnitPriceCents: 1000},
		{ID: uuid.New(), ProductID: "P002", Quantity: 1, UnitPriceCents: 5000},
	}
}

func TestSubtotal(t *testing.T) {
	tests := []struct {
		name     string
		items    []model.CartItem
		expected int64
	}{
		{
			name:     "Empty cart",
			items:    nil,
			expected: 0,
		},
		{
			name:     "Single line",
			items:    []model.CartItem{{Quantity: 3, UnitPriceCents: 250}},
			expected: 750,
		},
		{
			name:     "Multiple lines",
			items:    testItems(),
			expected: 7000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Subtotal(tt.items))
		})
	}
}

func TestNewQuote_WithZone(t *testing.T) {
	zone := &model.DeliveryZone{ID: "centro", Name: "Centro", PriceCents: 1500}

	quote := NewQuote(testItems(), zone)

	assert.Equal(t, int64(7000), quote.SubtotalCents)
	assert.Equal(t, int64(1500), quote.DeliveryFeeCents)
	assert.Equal(t, int64(8500), quote.TotalCents)
	assert.True(t, quote.ZoneSelected)
}

func TestNewQuote_ZeroFeeZoneIsStillSelected(t *testing.T) {
	// Pickup-in-store has fee 0; that must not look like "no zone chosen".
	zone := &model.DeliveryZone{ID: "recoleccion", Name: "Recoleccion", PriceCents: 0}

	quote := NewQuote(testItems(), zone)

	assert.Equal(t, int64(0), quote.DeliveryFeeCents)
	assert.Equal(t, int64(7000), quote.TotalCents)
	assert.True(t, quote.ZoneSelected)
}

func TestNewQuote_NoZone(t *testing.T) {
	quote := NewQuote(testItems(), nil)

	assert.Equal(t, int64(7000), quote.SubtotalCents)
	assert.Equal(t, int64(0), quote.DeliveryFeeCents)
	assert.False(t, quote.ZoneSelected)
}

func TestNewQuote_Deterministic(t *testing.T) {
	items := testItems()
	zone := &model.DeliveryZone{ID: "norte", PriceCents: 2500}

	first := NewQuote(items, zone)
	second := NewQuote(items, zone)

	assert.Equal(t, first, second)
	assert.Equal(t, first.TotalCents, first.SubtotalCents+first.DeliveryFeeCents)
}
