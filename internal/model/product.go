package model

import "time"

// Product represents a catalogue entry with its current price and stock.
type Product struct {
	ID         string    `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	PriceCents int64     `json:"priceCents" db:"price_cents"`
	Stock      int       `json:"stock" db:"stock"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}
