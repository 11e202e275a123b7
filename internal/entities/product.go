package entities

import "time"

// Product — инвентарная проекция товара каталога.
// Stock меняется только условным декрементом/инкрементом.
type Product struct {
	ProductID string
	Title     string
	Price     float64
	Stock     int

	CreatedAt time.Time
	UpdatedAt time.Time
}
