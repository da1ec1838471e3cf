package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog item with SKU-tracked inventory.
// Stock is never negative; it is mutated only through the inventory
// ledger's reserve/release operations.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name" db:"name"`
	Description *string         `json:"description,omitempty" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	SKU         string          `json:"sku" db:"sku"`
	Category    *string         `json:"category,omitempty" db:"category"`
	Stock       int             `json:"stock" db:"stock"`
	// AvailableDays is opaque kiosk scheduling configuration; the backend
	// stores and returns it untouched.
	AvailableDays json.RawMessage `json:"available_days,omitempty" db:"available_days"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// ProductRef is the slim product projection embedded in sale line responses.
type ProductRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	SKU  string `json:"sku"`
}

// ProductFilters defines the available filters for querying products.
type ProductFilters struct {
	Search   *string `form:"search"`
	Category *string `form:"category"`
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`
}
