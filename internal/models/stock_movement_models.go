package models

import "time"

// Stock movement types recorded by the inventory ledger.
const (
	MovementTypeSale       = "sale"       // reservation committed by a sale
	MovementTypeRelease    = "release"    // compensating return of a reservation
	MovementTypeRestock    = "restock"    // manual replenishment
	MovementTypeAdjustment = "adjustment" // manual correction (loss, damage, recount)
)

// StockMovement is the audit record written alongside every stock change.
// QuantityChanged is negative for decrements and positive for returns.
type StockMovement struct {
	ID              int64     `json:"id"`
	ProductID       int64     `json:"product_id" db:"product_id"`
	UserID          *int64    `json:"user_id,omitempty" db:"user_id"`
	MovementType    string    `json:"movement_type" db:"movement_type"`
	QuantityChanged int       `json:"quantity_changed" db:"quantity_changed"`
	Reason          *string   `json:"reason,omitempty" db:"reason"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`

	Product *ProductRef `json:"product,omitempty"`
}

// StockMovementFilters defines the available filters for querying movements.
type StockMovementFilters struct {
	ProductID    *int64  `form:"product_id"`
	MovementType *string `form:"movement_type"`
	Page         int     `form:"page"`
	PageSize     int     `form:"page_size"`
}
