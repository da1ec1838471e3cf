package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kiosk order lifecycle. "pending" is the only non-terminal state; the
// two terminal states are "confirmed" and "cancelled". A denied order is
// stored as cancelled rather than deleted, preserving auditability.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusCancelled = "cancelled"
)

// KioskOrder is an order submitted from the self-service kiosk. It has a
// lifecycle distinct from Sale: dashboards watch the pending queue and
// route each order to a terminal state exactly once.
type KioskOrder struct {
	ID           string           `json:"id"`
	Code         string           `json:"code" db:"code"`
	Status       string           `json:"status" db:"status"`
	Total        decimal.Decimal  `json:"total" db:"total"`
	TableTag     *string          `json:"table,omitempty" db:"table_tag"`
	CustomerName *string          `json:"customer_name,omitempty" db:"customer_name"`
	Lines        []KioskOrderLine `json:"lines"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
}

// Terminal reports whether the order has left the pending queue.
func (o *KioskOrder) Terminal() bool {
	return o.Status == OrderStatusConfirmed || o.Status == OrderStatusCancelled
}

// KioskOrderLine is one line of a kiosk order. Lines are descriptive
// snapshots (name + price at submission time), not catalog references.
type KioskOrderLine struct {
	ID        int64           `json:"id"`
	OrderID   string          `json:"order_id" db:"order_id"`
	Name      string          `json:"name" db:"name"`
	UnitPrice decimal.Decimal `json:"price" db:"unit_price"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Notes     *string         `json:"notes,omitempty" db:"notes"`
}
