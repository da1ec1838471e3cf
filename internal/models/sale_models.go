package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale statuses. A freshly committed sale is COMPLETED; the remaining
// statuses exist for admin overrides (refunds, voided tickets).
const (
	SaleStatusPending   = "PENDING"
	SaleStatusCompleted = "COMPLETED"
	SaleStatusCancelled = "CANCELLED"
	SaleStatusRefunded  = "REFUNDED"
)

// Sale is a committed transaction: header amounts plus its ordered line
// items. Created atomically with its items and the corresponding stock
// decrements; never partially persisted.
// Invariant: Total = Subtotal - Discount + Tax.
type Sale struct {
	ID            string          `json:"id"`
	CustomerID    *int64          `json:"customer_id,omitempty" db:"customer_id"`
	UserID        int64           `json:"user_id" db:"user_id"`
	Subtotal      decimal.Decimal `json:"subtotal" db:"subtotal"`
	Discount      decimal.Decimal `json:"discount" db:"discount"`
	Tax           decimal.Decimal `json:"tax" db:"tax"`
	Total         decimal.Decimal `json:"total" db:"total"`
	PaymentMethod string          `json:"payment_method" db:"payment_method"`
	Status        string          `json:"status" db:"status"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`

	Customer *CustomerRef `json:"customer,omitempty"`
	User     *UserRef     `json:"user,omitempty"`
	Items    []SaleItem   `json:"items"`
}

// SaleItem is one committed line of a sale. ProductID is nil for custom
// (non-catalog) lines, which carry only a display name and declared price.
type SaleItem struct {
	ID        int64           `json:"id"`
	SaleID    string          `json:"sale_id" db:"sale_id"`
	ProductID *int64          `json:"product_id,omitempty" db:"product_id"`
	Name      string          `json:"name" db:"name"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"price" db:"unit_price"`
	Total     decimal.Decimal `json:"total" db:"total"`

	Product *ProductRef `json:"product,omitempty"`
}

// SaleFilters defines the available filters for querying sales.
type SaleFilters struct {
	CustomerID *int64
	StartDate  *time.Time
	EndDate    *time.Time
	Page       int
	PageSize   int
}

// SaleStats aggregates COMPLETED sales for the dashboard reporting view.
type SaleStats struct {
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	TotalTransactions int             `json:"totalTransactions"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
	TopProducts       []TopProduct    `json:"topProducts"`
}

// TopProduct is one entry of the top-sellers ranking, ordered by revenue.
type TopProduct struct {
	Product       ProductRef      `json:"product"`
	TotalQuantity int             `json:"totalQuantity"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
}
