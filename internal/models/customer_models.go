package models

import "time"

// Customer represents a registered customer account.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	Address   *string   `json:"address,omitempty" db:"address"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CustomerRef is the slim customer projection embedded in sale responses.
type CustomerRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CustomerFilters defines the available filters for querying customers.
type CustomerFilters struct {
	Search   *string `form:"search"`
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`
}
