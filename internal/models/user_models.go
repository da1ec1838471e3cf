package models

import "time"

// Role names recognized by the access guard.
const (
	RoleAdmin   = "ADMIN"
	RoleCashier = "CASHIER"
)

// User represents an operator account (cashier or admin).
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // '-' means never sent in JSON responses
	Role         string    `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// UserRef is the slim user projection embedded in sale responses.
type UserRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
