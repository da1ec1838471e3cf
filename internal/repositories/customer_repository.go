package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"pos_kiosk_backend/internal/models"
)

// CustomerRepository defines the interface for customer data operations.
type CustomerRepository interface {
	Create(customer *models.Customer) (int64, error)
	GetByID(customerID int64) (*models.Customer, error)
	List(filters models.CustomerFilters) ([]models.Customer, int, error)
	Update(customer *models.Customer) error
	Delete(customerID int64) error
}

type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository creates a new instance of CustomerRepository.
func NewCustomerRepository(db *sql.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(customer *models.Customer) (int64, error) {
	query := `INSERT INTO customers (name, email, phone, address, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	now := time.Now()
	customer.CreatedAt = now
	customer.UpdatedAt = now

	err := r.db.QueryRow(query,
		customer.Name, customer.Email, customer.Phone, customer.Address, customer.CreatedAt, customer.UpdatedAt,
	).Scan(&customer.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: customer email %s already exists", ErrDuplicateKey, customer.Email)
		}
		return 0, fmt.Errorf("%w: creating customer: %v", ErrDatabaseError, err)
	}
	return customer.ID, nil
}

func (r *customerRepository) GetByID(customerID int64) (*models.Customer, error) {
	customer := &models.Customer{}
	query := `SELECT id, name, email, phone, address, created_at, updated_at
	          FROM customers WHERE id = $1`
	err := r.db.QueryRow(query, customerID).Scan(
		&customer.ID, &customer.Name, &customer.Email, &customer.Phone, &customer.Address,
		&customer.CreatedAt, &customer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting customer by ID %d: %v", ErrDatabaseError, customerID, err)
	}
	return customer, nil
}

func (r *customerRepository) List(filters models.CustomerFilters) ([]models.Customer, int, error) {
	customers := []models.Customer{}
	totalCount := 0

	query := `SELECT id, name, email, phone, address, created_at, updated_at, COUNT(*) OVER() AS total_count
	          FROM customers WHERE 1=1`
	args := []interface{}{}
	argID := 1

	if filters.Search != nil && *filters.Search != "" {
		query += fmt.Sprintf(" AND (name ILIKE $%d OR email ILIKE $%d)", argID, argID)
		args = append(args, "%"+*filters.Search+"%")
		argID++
	}

	query += " ORDER BY name"

	if filters.PageSize > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filters.PageSize)
		argID++
		if filters.Page > 1 {
			query += fmt.Sprintf(" OFFSET $%d", argID)
			args = append(args, (filters.Page-1)*filters.PageSize)
		}
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying customers: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning customer row: %v", ErrDatabaseError, err)
		}
		customers = append(customers, c)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating customer rows: %v", ErrDatabaseError, err)
	}
	return customers, totalCount, nil
}

func (r *customerRepository) Update(customer *models.Customer) error {
	customer.UpdatedAt = time.Now()
	query := `UPDATE customers SET name = $1, email = $2, phone = $3, address = $4, updated_at = $5
	          WHERE id = $6`
	result, err := r.db.Exec(query,
		customer.Name, customer.Email, customer.Phone, customer.Address, customer.UpdatedAt, customer.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: customer email %s already exists", ErrDuplicateKey, customer.Email)
		}
		return fmt.Errorf("%w: updating customer ID %d: %v", ErrDatabaseError, customer.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for customer update: %v", ErrDatabaseError, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *customerRepository) Delete(customerID int64) error {
	result, err := r.db.Exec(`DELETE FROM customers WHERE id = $1`, customerID)
	if err != nil {
		return fmt.Errorf("%w: deleting customer ID %d: %v", ErrDatabaseError, customerID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for customer delete: %v", ErrDatabaseError, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
