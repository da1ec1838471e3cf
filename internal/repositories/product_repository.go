package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"pos_kiosk_backend/internal/models"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// ProductRepository defines the interface for product and stock database
// operations. ReserveStock/ReleaseStock are the only write paths for the
// stock column besides explicit admin adjustments.
type ProductRepository interface {
	Create(product *models.Product) (int64, error)
	GetByID(id int64) (*models.Product, error)
	List(filters models.ProductFilters) ([]models.Product, int, error)
	ListAvailable() ([]models.Product, error)
	Categories() ([]string, error)
	Update(product *models.Product) error
	Delete(id int64) error

	// GetPriceAndStock resolves pricing and availability for checkout.
	GetPriceAndStock(id int64) (price decimal.Decimal, stock int, name string, err error)

	// ReserveStock atomically decrements stock if and only if the current
	// stock covers qty, returning the new stock level. The conditional
	// UPDATE serializes concurrent reservations per product row.
	ReserveStock(executor SQLExecutor, id int64, qty int) (int, error)

	// ReleaseStock increments stock by qty, compensating a reservation.
	ReleaseStock(executor SQLExecutor, id int64, qty int) (int, error)

	// AdjustStock applies a signed manual delta (restock or correction).
	AdjustStock(executor SQLExecutor, id int64, delta int) (int, error)

	GetStock(id int64) (int, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository.
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, name, description, price, sku, category, stock, available_days, created_at, updated_at`

func scanProduct(row interface{ Scan(...interface{}) error }, p *models.Product) error {
	var availableDays []byte
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.SKU, &p.Category, &p.Stock,
		&availableDays, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if len(availableDays) > 0 {
		p.AvailableDays = availableDays
	}
	return nil
}

func (r *productRepository) Create(product *models.Product) (int64, error) {
	query := `INSERT INTO products (name, description, price, sku, category, stock, available_days, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	currentTime := time.Now()
	var availableDays interface{}
	if len(product.AvailableDays) > 0 {
		availableDays = []byte(product.AvailableDays)
	}
	err := r.db.QueryRow(query,
		product.Name, product.Description, product.Price, product.SKU, product.Category,
		product.Stock, availableDays, currentTime, currentTime,
	).Scan(&product.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: product SKU '%s' already exists (constraint: %s)", ErrDuplicateKey, product.SKU, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating product: %v", ErrDatabaseError, err)
	}
	product.CreatedAt = currentTime
	product.UpdatedAt = currentTime
	return product.ID, nil
}

func (r *productRepository) GetByID(id int64) (*models.Product, error) {
	product := &models.Product{}
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	err := scanProduct(r.db.QueryRow(query, id), product)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting product by ID %d: %v", ErrDatabaseError, id, err)
	}
	return product, nil
}

func (r *productRepository) List(filters models.ProductFilters) ([]models.Product, int, error) {
	products := []models.Product{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + productColumns + `, COUNT(*) OVER() AS total_count FROM products`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.Search != nil && *filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%d OR description ILIKE $%d OR sku ILIKE $%d)", argCounter, argCounter, argCounter))
		args = append(args, "%"+*filters.Search+"%")
		argCounter++
	}
	if filters.Category != nil && *filters.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argCounter))
		args = append(args, *filters.Category)
		argCounter++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY name")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCounter, argCounter+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Product
		var availableDays []byte
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.Price, &p.SKU, &p.Category, &p.Stock,
			&availableDays, &p.CreatedAt, &p.UpdatedAt, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
		}
		if len(availableDays) > 0 {
			p.AvailableDays = availableDays
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating product rows: %v", ErrDatabaseError, err)
	}
	return products, totalCount, nil
}

// ListAvailable returns in-stock products for the kiosk menu.
func (r *productRepository) ListAvailable() ([]models.Product, error) {
	products := []models.Product{}
	query := `SELECT ` + productColumns + ` FROM products WHERE stock > 0 ORDER BY category NULLS LAST, name`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying available products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Product
		var availableDays []byte
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.Price, &p.SKU, &p.Category, &p.Stock,
			&availableDays, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning available product: %v", ErrDatabaseError, err)
		}
		if len(availableDays) > 0 {
			p.AvailableDays = availableDays
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *productRepository) Categories() ([]string, error) {
	categories := []string{}
	query := `SELECT DISTINCT category FROM products WHERE category IS NOT NULL ORDER BY category`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying product categories: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("%w: scanning product category: %v", ErrDatabaseError, err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *productRepository) Update(product *models.Product) error {
	query := `UPDATE products SET
	            name = $1, description = $2, price = $3, sku = $4, category = $5,
	            stock = $6, available_days = $7, updated_at = $8
	          WHERE id = $9`
	var availableDays interface{}
	if len(product.AvailableDays) > 0 {
		availableDays = []byte(product.AvailableDays)
	}
	result, err := r.db.Exec(query,
		product.Name, product.Description, product.Price, product.SKU, product.Category,
		product.Stock, availableDays, time.Now(), product.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: product SKU '%s' already exists (constraint: %s)", ErrDuplicateKey, product.SKU, pqErr.Constraint)
		}
		return fmt.Errorf("%w: updating product ID %d: %v", ErrDatabaseError, product.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting product ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) GetPriceAndStock(id int64) (decimal.Decimal, int, string, error) {
	var price decimal.Decimal
	var stock int
	var name string
	query := `SELECT price, stock, name FROM products WHERE id = $1`
	err := r.db.QueryRow(query, id).Scan(&price, &stock, &name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Decimal{}, 0, "", ErrNotFound
		}
		return decimal.Decimal{}, 0, "", fmt.Errorf("%w: getting price and stock for product ID %d: %v", ErrDatabaseError, id, err)
	}
	return price, stock, name, nil
}

func (r *productRepository) ReserveStock(executor SQLExecutor, id int64, qty int) (int, error) {
	var newStock int
	// The stock >= qty guard makes the decrement a compare-and-decrement;
	// Postgres row locking linearizes concurrent reservations per product.
	query := `UPDATE products
	          SET stock = stock - $1, updated_at = $2
	          WHERE id = $3 AND stock >= $1
	          RETURNING stock`
	err := executor.QueryRow(query, qty, time.Now(), id).Scan(&newStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			var available int
			checkErr := r.db.QueryRow(`SELECT stock FROM products WHERE id = $1`, id).Scan(&available)
			if errors.Is(checkErr, sql.ErrNoRows) {
				return 0, ErrNotFound
			}
			if checkErr != nil {
				return 0, fmt.Errorf("%w: checking stock for product ID %d: %v", ErrDatabaseError, id, checkErr)
			}
			return available, fmt.Errorf("%w: product ID %d has %d, requested %d", ErrInsufficientStock, id, available, qty)
		}
		return 0, fmt.Errorf("%w: reserving stock for product ID %d: %v", ErrDatabaseError, id, err)
	}
	return newStock, nil
}

func (r *productRepository) ReleaseStock(executor SQLExecutor, id int64, qty int) (int, error) {
	var newStock int
	query := `UPDATE products SET stock = stock + $1, updated_at = $2 WHERE id = $3 RETURNING stock`
	err := executor.QueryRow(query, qty, time.Now(), id).Scan(&newStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: releasing stock for product ID %d: %v", ErrDatabaseError, id, err)
	}
	return newStock, nil
}

func (r *productRepository) AdjustStock(executor SQLExecutor, id int64, delta int) (int, error) {
	var newStock int
	// GREATEST clamps manual corrections so the stock invariant holds even
	// for an over-large negative adjustment.
	query := `UPDATE products SET stock = GREATEST(stock + $1, 0), updated_at = $2 WHERE id = $3 RETURNING stock`
	err := executor.QueryRow(query, delta, time.Now(), id).Scan(&newStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: adjusting stock for product ID %d: %v", ErrDatabaseError, id, err)
	}
	return newStock, nil
}

func (r *productRepository) GetStock(id int64) (int, error) {
	var stock int
	err := r.db.QueryRow(`SELECT stock FROM products WHERE id = $1`, id).Scan(&stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: getting stock for product ID %d: %v", ErrDatabaseError, id, err)
	}
	return stock, nil
}
