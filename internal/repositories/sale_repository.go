package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"pos_kiosk_backend/internal/models"

	"github.com/shopspring/decimal"
)

// SaleRepository defines the interface for sale (transaction) database
// operations. Header and item writes accept an SQLExecutor so the
// transaction committer can bundle them into one durable unit.
type SaleRepository interface {
	CreateSale(executor SQLExecutor, sale *models.Sale) error
	CreateSaleItem(executor SQLExecutor, item *models.SaleItem) (int64, error)
	GetSaleByID(saleID string) (*models.Sale, error)
	GetSaleItems(saleID string) ([]models.SaleItem, error)
	GetSales(filters models.SaleFilters) ([]models.Sale, int, error)
	UpdateSaleStatus(executor SQLExecutor, saleID string, newStatus string, updatedAt time.Time) error
	GetStats(startDate, endDate *time.Time) (*models.SaleStats, error)
}

type saleRepository struct {
	db *sql.DB
}

// NewSaleRepository creates a new instance of SaleRepository.
func NewSaleRepository(db *sql.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) CreateSale(executor SQLExecutor, sale *models.Sale) error {
	query := `INSERT INTO sales
	            (id, customer_id, user_id, subtotal, discount, tax, total,
	             payment_method, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now()
	}
	if sale.UpdatedAt.IsZero() {
		sale.UpdatedAt = sale.CreatedAt
	}

	_, err := executor.Exec(query,
		sale.ID, sale.CustomerID, sale.UserID, sale.Subtotal, sale.Discount, sale.Tax, sale.Total,
		sale.PaymentMethod, sale.Status, sale.CreatedAt, sale.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: creating sale: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *saleRepository) CreateSaleItem(executor SQLExecutor, item *models.SaleItem) (int64, error) {
	query := `INSERT INTO sale_items (sale_id, product_id, name, quantity, unit_price, total)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	err := executor.QueryRow(query,
		item.SaleID, item.ProductID, item.Name, item.Quantity, item.UnitPrice, item.Total,
	).Scan(&item.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating sale item: %v", ErrDatabaseError, err)
	}
	return item.ID, nil
}

func (r *saleRepository) GetSaleByID(saleID string) (*models.Sale, error) {
	sale := &models.Sale{}
	var customerID sql.NullInt64
	var customerName, customerEmail sql.NullString
	var userName, userEmail sql.NullString

	query := `
		SELECT s.id, s.customer_id, s.user_id, s.subtotal, s.discount, s.tax, s.total,
		       s.payment_method, s.status, s.created_at, s.updated_at,
		       c.name AS customer_name, c.email AS customer_email,
		       u.name AS user_name, u.email AS user_email
		FROM sales s
		LEFT JOIN customers c ON s.customer_id = c.id
		LEFT JOIN users u ON s.user_id = u.id
		WHERE s.id = $1`

	err := r.db.QueryRow(query, saleID).Scan(
		&sale.ID, &customerID, &sale.UserID, &sale.Subtotal, &sale.Discount, &sale.Tax, &sale.Total,
		&sale.PaymentMethod, &sale.Status, &sale.CreatedAt, &sale.UpdatedAt,
		&customerName, &customerEmail, &userName, &userEmail,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting sale by ID %s: %v", ErrDatabaseError, saleID, err)
	}

	if customerID.Valid {
		id := customerID.Int64
		sale.CustomerID = &id
		sale.Customer = &models.CustomerRef{ID: id}
		if customerName.Valid {
			sale.Customer.Name = customerName.String
		}
		if customerEmail.Valid {
			sale.Customer.Email = customerEmail.String
		}
	}
	if userName.Valid || userEmail.Valid {
		sale.User = &models.UserRef{ID: sale.UserID, Name: userName.String, Email: userEmail.String}
	}
	return sale, nil
}

func (r *saleRepository) GetSaleItems(saleID string) ([]models.SaleItem, error) {
	items := []models.SaleItem{}
	query := `
		SELECT si.id, si.sale_id, si.product_id, si.name, si.quantity, si.unit_price, si.total,
		       p.name AS product_name, p.sku AS product_sku
		FROM sale_items si
		LEFT JOIN products p ON si.product_id = p.id
		WHERE si.sale_id = $1
		ORDER BY si.id`

	rows, err := r.db.Query(query, saleID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying sale items for sale %s: %v", ErrDatabaseError, saleID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.SaleItem
		var productID sql.NullInt64
		var productName, productSKU sql.NullString

		if err := rows.Scan(
			&item.ID, &item.SaleID, &productID, &item.Name, &item.Quantity, &item.UnitPrice, &item.Total,
			&productName, &productSKU,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning sale item for sale %s: %v", ErrDatabaseError, saleID, err)
		}

		if productID.Valid {
			id := productID.Int64
			item.ProductID = &id
			item.Product = &models.ProductRef{ID: id}
			if productName.Valid {
				item.Product.Name = productName.String
			}
			if productSKU.Valid {
				item.Product.SKU = productSKU.String
			}
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating sale item rows for sale %s: %v", ErrDatabaseError, saleID, err)
	}
	return items, nil
}

func (r *saleRepository) GetSales(filters models.SaleFilters) ([]models.Sale, int, error) {
	sales := []models.Sale{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT s.id, s.customer_id, s.user_id, s.subtotal, s.discount, s.tax, s.total,
		       s.payment_method, s.status, s.created_at, s.updated_at,
		       c.name AS customer_name, c.email AS customer_email,
		       u.name AS user_name, u.email AS user_email,
		       COUNT(*) OVER() AS total_count
		FROM sales s
		LEFT JOIN customers c ON s.customer_id = c.id
		LEFT JOIN users u ON s.user_id = u.id
	`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("s.customer_id = $%d", argCounter))
		args = append(args, *filters.CustomerID)
		argCounter++
	}
	if filters.StartDate != nil && filters.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("s.created_at BETWEEN $%d AND $%d", argCounter, argCounter+1))
		args = append(args, *filters.StartDate, *filters.EndDate)
		argCounter += 2
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY s.created_at DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCounter, argCounter+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying sales: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.Sale
		var customerID sql.NullInt64
		var customerName, customerEmail, userName, userEmail sql.NullString

		if err := rows.Scan(
			&s.ID, &customerID, &s.UserID, &s.Subtotal, &s.Discount, &s.Tax, &s.Total,
			&s.PaymentMethod, &s.Status, &s.CreatedAt, &s.UpdatedAt,
			&customerName, &customerEmail, &userName, &userEmail,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning sale: %v", ErrDatabaseError, err)
		}

		if customerID.Valid {
			id := customerID.Int64
			s.CustomerID = &id
			s.Customer = &models.CustomerRef{ID: id, Name: customerName.String, Email: customerEmail.String}
		}
		if userName.Valid || userEmail.Valid {
			s.User = &models.UserRef{ID: s.UserID, Name: userName.String, Email: userEmail.String}
		}
		sales = append(sales, s)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating sale rows: %v", ErrDatabaseError, err)
	}
	return sales, totalCount, nil
}

func (r *saleRepository) UpdateSaleStatus(executor SQLExecutor, saleID string, newStatus string, updatedAt time.Time) error {
	result, err := executor.Exec(`UPDATE sales SET status = $1, updated_at = $2 WHERE id = $3`, newStatus, updatedAt, saleID)
	if err != nil {
		return fmt.Errorf("%w: updating status for sale %s: %v", ErrDatabaseError, saleID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for sale status update %s: %v", ErrDatabaseError, saleID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetStats aggregates COMPLETED sales: total revenue, transaction count,
// average order value, and the top five products by revenue.
func (r *saleRepository) GetStats(startDate, endDate *time.Time) (*models.SaleStats, error) {
	stats := &models.SaleStats{
		TotalRevenue:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
		TopProducts:       []models.TopProduct{},
	}

	var conditions []string
	var args []interface{}
	conditions = append(conditions, "s.status = $1")
	args = append(args, models.SaleStatusCompleted)
	if startDate != nil && endDate != nil {
		conditions = append(conditions, "s.created_at BETWEEN $2 AND $3")
		args = append(args, *startDate, *endDate)
	}
	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	var totalRevenue sql.NullString
	aggQuery := `SELECT COALESCE(SUM(s.total), 0), COUNT(*), COALESCE(AVG(s.total), 0) FROM sales s` + whereClause
	var avgValue sql.NullString
	err := r.db.QueryRow(aggQuery, args...).Scan(&totalRevenue, &stats.TotalTransactions, &avgValue)
	if err != nil {
		return nil, fmt.Errorf("%w: aggregating sale stats: %v", ErrDatabaseError, err)
	}
	if totalRevenue.Valid {
		if stats.TotalRevenue, err = decimal.NewFromString(totalRevenue.String); err != nil {
			return nil, fmt.Errorf("%w: parsing total revenue: %v", ErrDatabaseError, err)
		}
	}
	if avgValue.Valid {
		if stats.AverageOrderValue, err = decimal.NewFromString(avgValue.String); err != nil {
			return nil, fmt.Errorf("%w: parsing average order value: %v", ErrDatabaseError, err)
		}
	}

	topQuery := `
		SELECT si.product_id, p.name, p.sku, SUM(si.quantity) AS total_qty, SUM(si.total) AS total_revenue
		FROM sale_items si
		JOIN sales s ON si.sale_id = s.id
		JOIN products p ON si.product_id = p.id` + whereClause + `
		GROUP BY si.product_id, p.name, p.sku
		ORDER BY total_revenue DESC
		LIMIT 5`

	rows, err := r.db.Query(topQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying top products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var tp models.TopProduct
		if err := rows.Scan(&tp.Product.ID, &tp.Product.Name, &tp.Product.SKU, &tp.TotalQuantity, &tp.TotalRevenue); err != nil {
			return nil, fmt.Errorf("%w: scanning top product: %v", ErrDatabaseError, err)
		}
		stats.TopProducts = append(stats.TopProducts, tp)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating top product rows: %v", ErrDatabaseError, err)
	}
	return stats, nil
}
