package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"pos_kiosk_backend/internal/models"
)

// StockMovementRepository defines the interface for the stock audit trail.
type StockMovementRepository interface {
	CreateMovement(executor SQLExecutor, movement *models.StockMovement) error
	GetMovements(filters models.StockMovementFilters) ([]models.StockMovement, int, error)
}

type stockMovementRepository struct {
	db *sql.DB
}

// NewStockMovementRepository creates a new instance of StockMovementRepository.
func NewStockMovementRepository(db *sql.DB) StockMovementRepository {
	return &stockMovementRepository{db: db}
}

func (r *stockMovementRepository) CreateMovement(executor SQLExecutor, movement *models.StockMovement) error {
	query := `INSERT INTO stock_movements (product_id, user_id, movement_type, quantity_changed, reason, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now()
	}
	err := executor.QueryRow(query,
		movement.ProductID, movement.UserID, movement.MovementType, movement.QuantityChanged,
		movement.Reason, movement.CreatedAt,
	).Scan(&movement.ID)
	if err != nil {
		return fmt.Errorf("%w: creating stock movement: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *stockMovementRepository) GetMovements(filters models.StockMovementFilters) ([]models.StockMovement, int, error) {
	movements := []models.StockMovement{}
	totalCount := 0

	query := `SELECT sm.id, sm.product_id, sm.user_id, sm.movement_type, sm.quantity_changed, sm.reason, sm.created_at,
	                 p.id, p.name, p.sku,
	                 COUNT(*) OVER() AS total_count
	          FROM stock_movements sm
	          LEFT JOIN products p ON sm.product_id = p.id
	          WHERE 1=1`
	args := []interface{}{}
	argID := 1

	if filters.ProductID != nil {
		query += fmt.Sprintf(" AND sm.product_id = $%d", argID)
		args = append(args, *filters.ProductID)
		argID++
	}
	if filters.MovementType != nil && *filters.MovementType != "" {
		query += fmt.Sprintf(" AND sm.movement_type = $%d", argID)
		args = append(args, *filters.MovementType)
		argID++
	}

	query += " ORDER BY sm.created_at DESC"

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
		return nil, 0, fmt.Errorf("%w: querying stock movements: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.StockMovement
		var productID sql.NullInt64
		var productName, productSKU sql.NullString
		if err := rows.Scan(
			&m.ID, &m.ProductID, &m.UserID, &m.MovementType, &m.QuantityChanged, &m.Reason, &m.CreatedAt,
			&productID, &productName, &productSKU, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning stock movement row: %v", ErrDatabaseError, err)
		}
		if productID.Valid {
			m.Product = &models.ProductRef{ID: productID.Int64, Name: productName.String, SKU: productSKU.String}
		}
		movements = append(movements, m)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating stock movement rows: %v", ErrDatabaseError, err)
	}
	return movements, totalCount, nil
}
