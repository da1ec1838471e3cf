package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pos_kiosk_backend/internal/models"
)

// KioskOrderRepository defines the interface for kiosk order persistence.
// Status changes go through TransitionStatus, a conditional update that
// enforces single-writer semantics per order id at the database level.
type KioskOrderRepository interface {
	CreateOrder(executor SQLExecutor, order *models.KioskOrder) error
	CreateOrderLine(executor SQLExecutor, line *models.KioskOrderLine) (int64, error)
	GetOrderByID(orderID string) (*models.KioskOrder, error)
	GetOrderLines(orderID string) ([]models.KioskOrderLine, error)
	GetOrdersByStatus(status string) ([]models.KioskOrder, error)

	// TransitionStatus moves the order from fromStatus to toStatus and
	// reports whether the row actually changed. A false result with a nil
	// error means the order was not in fromStatus at update time.
	TransitionStatus(executor SQLExecutor, orderID, fromStatus, toStatus string, updatedAt time.Time) (bool, error)

	// CancelAllPending terminates every pending order, returning their ids.
	CancelAllPending(executor SQLExecutor, updatedAt time.Time) ([]string, error)
}

type kioskOrderRepository struct {
	db *sql.DB
}

// NewKioskOrderRepository creates a new instance of KioskOrderRepository.
func NewKioskOrderRepository(db *sql.DB) KioskOrderRepository {
	return &kioskOrderRepository{db: db}
}

func (r *kioskOrderRepository) CreateOrder(executor SQLExecutor, order *models.KioskOrder) error {
	query := `INSERT INTO kiosk_orders
	            (id, code, status, total, table_tag, customer_name, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = order.CreatedAt
	}

	_, err := executor.Exec(query,
		order.ID, order.Code, order.Status, order.Total, order.TableTag, order.CustomerName,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: creating kiosk order: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *kioskOrderRepository) CreateOrderLine(executor SQLExecutor, line *models.KioskOrderLine) (int64, error) {
	query := `INSERT INTO kiosk_order_lines (order_id, name, unit_price, quantity, notes)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	err := executor.QueryRow(query, line.OrderID, line.Name, line.UnitPrice, line.Quantity, line.Notes).Scan(&line.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating kiosk order line: %v", ErrDatabaseError, err)
	}
	return line.ID, nil
}

func (r *kioskOrderRepository) GetOrderByID(orderID string) (*models.KioskOrder, error) {
	order := &models.KioskOrder{}
	query := `SELECT id, code, status, total, table_tag, customer_name, created_at, updated_at
	          FROM kiosk_orders WHERE id = $1`
	err := r.db.QueryRow(query, orderID).Scan(
		&order.ID, &order.Code, &order.Status, &order.Total, &order.TableTag, &order.CustomerName,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting kiosk order by ID %s: %v", ErrDatabaseError, orderID, err)
	}
	return order, nil
}

func (r *kioskOrderRepository) GetOrderLines(orderID string) ([]models.KioskOrderLine, error) {
	lines := []models.KioskOrderLine{}
	query := `SELECT id, order_id, name, unit_price, quantity, notes
	          FROM kiosk_order_lines WHERE order_id = $1 ORDER BY id`
	rows, err := r.db.Query(query, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying lines for kiosk order %s: %v", ErrDatabaseError, orderID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var line models.KioskOrderLine
		if err := rows.Scan(&line.ID, &line.OrderID, &line.Name, &line.UnitPrice, &line.Quantity, &line.Notes); err != nil {
			return nil, fmt.Errorf("%w: scanning line for kiosk order %s: %v", ErrDatabaseError, orderID, err)
		}
		lines = append(lines, line)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating lines for kiosk order %s: %v", ErrDatabaseError, orderID, err)
	}
	return lines, nil
}

// GetOrdersByStatus returns orders in the given status with their lines
// attached, oldest first, which is the queue ordering dashboards display.
func (r *kioskOrderRepository) GetOrdersByStatus(status string) ([]models.KioskOrder, error) {
	orders := []models.KioskOrder{}
	query := `SELECT id, code, status, total, table_tag, customer_name, created_at, updated_at
	          FROM kiosk_orders WHERE status = $1 ORDER BY created_at`
	rows, err := r.db.Query(query, status)
	if err != nil {
		return nil, fmt.Errorf("%w: querying kiosk orders by status %s: %v", ErrDatabaseError, status, err)
	}
	defer rows.Close()

	for rows.Next() {
		var o models.KioskOrder
		if err := rows.Scan(&o.ID, &o.Code, &o.Status, &o.Total, &o.TableTag, &o.CustomerName, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning kiosk order: %v", ErrDatabaseError, err)
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating kiosk order rows: %v", ErrDatabaseError, err)
	}

	for i := range orders {
		lines, err := r.GetOrderLines(orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Lines = lines
	}
	return orders, nil
}

func (r *kioskOrderRepository) TransitionStatus(executor SQLExecutor, orderID, fromStatus, toStatus string, updatedAt time.Time) (bool, error) {
	result, err := executor.Exec(
		`UPDATE kiosk_orders SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		toStatus, updatedAt, orderID, fromStatus,
	)
	if err != nil {
		return false, fmt.Errorf("%w: transitioning kiosk order %s to %s: %v", ErrDatabaseError, orderID, toStatus, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: getting rows affected for kiosk order transition %s: %v", ErrDatabaseError, orderID, err)
	}
	return rowsAffected > 0, nil
}

func (r *kioskOrderRepository) CancelAllPending(executor SQLExecutor, updatedAt time.Time) ([]string, error) {
	ids := []string{}
	rows, err := executor.Query(
		`UPDATE kiosk_orders SET status = $1, updated_at = $2 WHERE status = $3 RETURNING id`,
		models.OrderStatusCancelled, updatedAt, models.OrderStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: cancelling pending kiosk orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scanning cancelled kiosk order id: %v", ErrDatabaseError, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
