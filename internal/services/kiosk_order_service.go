package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pos_kiosk_backend/internal/models"
	"pos_kiosk_backend/internal/repositories"
	"pos_kiosk_backend/pkg/utils"
)

var (
	ErrOrderNotFound      = errors.New("kiosk order not found")
	ErrInvalidTransition  = errors.New("invalid order transition")
	ErrUnknownOrderAction = errors.New("unknown order action")
)

// OrderEventPublisher receives kiosk order lifecycle events. The broadcast
// hub implements it; tests substitute a recorder.
type OrderEventPublisher interface {
	PublishNew(order *models.KioskOrder)
	PublishStatus(orderID, status string)
	PublishClear()
}

// SubmitOrderRequest is an order placed from a kiosk terminal. Lines carry
// the menu price the kiosk displayed at selection time.
type SubmitOrderRequest struct {
	Table        *string            `json:"table"`
	CustomerName *string            `json:"customerName"`
	Lines        []OrderLineRequest `json:"items" binding:"required"`
}

type OrderLineRequest struct {
	Name     string          `json:"name" binding:"required"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity" binding:"required,gt=0"`
	Notes    *string         `json:"notes"`
}

// KioskOrderService defines the interface for the kiosk order lifecycle.
type KioskOrderService interface {
	SubmitOrder(req *SubmitOrderRequest) (*models.KioskOrder, error)
	GetOrderByID(orderID string) (*models.KioskOrder, error)
	PendingOrders() ([]models.KioskOrder, error)
	Transition(orderID, action string) (*models.KioskOrder, error)
	ClearPending() (int, error)
}

type kioskOrderService struct {
	db        *sql.DB
	orderRepo repositories.KioskOrderRepository
	publisher OrderEventPublisher
}

// NewKioskOrderService creates a new instance of KioskOrderService.
func NewKioskOrderService(db *sql.DB, orderRepo repositories.KioskOrderRepository, publisher OrderEventPublisher) KioskOrderService {
	return &kioskOrderService{db: db, orderRepo: orderRepo, publisher: publisher}
}

// SubmitOrder persists a new pending order and announces it to every
// connected dashboard session.
func (s *kioskOrderService) SubmitOrder(req *SubmitOrderRequest) (*models.KioskOrder, error) {
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("%w: order has no items", ErrValidation)
	}

	total := decimal.Zero
	for i, line := range req.Lines {
		if line.Name == "" {
			return nil, fmt.Errorf("%w: item %d has no name", ErrValidation, i)
		}
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item %d has non-positive quantity", ErrValidation, i)
		}
		if line.Price.IsNegative() {
			return nil, fmt.Errorf("%w: item %d has negative price", ErrValidation, i)
		}
		total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	id := uuid.NewString()
	order := &models.KioskOrder{
		ID:           id,
		Code:         strings.ToUpper(id[:8]),
		Status:       models.OrderStatusPending,
		Total:        total,
		TableTag:     req.Table,
		CustomerName: req.CustomerName,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin order transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.orderRepo.CreateOrder(tx, order); err != nil {
		return nil, err
	}
	for _, line := range req.Lines {
		orderLine := &models.KioskOrderLine{
			OrderID:   id,
			Name:      line.Name,
			UnitPrice: line.Price,
			Quantity:  line.Quantity,
			Notes:     line.Notes,
		}
		if _, err := s.orderRepo.CreateOrderLine(tx, orderLine); err != nil {
			return nil, err
		}
		order.Lines = append(order.Lines, *orderLine)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order transaction: %w", err)
	}

	s.publisher.PublishNew(order)
	utils.LogInfo("kiosk order " + order.Code + " submitted")
	return order, nil
}

func (s *kioskOrderService) GetOrderByID(orderID string) (*models.KioskOrder, error) {
	order, err := s.orderRepo.GetOrderByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get kiosk order: %w", err)
	}
	lines, err := s.orderRepo.GetOrderLines(orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get kiosk order lines: %w", err)
	}
	order.Lines = lines
	return order, nil
}

// PendingOrders returns the live queue, oldest first.
func (s *kioskOrderService) PendingOrders() ([]models.KioskOrder, error) {
	return s.orderRepo.GetOrdersByStatus(models.OrderStatusPending)
}

// targetStatus maps a dashboard action onto the stored terminal status.
// "deny" is a cancellation that keeps the order row for reporting.
func targetStatus(action string) (string, error) {
	switch action {
	case "confirm", models.OrderStatusConfirmed:
		return models.OrderStatusConfirmed, nil
	case "cancel", "deny", "denied", models.OrderStatusCancelled:
		return models.OrderStatusCancelled, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownOrderAction, action)
	}
}

// Transition moves a pending order to a terminal status. Replaying the same
// terminal action is a no-op that returns the current order without emitting
// an event; any other transition away from a terminal status is rejected.
func (s *kioskOrderService) Transition(orderID, action string) (*models.KioskOrder, error) {
	target, err := targetStatus(action)
	if err != nil {
		return nil, err
	}

	changed, err := s.orderRepo.TransitionStatus(s.db, orderID, models.OrderStatusPending, target, time.Now())
	if err != nil {
		return nil, err
	}

	order, err := s.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}

	if changed {
		s.publisher.PublishStatus(orderID, target)
		utils.LogInfo("kiosk order " + order.Code + " moved to " + target)
		return order, nil
	}

	// The conditional update matched nothing: the order already sits in a
	// terminal state. Replaying the same target is an idempotent no-op.
	if order.Terminal() && order.Status == target {
		return order, nil
	}
	return nil, fmt.Errorf("%w: order %s is %s, cannot move to %s", ErrInvalidTransition, order.Code, order.Status, target)
}

// ClearPending cancels every pending order at once and tells sessions to
// drop their queues. Used when the dashboard resets between service periods.
func (s *kioskOrderService) ClearPending() (int, error) {
	ids, err := s.orderRepo.CancelAllPending(s.db, time.Now())
	if err != nil {
		return 0, err
	}
	if len(ids) > 0 {
		s.publisher.PublishClear()
		utils.LogInfo(fmt.Sprintf("cleared %d pending kiosk orders", len(ids)))
	}
	return len(ids), nil
}
