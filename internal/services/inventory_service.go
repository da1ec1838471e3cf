package services

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"pos_kiosk_backend/internal/models"
	"pos_kiosk_backend/internal/repositories"
	"pos_kiosk_backend/pkg/utils"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
)

// ReservationLine is one product/quantity pair inside a reservation group.
type ReservationLine struct {
	ProductID int64
	Quantity  int
}

// InventoryService owns every stock mutation. Reservations are applied as a
// group inside a single transaction so a shortfall on any line leaves all
// other lines untouched.
type InventoryService interface {
	ReserveAll(lines []ReservationLine, userID *int64, reason *string) error
	ReleaseAll(lines []ReservationLine, userID *int64, reason *string) error
	Restock(productID int64, quantity int, userID *int64, reason *string) (int, error)
	Adjust(productID int64, delta int, userID *int64, reason *string) (int, error)
	GetMovements(filters models.StockMovementFilters) ([]models.StockMovement, int, error)
}

type inventoryService struct {
	db           *sql.DB
	productRepo  repositories.ProductRepository
	movementRepo repositories.StockMovementRepository
}

// NewInventoryService creates a new instance of InventoryService.
func NewInventoryService(db *sql.DB, productRepo repositories.ProductRepository, movementRepo repositories.StockMovementRepository) InventoryService {
	return &inventoryService{db: db, productRepo: productRepo, movementRepo: movementRepo}
}

// ReserveAll decrements stock for every line or for none. Each decrement is
// conditional on sufficient remaining stock, so concurrent reservations for
// the same product serialize on the row and the loser sees the shortfall.
func (s *inventoryService) ReserveAll(lines []ReservationLine, userID *int64, reason *string) error {
	for _, line := range lines {
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: product ID %d", ErrInvalidQuantity, line.ProductID)
		}
	}

	// Locking rows in a fixed order keeps overlapping groups from
	// deadlocking on each other.
	ordered := make([]ReservationLine, len(lines))
	copy(ordered, lines)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ProductID < ordered[j].ProductID })
	lines = ordered

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin reservation transaction: %w", err)
	}
	defer tx.Rollback()

	for _, line := range lines {
		if _, err := s.productRepo.ReserveStock(tx, line.ProductID, line.Quantity); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: product ID %d", ErrProductNotFound, line.ProductID)
			}
			if errors.Is(err, repositories.ErrInsufficientStock) {
				return fmt.Errorf("%w: %v", ErrInsufficientStock, err)
			}
			return fmt.Errorf("failed to reserve stock: %w", err)
		}
		movement := &models.StockMovement{
			ProductID:       line.ProductID,
			UserID:          userID,
			MovementType:    models.MovementTypeSale,
			QuantityChanged: -line.Quantity,
			Reason:          reason,
		}
		if err := s.movementRepo.CreateMovement(tx, movement); err != nil {
			return fmt.Errorf("failed to record stock movement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reservation transaction: %w", err)
	}
	return nil
}

// ReleaseAll returns previously reserved quantities to stock. It is the
// compensation path after a failed sale write and must not fail silently,
// so any error is logged as well as returned.
func (s *inventoryService) ReleaseAll(lines []ReservationLine, userID *int64, reason *string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin release transaction: %w", err)
	}
	defer tx.Rollback()

	for _, line := range lines {
		if _, err := s.productRepo.ReleaseStock(tx, line.ProductID, line.Quantity); err != nil {
			utils.LogError(err, fmt.Sprintf("failed to release %d units of product %d", line.Quantity, line.ProductID))
			return fmt.Errorf("failed to release stock: %w", err)
		}
		movement := &models.StockMovement{
			ProductID:       line.ProductID,
			UserID:          userID,
			MovementType:    models.MovementTypeRelease,
			QuantityChanged: line.Quantity,
			Reason:          reason,
		}
		if err := s.movementRepo.CreateMovement(tx, movement); err != nil {
			return fmt.Errorf("failed to record stock movement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit release transaction: %w", err)
	}
	return nil
}

func (s *inventoryService) Restock(productID int64, quantity int, userID *int64, reason *string) (int, error) {
	if quantity <= 0 {
		return 0, fmt.Errorf("%w: product ID %d", ErrInvalidQuantity, productID)
	}
	return s.applyAdjustment(productID, quantity, models.MovementTypeRestock, userID, reason)
}

func (s *inventoryService) Adjust(productID int64, delta int, userID *int64, reason *string) (int, error) {
	if delta == 0 {
		return 0, fmt.Errorf("%w: delta must be non-zero for product ID %d", ErrInvalidQuantity, productID)
	}
	return s.applyAdjustment(productID, delta, models.MovementTypeAdjustment, userID, reason)
}

func (s *inventoryService) applyAdjustment(productID int64, delta int, movementType string, userID *int64, reason *string) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin adjustment transaction: %w", err)
	}
	defer tx.Rollback()

	newStock, err := s.productRepo.AdjustStock(tx, productID, delta)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return 0, fmt.Errorf("%w: product ID %d", ErrProductNotFound, productID)
		}
		return 0, fmt.Errorf("failed to adjust stock: %w", err)
	}

	movement := &models.StockMovement{
		ProductID:       productID,
		UserID:          userID,
		MovementType:    movementType,
		QuantityChanged: delta,
		Reason:          reason,
	}
	if err := s.movementRepo.CreateMovement(tx, movement); err != nil {
		return 0, fmt.Errorf("failed to record stock movement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit adjustment transaction: %w", err)
	}
	return newStock, nil
}

func (s *inventoryService) GetMovements(filters models.StockMovementFilters) ([]models.StockMovement, int, error) {
	return s.movementRepo.GetMovements(filters)
}
