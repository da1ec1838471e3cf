package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pos_kiosk_backend/internal/models"
	"pos_kiosk_backend/internal/repositories"
	"pos_kiosk_backend/pkg/utils"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrUnknownProduct = errors.New("unknown product")
	ErrCommitFailure  = errors.New("sale commit failed")
	ErrSaleNotFound   = errors.New("sale not found")
	ErrInvalidStatus  = errors.New("invalid sale status")
)

// CreateSaleRequest is the cart submitted at checkout. Catalog lines carry a
// productId and are priced server side; custom lines carry their own name
// and price and never touch inventory.
type CreateSaleRequest struct {
	CustomerID    *int64            `json:"customerId"`
	Items         []SaleLineRequest `json:"items" binding:"required"`
	PaymentMethod string            `json:"paymentMethod" binding:"required"`
	Discount      decimal.Decimal   `json:"discount"`
	Tax           decimal.Decimal   `json:"tax"`
}

type SaleLineRequest struct {
	ProductID *int64           `json:"productId"`
	Name      string           `json:"name"`
	Price     *decimal.Decimal `json:"price"`
	Quantity  int              `json:"quantity" binding:"required,gt=0"`
}

// SaleService defines the interface for checkout and sale history.
type SaleService interface {
	CreateSale(userID int64, req *CreateSaleRequest) (*models.Sale, error)
	GetSaleByID(saleID string) (*models.Sale, error)
	GetSales(filters models.SaleFilters) ([]models.Sale, int, error)
	UpdateSaleStatus(saleID string, newStatus string) (*models.Sale, error)
	GetStats(startDate, endDate *time.Time) (*models.SaleStats, error)
}

type saleService struct {
	db           *sql.DB
	saleRepo     repositories.SaleRepository
	productRepo  repositories.ProductRepository
	customerRepo repositories.CustomerRepository
	inventory    InventoryService
}

// NewSaleService creates a new instance of SaleService.
func NewSaleService(db *sql.DB, saleRepo repositories.SaleRepository, productRepo repositories.ProductRepository, customerRepo repositories.CustomerRepository, inventory InventoryService) SaleService {
	return &saleService{
		db:           db,
		saleRepo:     saleRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		inventory:    inventory,
	}
}

// CreateSale runs the full checkout pipeline: price the cart from the
// catalog, reserve inventory as a group, then write the sale durably. When
// the durable write fails, every reserved unit is returned to stock before
// the error surfaces, so a failed checkout never leaks inventory.
func (s *saleService) CreateSale(userID int64, req *CreateSaleRequest) (*models.Sale, error) {
	items, reservations, subtotal, err := s.compileCart(req)
	if err != nil {
		return nil, err
	}

	total := subtotal.Sub(req.Discount).Add(req.Tax)
	if total.IsNegative() {
		return nil, fmt.Errorf("%w: discount exceeds cart total", ErrValidation)
	}

	if req.CustomerID != nil {
		if _, err := s.customerRepo.GetByID(*req.CustomerID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: customer ID %d not found", ErrValidation, *req.CustomerID)
			}
			return nil, fmt.Errorf("failed to resolve customer: %w", err)
		}
	}

	saleID := uuid.NewString()
	reason := utils.NewNullString("sale " + saleID)
	if err := s.inventory.ReserveAll(reservations, &userID, reason); err != nil {
		return nil, err
	}

	sale := &models.Sale{
		ID:            saleID,
		CustomerID:    req.CustomerID,
		UserID:        userID,
		Subtotal:      subtotal,
		Discount:      req.Discount,
		Tax:           req.Tax,
		Total:         total,
		PaymentMethod: req.PaymentMethod,
		Status:        models.SaleStatusCompleted,
	}

	if err := s.writeSale(sale, items); err != nil {
		if releaseErr := s.inventory.ReleaseAll(reservations, &userID, utils.NewNullString("release sale "+saleID)); releaseErr != nil {
			utils.LogError(releaseErr, "failed to release reservations after aborted sale "+saleID)
		}
		utils.LogError(err, "sale commit failed for sale "+saleID)
		return nil, fmt.Errorf("%w: %v", ErrCommitFailure, err)
	}

	return s.GetSaleByID(saleID)
}

// compileCart is the pure pricing step. It never writes anything.
func (s *saleService) compileCart(req *CreateSaleRequest) ([]models.SaleItem, []ReservationLine, decimal.Decimal, error) {
	if len(req.Items) == 0 {
		return nil, nil, decimal.Zero, fmt.Errorf("%w: cart is empty", ErrValidation)
	}
	if req.Discount.IsNegative() || req.Tax.IsNegative() {
		return nil, nil, decimal.Zero, fmt.Errorf("%w: discount and tax must be non-negative", ErrValidation)
	}

	items := make([]models.SaleItem, 0, len(req.Items))
	reservations := []ReservationLine{}
	subtotal := decimal.Zero

	for i, line := range req.Items {
		if line.Quantity <= 0 {
			return nil, nil, decimal.Zero, fmt.Errorf("%w: item %d has non-positive quantity", ErrValidation, i)
		}

		var name string
		var unitPrice decimal.Decimal

		if line.ProductID != nil {
			price, stock, productName, err := s.productRepo.GetPriceAndStock(*line.ProductID)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return nil, nil, decimal.Zero, fmt.Errorf("%w: product ID %d", ErrUnknownProduct, *line.ProductID)
				}
				return nil, nil, decimal.Zero, fmt.Errorf("failed to price product %d: %w", *line.ProductID, err)
			}
			// Early availability check so callers learn about a shortfall
			// before anything is mutated. The conditional decrement in the
			// reservation step remains the authoritative guard under
			// concurrency.
			if line.Quantity > stock {
				return nil, nil, decimal.Zero, fmt.Errorf("%w: product ID %d has %d, requested %d", ErrInsufficientStock, *line.ProductID, stock, line.Quantity)
			}
			name = productName
			unitPrice = price
			reservations = append(reservations, ReservationLine{ProductID: *line.ProductID, Quantity: line.Quantity})
		} else {
			if line.Name == "" || line.Price == nil {
				return nil, nil, decimal.Zero, fmt.Errorf("%w: custom item %d requires name and price", ErrValidation, i)
			}
			if line.Price.IsNegative() {
				return nil, nil, decimal.Zero, fmt.Errorf("%w: custom item %d has negative price", ErrValidation, i)
			}
			name = line.Name
			unitPrice = *line.Price
		}

		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		items = append(items, models.SaleItem{
			ProductID: line.ProductID,
			Name:      name,
			Quantity:  line.Quantity,
			UnitPrice: unitPrice,
			Total:     lineTotal,
		})
		subtotal = subtotal.Add(lineTotal)
	}

	return items, reservations, subtotal, nil
}

// writeSale persists the sale header and item rows in one transaction.
// It deliberately takes no context: once reservations are applied the write
// must run to completion regardless of the caller's connection state.
func (s *saleService) writeSale(sale *models.Sale, items []models.SaleItem) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin sale transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.saleRepo.CreateSale(tx, sale); err != nil {
		return err
	}
	for i := range items {
		items[i].SaleID = sale.ID
		if _, err := s.saleRepo.CreateSaleItem(tx, &items[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sale transaction: %w", err)
	}
	return nil
}

func (s *saleService) GetSaleByID(saleID string) (*models.Sale, error) {
	sale, err := s.saleRepo.GetSaleByID(saleID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}
	items, err := s.saleRepo.GetSaleItems(saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sale items: %w", err)
	}
	sale.Items = items
	return sale, nil
}

func (s *saleService) GetSales(filters models.SaleFilters) ([]models.Sale, int, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 || filters.PageSize > 100 {
		filters.PageSize = 20
	}
	return s.saleRepo.GetSales(filters)
}

var validSaleStatuses = map[string]bool{
	models.SaleStatusPending:   true,
	models.SaleStatusCompleted: true,
	models.SaleStatusCancelled: true,
	models.SaleStatusRefunded:  true,
}

// UpdateSaleStatus is the admin override path. It does not touch inventory;
// refunds restock through an explicit inventory adjustment.
func (s *saleService) UpdateSaleStatus(saleID string, newStatus string) (*models.Sale, error) {
	if !validSaleStatuses[newStatus] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, newStatus)
	}
	if err := s.saleRepo.UpdateSaleStatus(s.db, saleID, newStatus, time.Now()); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to update sale status: %w", err)
	}
	return s.GetSaleByID(saleID)
}

func (s *saleService) GetStats(startDate, endDate *time.Time) (*models.SaleStats, error) {
	return s.saleRepo.GetStats(startDate, endDate)
}
