package services

import (
	"errors"
	"fmt"

	"pos_kiosk_backend/internal/models"
	"pos_kiosk_backend/internal/repositories"
)

var ErrSKUExists = errors.New("sku already exists")

// ProductService defines the interface for catalog management.
type ProductService interface {
	CreateProduct(product *models.Product) (*models.Product, error)
	GetProductByID(productID int64) (*models.Product, error)
	GetProducts(filters models.ProductFilters) ([]models.Product, int, error)
	GetAvailableProducts() ([]models.Product, error)
	GetCategories() ([]string, error)
	UpdateProduct(product *models.Product) (*models.Product, error)
	DeleteProduct(productID int64) error
}

type productService struct {
	productRepo repositories.ProductRepository
}

// NewProductService creates a new instance of ProductService.
func NewProductService(productRepo repositories.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

func validateProduct(product *models.Product) error {
	if product.Name == "" {
		return fmt.Errorf("%w: product name is required", ErrValidation)
	}
	if product.SKU == "" {
		return fmt.Errorf("%w: product sku is required", ErrValidation)
	}
	if product.Price.IsNegative() {
		return fmt.Errorf("%w: price must be non-negative", ErrValidation)
	}
	if product.Stock < 0 {
		return fmt.Errorf("%w: stock must be non-negative", ErrValidation)
	}
	return nil
}

func (s *productService) CreateProduct(product *models.Product) (*models.Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if _, err := s.productRepo.Create(product); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrSKUExists, product.SKU)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (s *productService) GetProductByID(productID int64) (*models.Product, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

func (s *productService) GetProducts(filters models.ProductFilters) ([]models.Product, int, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 || filters.PageSize > 100 {
		filters.PageSize = 20
	}
	return s.productRepo.List(filters)
}

// GetAvailableProducts is the kiosk menu feed: only products with stock on
// hand are offered for self-service ordering.
func (s *productService) GetAvailableProducts() ([]models.Product, error) {
	return s.productRepo.ListAvailable()
}

func (s *productService) GetCategories() ([]string, error) {
	return s.productRepo.Categories()
}

func (s *productService) UpdateProduct(product *models.Product) (*models.Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.productRepo.Update(product); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrSKUExists, product.SKU)
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return s.GetProductByID(product.ID)
}

func (s *productService) DeleteProduct(productID int64) error {
	if err := s.productRepo.Delete(productID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}
