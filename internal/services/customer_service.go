package services

import (
	"errors"
	"fmt"

	"pos_kiosk_backend/internal/models"
	"pos_kiosk_backend/internal/repositories"
	"pos_kiosk_backend/pkg/utils"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrEmailExists      = errors.New("email already exists")
)

// CustomerService defines the interface for customer management.
type CustomerService interface {
	CreateCustomer(customer *models.Customer) (*models.Customer, error)
	GetCustomerByID(customerID int64) (*models.Customer, error)
	GetCustomers(filters models.CustomerFilters) ([]models.Customer, int, error)
	UpdateCustomer(customer *models.Customer) (*models.Customer, error)
	DeleteCustomer(customerID int64) error
}

type customerService struct {
	customerRepo repositories.CustomerRepository
}

// NewCustomerService creates a new instance of CustomerService.
func NewCustomerService(customerRepo repositories.CustomerRepository) CustomerService {
	return &customerService{customerRepo: customerRepo}
}

func validateCustomer(customer *models.Customer) error {
	if utils.IsEmpty(customer.Name) {
		return fmt.Errorf("%w: customer name is required", ErrValidation)
	}
	if !utils.IsValidEmail(customer.Email) {
		return fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	return nil
}

func (s *customerService) CreateCustomer(customer *models.Customer) (*models.Customer, error) {
	if err := validateCustomer(customer); err != nil {
		return nil, err
	}
	if _, err := s.customerRepo.Create(customer); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrEmailExists, customer.Email)
		}
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return customer, nil
}

func (s *customerService) GetCustomerByID(customerID int64) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByID(customerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return customer, nil
}

func (s *customerService) GetCustomers(filters models.CustomerFilters) ([]models.Customer, int, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 || filters.PageSize > 100 {
		filters.PageSize = 20
	}
	return s.customerRepo.List(filters)
}

func (s *customerService) UpdateCustomer(customer *models.Customer) (*models.Customer, error) {
	if err := validateCustomer(customer); err != nil {
		return nil, err
	}
	if err := s.customerRepo.Update(customer); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrEmailExists, customer.Email)
		}
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return s.GetCustomerByID(customer.ID)
}

func (s *customerService) DeleteCustomer(customerID int64) error {
	if err := s.customerRepo.Delete(customerID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCustomerNotFound
		}
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	return nil
}
