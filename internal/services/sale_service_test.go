package services

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"pos_kiosk_backend/internal/models"
	"pos_kiosk_backend/internal/repositories"
)

type fakeProduct struct {
	name  string
	sku   string
	price decimal.Decimal
	stock int
}

type fakeProductRepo struct {
	products map[int64]*fakeProduct
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[int64]*fakeProduct{}}
}

func (f *fakeProductRepo) Create(product *models.Product) (int64, error) { return 0, nil }
func (f *fakeProductRepo) GetByID(id int64) (*models.Product, error) {
	if _, ok := f.products[id]; !ok {
		return nil, repositories.ErrNotFound
	}
	return &models.Product{ID: id}, nil
}
func (f *fakeProductRepo) List(models.ProductFilters) ([]models.Product, int, error) {
	return nil, 0, nil
}
func (f *fakeProductRepo) ListAvailable() ([]models.Product, error) { return nil, nil }
func (f *fakeProductRepo) Categories() ([]string, error)            { return nil, nil }
func (f *fakeProductRepo) Update(*models.Product) error             { return nil }
func (f *fakeProductRepo) Delete(int64) error                       { return nil }

func (f *fakeProductRepo) GetPriceAndStock(id int64) (decimal.Decimal, int, string, error) {
	p, ok := f.products[id]
	if !ok {
		return decimal.Zero, 0, "", repositories.ErrNotFound
	}
	return p.price, p.stock, p.name, nil
}

func (f *fakeProductRepo) ReserveStock(_ repositories.SQLExecutor, id int64, qty int) (int, error) {
	p, ok := f.products[id]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	if p.stock < qty {
		return p.stock, repositories.ErrInsufficientStock
	}
	p.stock -= qty
	return p.stock, nil
}

func (f *fakeProductRepo) ReleaseStock(_ repositories.SQLExecutor, id int64, qty int) (int, error) {
	p := f.products[id]
	p.stock += qty
	return p.stock, nil
}

func (f *fakeProductRepo) AdjustStock(_ repositories.SQLExecutor, id int64, delta int) (int, error) {
	p, ok := f.products[id]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	p.stock += delta
	if p.stock < 0 {
		p.stock = 0
	}
	return p.stock, nil
}

func (f *fakeProductRepo) GetStock(id int64) (int, error) {
	p, ok := f.products[id]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	return p.stock, nil
}

type fakeInventory struct {
	reserveErr  error
	reserved    [][]ReservationLine
	released    [][]ReservationLine
	reserveFunc func([]ReservationLine) error
}

func (f *fakeInventory) ReserveAll(lines []ReservationLine, userID *int64, reason *string) error {
	if f.reserveErr != nil {
		return f.reserveErr
	}
	if f.reserveFunc != nil {
		if err := f.reserveFunc(lines); err != nil {
			return err
		}
	}
	f.reserved = append(f.reserved, lines)
	return nil
}

func (f *fakeInventory) ReleaseAll(lines []ReservationLine, userID *int64, reason *string) error {
	f.released = append(f.released, lines)
	return nil
}

func (f *fakeInventory) Restock(int64, int, *int64, *string) (int, error) { return 0, nil }
func (f *fakeInventory) Adjust(int64, int, *int64, *string) (int, error)  { return 0, nil }
func (f *fakeInventory) GetMovements(models.StockMovementFilters) ([]models.StockMovement, int, error) {
	return nil, 0, nil
}

func int64Ptr(v int64) *int64 { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestSaleService(products *fakeProductRepo, inventory *fakeInventory) *saleService {
	return &saleService{
		productRepo: products,
		inventory:   inventory,
	}
}

func TestCompileCartPricesFromCatalog(t *testing.T) {
	products := newFakeProductRepo()
	products.products[1] = &fakeProduct{name: "Americano", sku: "AM-01", price: dec("10.00"), stock: 5}
	svc := newTestSaleService(products, &fakeInventory{})

	req := &CreateSaleRequest{
		Items: []SaleLineRequest{
			{ProductID: int64Ptr(1), Quantity: 2},
		},
		PaymentMethod: "cash",
		Discount:      dec("1.00"),
		Tax:           dec("0.50"),
	}

	items, reservations, subtotal, err := svc.compileCart(req)
	if err != nil {
		t.Fatalf("compileCart failed: %v", err)
	}
	if !subtotal.Equal(dec("20.00")) {
		t.Errorf("expected subtotal 20.00, got %s", subtotal)
	}
	total := subtotal.Sub(req.Discount).Add(req.Tax)
	if !total.Equal(dec("19.50")) {
		t.Errorf("expected total 19.50, got %s", total)
	}
	if len(items) != 1 || items[0].Name != "Americano" || !items[0].UnitPrice.Equal(dec("10.00")) {
		t.Errorf("unexpected compiled items: %+v", items)
	}
	if len(reservations) != 1 || reservations[0] != (ReservationLine{ProductID: 1, Quantity: 2}) {
		t.Errorf("unexpected reservations: %+v", reservations)
	}
}

func TestCompileCartIgnoresClientPriceForCatalogLines(t *testing.T) {
	products := newFakeProductRepo()
	products.products[1] = &fakeProduct{name: "Latte", sku: "LT-01", price: dec("4.50"), stock: 5}
	svc := newTestSaleService(products, &fakeInventory{})

	clientPrice := dec("0.01")
	req := &CreateSaleRequest{
		Items:         []SaleLineRequest{{ProductID: int64Ptr(1), Price: &clientPrice, Quantity: 1}},
		PaymentMethod: "card",
	}

	items, _, subtotal, err := svc.compileCart(req)
	if err != nil {
		t.Fatalf("compileCart failed: %v", err)
	}
	if !items[0].UnitPrice.Equal(dec("4.50")) || !subtotal.Equal(dec("4.50")) {
		t.Errorf("catalog price should win over the submitted one, got %s", items[0].UnitPrice)
	}
}

func TestCompileCartCustomLines(t *testing.T) {
	svc := newTestSaleService(newFakeProductRepo(), &fakeInventory{})
	price := dec("3.25")
	req := &CreateSaleRequest{
		Items:         []SaleLineRequest{{Name: "Delivery fee", Price: &price, Quantity: 2}},
		PaymentMethod: "cash",
	}

	items, reservations, subtotal, err := svc.compileCart(req)
	if err != nil {
		t.Fatalf("compileCart failed: %v", err)
	}
	if !subtotal.Equal(dec("6.50")) {
		t.Errorf("expected subtotal 6.50, got %s", subtotal)
	}
	if len(reservations) != 0 {
		t.Errorf("custom lines must not reserve inventory, got %+v", reservations)
	}
	if items[0].ProductID != nil {
		t.Error("custom line should carry no product reference")
	}
}

func TestCompileCartRejectsShortStock(t *testing.T) {
	products := newFakeProductRepo()
	products.products[1] = &fakeProduct{name: "Espresso", sku: "ES-01", price: dec("2.50"), stock: 1}
	products.products[2] = &fakeProduct{name: "Bagel", sku: "BG-01", price: dec("3.00"), stock: 10}
	svc := newTestSaleService(products, &fakeInventory{})

	req := &CreateSaleRequest{
		Items:         []SaleLineRequest{{ProductID: int64Ptr(1), Quantity: 3}},
		PaymentMethod: "cash",
	}

	_, _, _, err := svc.compileCart(req)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	// A short-stock line is reported as a shortfall even when a later line
	// would fail a different check.
	req = &CreateSaleRequest{
		Items: []SaleLineRequest{
			{ProductID: int64Ptr(1), Quantity: 3},
			{ProductID: int64Ptr(99), Quantity: 1},
		},
		PaymentMethod: "cash",
	}
	_, _, _, err = svc.compileCart(req)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock to win over later errors, got %v", err)
	}

	// Exactly-available stock compiles.
	req = &CreateSaleRequest{
		Items:         []SaleLineRequest{{ProductID: int64Ptr(2), Quantity: 10}},
		PaymentMethod: "cash",
	}
	if _, _, _, err = svc.compileCart(req); err != nil {
		t.Fatalf("a cart matching available stock should compile, got %v", err)
	}
}

func TestCompileCartValidation(t *testing.T) {
	products := newFakeProductRepo()
	products.products[1] = &fakeProduct{name: "Mocha", sku: "MC-01", price: dec("5.00"), stock: 5}
	svc := newTestSaleService(products, &fakeInventory{})
	price := dec("1.00")

	tests := []struct {
		name    string
		req     *CreateSaleRequest
		wantErr error
	}{
		{
			name:    "empty cart",
			req:     &CreateSaleRequest{PaymentMethod: "cash"},
			wantErr: ErrValidation,
		},
		{
			name: "negative discount",
			req: &CreateSaleRequest{
				Items:    []SaleLineRequest{{ProductID: int64Ptr(1), Quantity: 1}},
				Discount: dec("-1.00"),
			},
			wantErr: ErrValidation,
		},
		{
			name: "zero quantity",
			req: &CreateSaleRequest{
				Items: []SaleLineRequest{{ProductID: int64Ptr(1), Quantity: 0}},
			},
			wantErr: ErrValidation,
		},
		{
			name: "unknown product",
			req: &CreateSaleRequest{
				Items: []SaleLineRequest{{ProductID: int64Ptr(99), Quantity: 1}},
			},
			wantErr: ErrUnknownProduct,
		},
		{
			name: "custom line without price",
			req: &CreateSaleRequest{
				Items: []SaleLineRequest{{Name: "Tip", Quantity: 1}},
			},
			wantErr: ErrValidation,
		},
		{
			name: "custom line without name",
			req: &CreateSaleRequest{
				Items: []SaleLineRequest{{Price: &price, Quantity: 1}},
			},
			wantErr: ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := svc.compileCart(tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCreateSaleRejectsDiscountAboveTotal(t *testing.T) {
	products := newFakeProductRepo()
	products.products[1] = &fakeProduct{name: "Tea", sku: "TE-01", price: dec("2.00"), stock: 5}
	inventory := &fakeInventory{}
	svc := newTestSaleService(products, inventory)

	req := &CreateSaleRequest{
		Items:         []SaleLineRequest{{ProductID: int64Ptr(1), Quantity: 1}},
		PaymentMethod: "cash",
		Discount:      dec("5.00"),
	}

	_, err := svc.CreateSale(7, req)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(inventory.reserved) != 0 {
		t.Error("no reservation should happen for a rejected cart")
	}
}

func TestCreateSalePropagatesInsufficientStock(t *testing.T) {
	products := newFakeProductRepo()
	products.products[1] = &fakeProduct{name: "Juice", sku: "JU-01", price: dec("3.00"), stock: 1}
	inventory := &fakeInventory{reserveErr: ErrInsufficientStock}
	svc := newTestSaleService(products, inventory)

	req := &CreateSaleRequest{
		Items:         []SaleLineRequest{{ProductID: int64Ptr(1), Quantity: 2}},
		PaymentMethod: "cash",
	}

	_, err := svc.CreateSale(7, req)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if len(inventory.released) != 0 {
		t.Error("a failed reservation must not trigger a release")
	}
}
