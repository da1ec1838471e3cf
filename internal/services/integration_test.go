package services_test

import (
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"pos_kiosk_backend/internal/models"
	"pos_kiosk_backend/internal/repositories"
	"pos_kiosk_backend/internal/services"
)

// setupTestDB connects to the database named by POS_TEST_DATABASE_DSN,
// applies the schema and truncates all tables. Tests are skipped when the
// variable is unset so the suite stays runnable without postgres.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("POS_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("POS_TEST_DATABASE_DSN not set, skipping integration test")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile("../../db_schema.sql")
	if err != nil {
		t.Fatalf("failed to read schema: %v", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	if _, err := db.Exec(`TRUNCATE stock_movements, sale_items, sales, kiosk_order_lines, kiosk_orders, products, customers, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
	return db
}

type testStack struct {
	db        *sql.DB
	products  repositories.ProductRepository
	sales     services.SaleService
	inventory services.InventoryService
	orders    services.KioskOrderService
	userID    int64
}

type nopPublisher struct{}

func (nopPublisher) PublishNew(*models.KioskOrder)  {}
func (nopPublisher) PublishStatus(string, string)   {}
func (nopPublisher) PublishClear()                  {}

func setupStack(t *testing.T) *testStack {
	t.Helper()
	db := setupTestDB(t)

	productRepo := repositories.NewProductRepository(db)
	customerRepo := repositories.NewCustomerRepository(db)
	saleRepo := repositories.NewSaleRepository(db)
	userRepo := repositories.NewUserRepository(db)
	orderRepo := repositories.NewKioskOrderRepository(db)
	movementRepo := repositories.NewStockMovementRepository(db)

	inventory := services.NewInventoryService(db, productRepo, movementRepo)
	sales := services.NewSaleService(db, saleRepo, productRepo, customerRepo, inventory)
	orders := services.NewKioskOrderService(db, orderRepo, nopPublisher{})

	user := &models.User{Name: "Test Cashier", Email: "cashier@example.com", PasswordHash: "x", Role: models.RoleCashier, IsActive: true}
	userID, err := userRepo.Create(user)
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	return &testStack{db: db, products: productRepo, sales: sales, inventory: inventory, orders: orders, userID: userID}
}

func seedProduct(t *testing.T, stack *testStack, name, sku, price string, stock int) int64 {
	t.Helper()
	product := &models.Product{Name: name, SKU: sku, Price: decimal.RequireFromString(price), Stock: stock}
	id, err := stack.products.Create(product)
	if err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return id
}

func TestCheckoutPipeline(t *testing.T) {
	stack := setupStack(t)
	productID := seedProduct(t, stack, "Americano", "AM-01", "10.00", 5)

	req := &services.CreateSaleRequest{
		Items:         []services.SaleLineRequest{{ProductID: &productID, Quantity: 2}},
		PaymentMethod: "cash",
		Discount:      decimal.RequireFromString("1.00"),
		Tax:           decimal.RequireFromString("0.50"),
	}

	sale, err := stack.sales.CreateSale(stack.userID, req)
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}

	if !sale.Total.Equal(decimal.RequireFromString("19.50")) {
		t.Errorf("expected total 19.50, got %s", sale.Total)
	}
	if sale.Status != models.SaleStatusCompleted {
		t.Errorf("expected completed sale, got %s", sale.Status)
	}
	if len(sale.Items) != 1 || sale.Items[0].Quantity != 2 {
		t.Errorf("unexpected sale items: %+v", sale.Items)
	}

	stock, err := stack.products.GetStock(productID)
	if err != nil {
		t.Fatalf("GetStock failed: %v", err)
	}
	if stock != 3 {
		t.Errorf("expected stock 3 after sale, got %d", stock)
	}

	movements, _, err := stack.inventory.GetMovements(models.StockMovementFilters{ProductID: &productID, PageSize: 10, Page: 1})
	if err != nil {
		t.Fatalf("GetMovements failed: %v", err)
	}
	if len(movements) != 1 || movements[0].QuantityChanged != -2 {
		t.Errorf("expected one -2 movement, got %+v", movements)
	}
}

func TestConcurrentCheckoutsNeverOversell(t *testing.T) {
	stack := setupStack(t)
	productID := seedProduct(t, stack, "Limited", "LI-01", "10.00", 3)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := &services.CreateSaleRequest{
				Items:         []services.SaleLineRequest{{ProductID: &productID, Quantity: 2}},
				PaymentMethod: "cash",
			}
			_, results[i] = stack.sales.CreateSale(stack.userID, req)
		}(i)
	}
	wg.Wait()

	var success, shortfall int
	for _, err := range results {
		switch {
		case err == nil:
			success++
		case errors.Is(err, services.ErrInsufficientStock):
			shortfall++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 || shortfall != 1 {
		t.Errorf("expected exactly one winner, got %d successes and %d shortfalls", success, shortfall)
	}

	stock, err := stack.products.GetStock(productID)
	if err != nil {
		t.Fatalf("GetStock failed: %v", err)
	}
	if stock != 1 {
		t.Errorf("expected stock 1, got %d", stock)
	}
}

func TestReservationGroupIsAllOrNothing(t *testing.T) {
	stack := setupStack(t)
	plenty := seedProduct(t, stack, "Plenty", "PL-01", "1.00", 100)
	scarce := seedProduct(t, stack, "Scarce", "SC-01", "1.00", 1)

	req := &services.CreateSaleRequest{
		Items: []services.SaleLineRequest{
			{ProductID: &plenty, Quantity: 5},
			{ProductID: &scarce, Quantity: 2},
		},
		PaymentMethod: "cash",
	}

	_, err := stack.sales.CreateSale(stack.userID, req)
	if !errors.Is(err, services.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	stock, err := stack.products.GetStock(plenty)
	if err != nil {
		t.Fatalf("GetStock failed: %v", err)
	}
	if stock != 100 {
		t.Errorf("sibling line must be untouched after a shortfall, stock %d", stock)
	}
}

func TestFailedSaleWriteReleasesStock(t *testing.T) {
	stack := setupStack(t)
	productID := seedProduct(t, stack, "Fragile", "FR-01", "2.00", 10)

	// Sabotage the durable write so reservation compensation has to run.
	if _, err := stack.db.Exec(`ALTER TABLE sale_items RENAME TO sale_items_hidden`); err != nil {
		t.Fatalf("failed to hide sale_items: %v", err)
	}
	defer func() {
		if _, err := stack.db.Exec(`ALTER TABLE sale_items_hidden RENAME TO sale_items`); err != nil {
			t.Fatalf("failed to restore sale_items: %v", err)
		}
	}()

	req := &services.CreateSaleRequest{
		Items:         []services.SaleLineRequest{{ProductID: &productID, Quantity: 4}},
		PaymentMethod: "cash",
	}

	_, err := stack.sales.CreateSale(stack.userID, req)
	if !errors.Is(err, services.ErrCommitFailure) {
		t.Fatalf("expected commit failure, got %v", err)
	}

	stock, err := stack.products.GetStock(productID)
	if err != nil {
		t.Fatalf("GetStock failed: %v", err)
	}
	if stock != 10 {
		t.Errorf("expected stock restored to 10, got %d", stock)
	}
}

func TestKioskOrderLifecycle(t *testing.T) {
	stack := setupStack(t)

	note := "no onions"
	table := "T5"
	req := &services.SubmitOrderRequest{
		Table: &table,
		Lines: []services.OrderLineRequest{
			{Name: "Burger", Price: decimal.RequireFromString("8.00"), Quantity: 2, Notes: &note},
			{Name: "Fries", Price: decimal.RequireFromString("3.00"), Quantity: 1},
		},
	}

	order, err := stack.orders.SubmitOrder(req)
	if err != nil {
		t.Fatalf("SubmitOrder failed: %v", err)
	}
	if !order.Total.Equal(decimal.RequireFromString("19.00")) {
		t.Errorf("expected total 19.00, got %s", order.Total)
	}
	if order.Status != models.OrderStatusPending {
		t.Errorf("expected pending order, got %s", order.Status)
	}

	pending, err := stack.orders.PendingOrders()
	if err != nil {
		t.Fatalf("PendingOrders failed: %v", err)
	}
	if len(pending) != 1 || len(pending[0].Lines) != 2 {
		t.Fatalf("expected one pending order with two lines, got %+v", pending)
	}

	confirmed, err := stack.orders.Transition(order.ID, "confirm")
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if confirmed.Status != models.OrderStatusConfirmed {
		t.Errorf("expected confirmed, got %s", confirmed.Status)
	}

	// Replay is a no-op; a conflicting action is rejected.
	if _, err := stack.orders.Transition(order.ID, "confirm"); err != nil {
		t.Errorf("replay should succeed, got %v", err)
	}
	if _, err := stack.orders.Transition(order.ID, "cancel"); !errors.Is(err, services.ErrInvalidTransition) {
		t.Errorf("expected invalid transition, got %v", err)
	}

	pending, err = stack.orders.PendingOrders()
	if err != nil {
		t.Fatalf("PendingOrders failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("queue should be empty, got %d orders", len(pending))
	}
}

func TestAdjustStockClampsAtZero(t *testing.T) {
	stack := setupStack(t)
	productID := seedProduct(t, stack, "Writeoff", "WO-01", "1.00", 3)

	newStock, err := stack.inventory.Adjust(productID, -10, &stack.userID, nil)
	if err != nil {
		t.Fatalf("Adjust failed: %v", err)
	}
	if newStock != 0 {
		t.Errorf("expected stock clamped to 0, got %d", newStock)
	}
}
