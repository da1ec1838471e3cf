package router

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"pos_kiosk_backend/internal/broadcast"
	"pos_kiosk_backend/internal/handlers"
	"pos_kiosk_backend/internal/middleware"
	"pos_kiosk_backend/internal/models"
	"pos_kiosk_backend/internal/repositories"
	"pos_kiosk_backend/internal/services"
	"pos_kiosk_backend/pkg/utils"
)

// Setup wires repositories, services and handlers and returns the engine.
func Setup(db *sql.DB, hub *broadcast.Hub) *gin.Engine {
	productRepo := repositories.NewProductRepository(db)
	customerRepo := repositories.NewCustomerRepository(db)
	saleRepo := repositories.NewSaleRepository(db)
	userRepo := repositories.NewUserRepository(db)
	orderRepo := repositories.NewKioskOrderRepository(db)
	movementRepo := repositories.NewStockMovementRepository(db)

	inventoryService := services.NewInventoryService(db, productRepo, movementRepo)
	productService := services.NewProductService(productRepo)
	customerService := services.NewCustomerService(customerRepo)
	saleService := services.NewSaleService(db, saleRepo, productRepo, customerRepo, inventoryService)
	orderService := services.NewKioskOrderService(db, orderRepo, hub)
	authService := services.NewAuthService(userRepo)

	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService)
	customerHandler := handlers.NewCustomerHandler(customerService)
	saleHandler := handlers.NewSaleHandler(saleService)
	orderHandler := handlers.NewKioskOrderHandler(orderService)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService)
	streamHandler := handlers.NewStreamHandler(hub, orderService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(utils.GinLogger())
	r.Use(corsMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")

	// Public routes: login, and everything a kiosk terminal touches.
	v1.POST("/auth/login", authHandler.Login)
	v1.GET("/kiosk/menu", productHandler.GetKioskMenu)
	v1.POST("/kiosk/orders", orderHandler.SubmitOrder)

	authed := v1.Group("")
	authed.Use(middleware.AuthMiddleware())
	adminOnly := middleware.RoleAuthMiddleware(models.RoleAdmin)

	authed.GET("/auth/me", authHandler.Me)
	authed.GET("/users", adminOnly, authHandler.ListUsers)
	authed.POST("/users", adminOnly, authHandler.CreateUser)

	products := authed.Group("/products")
	{
		products.GET("", productHandler.GetProducts)
		products.GET("/categories", productHandler.GetCategories)
		products.GET("/:id", productHandler.GetProduct)
		products.POST("", adminOnly, productHandler.CreateProduct)
		products.PUT("/:id", adminOnly, productHandler.UpdateProduct)
		products.DELETE("/:id", adminOnly, productHandler.DeleteProduct)
		products.POST("/:id/restock", adminOnly, inventoryHandler.RestockProduct)
		products.POST("/:id/adjust", adminOnly, inventoryHandler.AdjustProductStock)
	}

	customers := authed.Group("/customers")
	{
		customers.GET("", customerHandler.GetCustomers)
		customers.GET("/:id", customerHandler.GetCustomer)
		customers.POST("", customerHandler.CreateCustomer)
		customers.PUT("/:id", customerHandler.UpdateCustomer)
		customers.DELETE("/:id", adminOnly, customerHandler.DeleteCustomer)
	}

	sales := authed.Group("/sales")
	{
		sales.POST("", saleHandler.CreateSale)
		sales.GET("", saleHandler.GetSales)
		sales.GET("/stats", saleHandler.GetStats)
		sales.GET("/:id", saleHandler.GetSale)
		sales.PUT("/:id/status", adminOnly, saleHandler.UpdateSaleStatus)
	}

	kioskOrders := authed.Group("/kiosk/orders")
	{
		kioskOrders.GET("/pending", orderHandler.GetPendingOrders)
		kioskOrders.GET("/stream", streamHandler.StreamOrders)
		kioskOrders.GET("/:id", orderHandler.GetOrder)
		kioskOrders.PUT("/:id/status", orderHandler.UpdateOrderStatus)
		kioskOrders.DELETE("/pending", adminOnly, orderHandler.ClearPendingOrders)
	}

	authed.GET("/inventory/movements", adminOnly, inventoryHandler.GetMovements)

	return r
}

func corsMiddleware() gin.HandlerFunc {
	origins := utils.Getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	config := cors.Config{
		AllowOrigins:     strings.Split(origins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	return cors.New(config)
}
