package main

import (
	"fmt"
	"net/http"
	"os"

	"pricebook/internal/config"
	"pricebook/internal/database"
	"pricebook/internal/handlers"
	"pricebook/internal/logger"
	"pricebook/internal/middleware"
	"pricebook/internal/services"
	"pricebook/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Pricebook API
// @version         1.0
// @description     Pricebook manages versioned pricing master data with customer-group overrides, composes BOM costs, and calculates selling prices as immutable auditable snapshots.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(appConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)
	masterDataService := services.NewMasterDataService(db)
	resolverService := services.NewResolverService(masterDataService)
	customerService := services.NewCustomerService(db)
	productService := services.NewProductService(db)
	costingService := services.NewCostingService(resolverService)
	calculationService := services.NewCalculationService(db, resolverService, costingService, customerService, productService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	masterDataHandler := handlers.NewMasterDataHandler(masterDataService, auditService)
	customerHandler := handlers.NewCustomerHandler(customerService, auditService)
	productHandler := handlers.NewProductHandler(productService, auditService)
	calculationHandler := handlers.NewCalculationHandler(calculationService, auditService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Master-data lifecycle routes
	masterData := protected.Group("/master-data/:category")
	masterData.POST("", masterDataHandler.CreateRecord)
	masterData.GET("", masterDataHandler.ListRecords)
	masterData.GET("/active", masterDataHandler.GetActive)
	masterData.PUT("/:id", masterDataHandler.UpdateRecord)
	masterData.DELETE("/:id", masterDataHandler.DeleteRecord)
	masterData.POST("/:id/approve", masterDataHandler.ApproveRecord)
	masterData.POST("/:id/rollback", masterDataHandler.RollbackRecord)
	masterData.GET("/:id/history", masterDataHandler.GetHistory)

	// Customer routes
	customers := protected.Group("/customers")
	customers.POST("", customerHandler.CreateCustomer)
	customers.GET("", customerHandler.ListCustomers)
	customers.GET("/:id", customerHandler.GetCustomer)

	// Product and raw material routes
	products := protected.Group("/products")
	products.POST("", productHandler.CreateProduct)
	products.GET("", productHandler.ListProducts)
	products.GET("/:id", productHandler.GetProduct)
	products.PUT("/:id/bom", productHandler.SetBOM)

	rawMaterials := protected.Group("/raw-materials")
	rawMaterials.POST("", productHandler.CreateRawMaterial)
	rawMaterials.GET("", productHandler.ListRawMaterials)
	rawMaterials.GET("/:id", productHandler.GetRawMaterial)

	// Calculation routes
	calculations := protected.Group("/calculations")
	calculations.POST("", calculationHandler.Calculate)
	calculations.GET("", calculationHandler.ListSnapshots)
	calculations.GET("/:id", calculationHandler.GetSnapshot)

	log.Infof("Starting Pricebook backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
