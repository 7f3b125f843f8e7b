// Package router assembles the HTTP API.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "hearth/internal/docs" // registers the swagger spec
	"hearth/internal/handlers"
	"hearth/internal/metrics"
	"hearth/internal/middleware"
	"hearth/internal/services"
)

// Options configures New.
type Options struct {
	DB              *gorm.DB
	DefaultCurrency string
	PipelineAPIKey  string
	Metrics         *metrics.Registry

	// Budget configures write serialization, edit policy and the estimator.
	// Its Metrics field is filled from Metrics above.
	Budget services.BudgetOptions
}

// New wires services and handlers into a Gin engine.
func New(opts Options) *gin.Engine {
	db := opts.DB
	opts.Budget.Metrics = opts.Metrics

	// Services
	auditService := services.NewAuditService(db)
	familyService := services.NewFamilyService(db, opts.DefaultCurrency)
	categoryService := services.NewCategoryService(db)
	transactionService := services.NewTransactionService(db)
	budgetService := services.NewBudgetService(db, transactionService, opts.Budget)

	// Handlers
	familyHandler := handlers.NewFamilyHandler(familyService, auditService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, auditService)
	pipelineHandler := handlers.NewPipelineHandler(transactionService, auditService)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.Metrics(opts.Metrics))
	router.Use(middleware.ErrorHandler())

	// CORS
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	router.GET("/api/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	v1.POST("/families", familyHandler.CreateFamily)

	family := v1.Group("/families/:family_id")
	family.GET("", familyHandler.GetFamily)

	categories := family.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetFamilyCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	transactions := family.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetFamilyTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	budgets := family.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/:id", budgetHandler.GetBudgetOverview)
	budgets.PUT("/:id", budgetHandler.UpdateBudgetTargets)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)
	budgets.GET("/:id/suggestions", budgetHandler.GetSuggestions)
	budgets.PUT("/:id/categories/:budget_category_id", budgetHandler.SetAllocation)

	pipeline := v1.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(opts.PipelineAPIKey))
	pipeline.POST("/families/:family_id/transactions", pipelineHandler.IngestTransactions)

	return router
}
